package repository

import (
	"context"

	"github.com/jhoicas/maxigas/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*entity.Product, error)
	ReplaceAll(ctx context.Context, products []*entity.Product) error
	NextID(ctx context.Context) (int64, error)
}
