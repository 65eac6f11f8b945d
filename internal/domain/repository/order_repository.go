package repository

import (
	"context"

	"github.com/jhoicas/maxigas/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order (DIP).
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	FindByNumber(ctx context.Context, number string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	List(ctx context.Context) ([]*entity.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*entity.Order, error)
	ListByDriver(ctx context.Context, driverID int64) ([]*entity.Order, error)
	ReplaceAll(ctx context.Context, orders []*entity.Order) error
	NextID(ctx context.Context) (int64, error)
}
