package usecase

import (
	"context"
	"strings"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/domain"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
	"github.com/jhoicas/maxigas/pkg/textfold"
)

// CategoryUseCase categorías del catálogo. Los productos referencian la categoría por nombre.
type CategoryUseCase struct {
	repo     repository.CategoryRepository
	products repository.ProductRepository
	notifier ports.Notifier
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository, products repository.ProductRepository, notifier ports.Notifier) *CategoryUseCase {
	return &CategoryUseCase{repo: repo, products: products, notifier: notifier}
}

// Create crea una categoría. El nombre es único sin distinguir mayúsculas.
func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CreateCategoryRequest) (*entity.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrConflict
	}
	id, err := uc.repo.NextID(ctx)
	if err != nil {
		return nil, err
	}
	c := &entity.Category{ID: id, Name: name, Description: strings.TrimSpace(in.Description)}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return c, nil
}

// List categorías con la cantidad de productos que las referencian.
func (uc *CategoryUseCase) List(ctx context.Context) ([]*entity.Category, error) {
	cats, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		c.ProductCount = 0
		for _, p := range products {
			if textfold.Equal(p.Category, c.Name) {
				c.ProductCount++
			}
		}
	}
	return cats, nil
}

// Delete elimina una categoría sin productos asociados.
func (uc *CategoryUseCase) Delete(ctx context.Context, id int64) error {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrNotFound
	}
	products, err := uc.products.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if textfold.Equal(p.Category, c.Name) {
			return domain.ErrConflict
		}
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.notifier.TriggerSync()
	return nil
}
