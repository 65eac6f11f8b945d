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

// ProductUseCase catálogo: consulta pública y CRUD de administración. El estado
// disponible/agotado se recalcula desde el stock en cada escritura.
type ProductUseCase struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	notifier   ports.Notifier
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, categories repository.CategoryRepository, notifier ports.Notifier) *ProductUseCase {
	return &ProductUseCase{repo: repo, categories: categories, notifier: notifier}
}

// Create crea un producto. La categoría debe existir.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*entity.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price.IsNegative() || in.Stock < 0 || in.CriticalStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	cat, err := uc.categories.FindByName(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, domain.ErrInvalidInput
	}
	id, err := uc.repo.NextID(ctx)
	if err != nil {
		return nil, err
	}
	p := &entity.Product{
		ID:            id,
		Name:          name,
		Category:      cat.Name,
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		Stock:         in.Stock,
		CriticalStock: in.CriticalStock,
		Image:         in.Image,
	}
	p.SyncStatus()
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return p, nil
}

// GetByID obtiene un producto; (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return uc.repo.GetByID(ctx, id)
}

// List catálogo filtrado por categoría y texto (sin distinguir mayúsculas ni tildes).
func (uc *ProductUseCase) List(ctx context.Context, f dto.ProductFilter) ([]*entity.Product, error) {
	all, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.TrimSpace(f.Query)
	out := make([]*entity.Product, 0, len(all))
	for _, p := range all {
		if f.Category != "" && !textfold.Equal(p.Category, f.Category) {
			continue
		}
		if q != "" && !textfold.Contains(p.Name, q) && !textfold.Contains(p.Description, q) && !textfold.Contains(p.Category, q) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Update edita un producto; (nil, nil) si no existe.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*entity.Product, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		p.Name = name
	}
	if in.Category != nil {
		cat, err := uc.categories.FindByName(ctx, *in.Category)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, domain.ErrInvalidInput
		}
		p.Category = cat.Name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, domain.ErrInvalidInput
		}
		p.Stock = *in.Stock
	}
	if in.CriticalStock != nil {
		if *in.CriticalStock < 0 {
			return nil, domain.ErrInvalidInput
		}
		p.CriticalStock = *in.CriticalStock
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	p.SyncStatus()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return p, nil
}

// Delete elimina un producto. Los pedidos conservan su copia del ítem.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.notifier.TriggerSync()
	return nil
}

// AddStock suma qty unidades al stock.
func (uc *ProductUseCase) AddStock(ctx context.Context, id int64, qty int) (*entity.Product, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidInput
	}
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	p.Stock += qty
	p.SyncStatus()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return p, nil
}

// LowStock productos con stock en o bajo el crítico.
func (uc *ProductUseCase) LowStock(ctx context.Context) ([]*entity.Product, error) {
	all, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Product, 0)
	for _, p := range all {
		if p.IsCritical() {
			out = append(out, p)
		}
	}
	return out, nil
}
