package localstore

import (
	"context"
	"strings"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo implementación del puerto CategoryRepository sobre la colección "categories".
type CategoryRepo struct {
	col *Collection[entity.Category]
	ids *IDGenerator
}

// NewCategoryRepository construye el adaptador de persistencia para categorías.
func NewCategoryRepository(col *Collection[entity.Category], ids *IDGenerator) *CategoryRepo {
	return &CategoryRepo{col: col, ids: ids}
}

func (r *CategoryRepo) Create(ctx context.Context, category *entity.Category) error {
	return r.col.Create(ctx, *category)
}

func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	v, ok, err := r.col.FindByID(ctx, id)
	return found(v, ok, err)
}

// FindByName búsqueda sin distinguir mayúsculas.
func (r *CategoryRepo) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	name = strings.TrimSpace(name)
	v, ok, err := r.col.Find(ctx, func(c entity.Category) bool { return strings.EqualFold(c.Name, name) })
	return found(v, ok, err)
}

func (r *CategoryRepo) Update(ctx context.Context, category *entity.Category) error {
	_, err := r.col.Update(ctx, *category)
	return err
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.col.Delete(ctx, id)
	return err
}

func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	items, err := r.col.All(ctx)
	if err != nil {
		return nil, err
	}
	return toPtrs(items), nil
}

func (r *CategoryRepo) NextID(ctx context.Context) (int64, error) {
	floor, err := r.col.MaxID(ctx)
	if err != nil {
		return 0, err
	}
	return r.ids.Next(floor), nil
}
