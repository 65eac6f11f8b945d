package localstore

import (
	"context"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre la colección "products".
type ProductRepo struct {
	col *Collection[entity.Product]
	ids *IDGenerator
}

// NewProductRepository construye el adaptador de persistencia para productos.
func NewProductRepository(col *Collection[entity.Product], ids *IDGenerator) *ProductRepo {
	return &ProductRepo{col: col, ids: ids}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	return r.col.Create(ctx, *product)
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	v, ok, err := r.col.FindByID(ctx, id)
	return found(v, ok, err)
}

// Update actualiza un producto; si no existe no hace nada.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	_, err := r.col.Update(ctx, *product)
	return err
}

// Delete elimina un producto; si no existe no hace nada.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.col.Delete(ctx, id)
	return err
}

// List todos los productos en el orden guardado.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	items, err := r.col.All(ctx)
	if err != nil {
		return nil, err
	}
	return toPtrs(items), nil
}

// ReplaceAll reescribe el catálogo completo (usado por el checkout al descontar stock).
func (r *ProductRepo) ReplaceAll(ctx context.Context, products []*entity.Product) error {
	return r.col.ReplaceAll(ctx, fromPtrs(products))
}

// NextID siguiente ID libre.
func (r *ProductRepo) NextID(ctx context.Context) (int64, error) {
	floor, err := r.col.MaxID(ctx)
	if err != nil {
		return 0, err
	}
	return r.ids.Next(floor), nil
}
