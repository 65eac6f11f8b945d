package localstore

import (
	"context"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación del puerto OrderRepository sobre la colección "orders".
type OrderRepo struct {
	col *Collection[entity.Order]
	ids *IDGenerator
}

// NewOrderRepository construye el adaptador de persistencia para pedidos.
func NewOrderRepository(col *Collection[entity.Order], ids *IDGenerator) *OrderRepo {
	return &OrderRepo{col: col, ids: ids}
}

// Create persiste un nuevo pedido.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	return r.col.Create(ctx, *order)
}

// GetByID obtiene un pedido por ID.
func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	v, ok, err := r.col.FindByID(ctx, id)
	return found(v, ok, err)
}

// FindByNumber obtiene un pedido por número de solicitud (PED-...).
func (r *OrderRepo) FindByNumber(ctx context.Context, number string) (*entity.Order, error) {
	v, ok, err := r.col.Find(ctx, func(o entity.Order) bool { return o.Number == number })
	return found(v, ok, err)
}

// Update actualiza un pedido; si no existe no hace nada.
func (r *OrderRepo) Update(ctx context.Context, order *entity.Order) error {
	_, err := r.col.Update(ctx, *order)
	return err
}

// List todos los pedidos.
func (r *OrderRepo) List(ctx context.Context) ([]*entity.Order, error) {
	return r.filter(ctx, func(entity.Order) bool { return true })
}

// ListByCustomer pedidos del cliente.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID int64) ([]*entity.Order, error) {
	return r.filter(ctx, func(o entity.Order) bool { return o.CustomerID == customerID })
}

// ListByDriver pedidos asignados al repartidor.
func (r *OrderRepo) ListByDriver(ctx context.Context, driverID int64) ([]*entity.Order, error) {
	return r.filter(ctx, func(o entity.Order) bool { return o.AssignedTo(driverID) })
}

// ReplaceAll reescribe la colección completa.
func (r *OrderRepo) ReplaceAll(ctx context.Context, orders []*entity.Order) error {
	return r.col.ReplaceAll(ctx, fromPtrs(orders))
}

// NextID siguiente ID libre.
func (r *OrderRepo) NextID(ctx context.Context) (int64, error) {
	floor, err := r.col.MaxID(ctx)
	if err != nil {
		return 0, err
	}
	return r.ids.Next(floor), nil
}

func (r *OrderRepo) filter(ctx context.Context, pred func(entity.Order) bool) ([]*entity.Order, error) {
	list, err := r.col.Filter(ctx, pred)
	if err != nil {
		return nil, err
	}
	return toPtrs(list), nil
}
