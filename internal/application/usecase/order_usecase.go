package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/domain"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
	"github.com/jhoicas/maxigas/pkg/clock"
)

// DefaultShippingFee costo de envío por pedido.
const DefaultShippingFee = 2990

// OrderUseCase ciclo de vida del pedido:
// Pendiente -> Asignado -> En Ruta -> Entregado, o Pendiente -> Cancelado.
type OrderUseCase struct {
	orders   repository.OrderRepository
	users    repository.UserRepository
	tx       ports.TxRunner
	notifier ports.Notifier
	clock    clock.Clock
	shipping decimal.Decimal
}

// NewOrderUseCase construye el caso de uso. shipping es el costo fijo de envío.
func NewOrderUseCase(orders repository.OrderRepository, users repository.UserRepository, tx ports.TxRunner, notifier ports.Notifier, clk clock.Clock, shipping decimal.Decimal) *OrderUseCase {
	return &OrderUseCase{orders: orders, users: users, tx: tx, notifier: notifier, clock: clk, shipping: shipping}
}

// Checkout convierte el carrito en un pedido Pendiente: congela los ítems y sus precios,
// descuenta stock (sin bajar de 0) y vacía el carrito.
func (uc *OrderUseCase) Checkout(ctx context.Context, customer *entity.User, cart ports.Cart, in dto.CheckoutRequest) (*entity.Order, error) {
	if customer == nil {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.Commune) == "" || strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, domain.ErrInvalidInput
	}
	items, err := cart.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	subtotal := entity.SumItems(items)
	var order *entity.Order
	err = uc.tx.Run(ctx, func(products repository.ProductRepository, orders repository.OrderRepository) error {
		id, err := orders.NextID(ctx)
		if err != nil {
			return err
		}
		order = &entity.Order{
			ID:            id,
			Number:        fmt.Sprintf("PED-%d", id),
			CustomerID:    customer.ID,
			CustomerName:  customer.FullName(),
			Items:         append([]entity.CartItem(nil), items...),
			Address:       strings.TrimSpace(in.Address),
			Commune:       strings.TrimSpace(in.Commune),
			Phone:         strings.TrimSpace(in.Phone),
			PaymentMethod: strings.TrimSpace(in.PaymentMethod),
			Subtotal:      subtotal,
			Shipping:      uc.shipping,
			Total:         subtotal.Add(uc.shipping),
			Status:        entity.OrderPending,
			CreatedAt:     uc.clock.Now().UTC(),
		}
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		return adjustStock(ctx, products, items, -1)
	})
	if err != nil {
		return nil, err
	}
	if err := cart.Clear(ctx); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return order, nil
}

// Cancel cancela un pedido Pendiente y devuelve su stock. En cualquier otro estado no hace
// nada y devuelve false.
func (uc *OrderUseCase) Cancel(ctx context.Context, number string) (bool, error) {
	cancelled := false
	err := uc.tx.Run(ctx, func(products repository.ProductRepository, orders repository.OrderRepository) error {
		o, err := orders.FindByNumber(ctx, number)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if o.Status != entity.OrderPending {
			return nil
		}
		now := uc.clock.Now().UTC()
		o.Status = entity.OrderCancelled
		o.CancelledAt = &now
		if err := orders.Update(ctx, o); err != nil {
			return err
		}
		cancelled = true
		return adjustStock(ctx, products, o.Items, +1)
	})
	if err != nil {
		return false, err
	}
	if cancelled {
		uc.notifier.TriggerSync()
	}
	return cancelled, nil
}

// Assign asigna un repartidor a un pedido Pendiente o lo reasigna si ya estaba Asignado.
func (uc *OrderUseCase) Assign(ctx context.Context, orderID, driverID int64) (*entity.Order, error) {
	o, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if o.Status != entity.OrderPending && o.Status != entity.OrderAssigned {
		return nil, domain.ErrInvalidStatus
	}
	driver, err := uc.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil || driver.Role != entity.RoleRepartidor {
		return nil, domain.ErrInvalidInput
	}
	now := uc.clock.Now().UTC()
	id := driver.ID
	o.DriverID = &id
	o.DriverName = driver.FullName()
	o.AssignedAt = &now
	o.Status = entity.OrderAssigned
	if err := uc.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return o, nil
}

// StartRoute el repartidor asignado inicia la ruta (Asignado -> En Ruta).
func (uc *OrderUseCase) StartRoute(ctx context.Context, driver *entity.User, number string) (*entity.Order, error) {
	return uc.advance(ctx, driver, number, entity.OrderAssigned, entity.OrderOnRoute)
}

// Deliver el repartidor asignado marca la entrega (En Ruta -> Entregado).
func (uc *OrderUseCase) Deliver(ctx context.Context, driver *entity.User, number string) (*entity.Order, error) {
	return uc.advance(ctx, driver, number, entity.OrderOnRoute, entity.OrderDelivered)
}

func (uc *OrderUseCase) advance(ctx context.Context, driver *entity.User, number string, from, to entity.OrderStatus) (*entity.Order, error) {
	if driver == nil {
		return nil, domain.ErrUnauthorized
	}
	o, err := uc.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if !o.AssignedTo(driver.ID) {
		return nil, domain.ErrForbidden
	}
	if o.Status != from {
		return nil, domain.ErrInvalidStatus
	}
	now := uc.clock.Now().UTC()
	o.Status = to
	switch to {
	case entity.OrderOnRoute:
		o.RouteStartAt = &now
	case entity.OrderDelivered:
		o.DeliveredAt = &now
	}
	if err := uc.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return o, nil
}

// GetByNumber pedido por número; (nil, nil) si no existe.
func (uc *OrderUseCase) GetByNumber(ctx context.Context, number string) (*entity.Order, error) {
	return uc.orders.FindByNumber(ctx, number)
}

// ForViewer pedido por número, visible solo para su cliente, su repartidor asignado o un admin.
func (uc *OrderUseCase) ForViewer(ctx context.Context, viewer *entity.User, number string) (*entity.Order, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	o, err := uc.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if viewer.Role != entity.RoleAdmin && o.CustomerID != viewer.ID && !o.AssignedTo(viewer.ID) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// List todos los pedidos, opcionalmente filtrados por estado.
func (uc *OrderUseCase) List(ctx context.Context, status entity.OrderStatus) ([]*entity.Order, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	all, err := uc.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	out := make([]*entity.Order, 0, len(all))
	for _, o := range all {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListByCustomer pedidos del cliente.
func (uc *OrderUseCase) ListByCustomer(ctx context.Context, customerID int64) ([]*entity.Order, error) {
	return uc.orders.ListByCustomer(ctx, customerID)
}

// ListByDriver pedidos asignados al repartidor.
func (uc *OrderUseCase) ListByDriver(ctx context.Context, driverID int64) ([]*entity.Order, error) {
	return uc.orders.ListByDriver(ctx, driverID)
}

// Shipping costo de envío vigente.
func (uc *OrderUseCase) Shipping() decimal.Decimal { return uc.shipping }

// adjustStock suma sign*cantidad al stock de cada producto aún existente. Nunca deja stock negativo.
func adjustStock(ctx context.Context, products repository.ProductRepository, items []entity.CartItem, sign int) error {
	for _, it := range items {
		p, err := products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		p.Stock += sign * it.Quantity
		if p.Stock < 0 {
			p.Stock = 0
		}
		p.SyncStatus()
		if err := products.Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
