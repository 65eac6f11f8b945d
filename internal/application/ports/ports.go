package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
)

// Notifier anuncia a la pestaña (y por el almacenamiento, a las demás) que los datos cambiaron.
type Notifier interface {
	TriggerSync()
}

// TxRunner ejecuta fn con repositorios cuyas escrituras se confirman juntas al terminar.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		products repository.ProductRepository,
		orders repository.OrderRepository,
	) error) error
}

// Cart carrito de la pestaña que se convierte en pedido.
type Cart interface {
	Items(ctx context.Context) ([]entity.CartItem, error)
	Clear(ctx context.Context) error
}

// RevenueQuery agregado de ingresos calculado por el backend (opcional).
type RevenueQuery interface {
	DeliveredRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// ReceiptGenerator genera el comprobante imprimible de un pedido.
type ReceiptGenerator interface {
	OrderReceipt(ctx context.Context, order *entity.Order) ([]byte, error)
}
