package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado del ciclo de vida de un pedido.
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pendiente"
	OrderAssigned  OrderStatus = "Asignado"
	OrderOnRoute   OrderStatus = "En Ruta"
	OrderDelivered OrderStatus = "Entregado"
	OrderCancelled OrderStatus = "Cancelado"
)

// Valid indica si s es un estado conocido.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAssigned, OrderOnRoute, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order pedido de un cliente. Items, Subtotal, Shipping y Total se fijan en el checkout y no se
// recalculan aunque luego cambie el precio del producto: Total == Subtotal + Shipping.
type Order struct {
	ID            int64           `json:"id"`
	Number        string          `json:"numeroSolicitud"`
	CustomerID    int64           `json:"clienteId"`
	CustomerName  string          `json:"clienteNombre"`
	Items         []CartItem      `json:"productos"`
	Address       string          `json:"direccion"`
	Commune       string          `json:"comuna"`
	Phone         string          `json:"telefono"`
	PaymentMethod string          `json:"metodoPago"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"envio"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"estado"`
	CreatedAt     time.Time       `json:"fecha"`
	DriverID      *int64          `json:"repartidorAsignado,omitempty"`
	DriverName    string          `json:"repartidorNombre,omitempty"`
	AssignedAt    *time.Time      `json:"fechaAsignacion,omitempty"`
	RouteStartAt  *time.Time      `json:"horaInicioRuta,omitempty"`
	DeliveredAt   *time.Time      `json:"horaEntrega,omitempty"`
	CancelledAt   *time.Time      `json:"fechaCancelacion,omitempty"`
}

// GetID implementa la identidad usada por el almacén de registros.
func (o Order) GetID() int64 { return o.ID }

// AssignedTo indica si el pedido está asignado al repartidor driverID.
func (o *Order) AssignedTo(driverID int64) bool {
	return o.DriverID != nil && *o.DriverID == driverID
}
