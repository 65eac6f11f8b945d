package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/domain/entity"
)

// CheckoutRequest datos de despacho y pago del pedido.
type CheckoutRequest struct {
	Address       string `json:"direccion"`
	Commune       string `json:"comuna"`
	Phone         string `json:"telefono"`
	PaymentMethod string `json:"metodoPago"`
}

// AssignOrderRequest repartidor a asignar.
type AssignOrderRequest struct {
	DriverID int64 `json:"repartidorId"`
}

// AddCartItemRequest producto a agregar al carrito.
type AddCartItemRequest struct {
	ProductID int64 `json:"productId"`
}

// UpdateCartItemRequest cambio relativo de cantidad.
type UpdateCartItemRequest struct {
	Delta int `json:"delta"`
}

// CartResponse carrito con totales.
type CartResponse struct {
	Items    []entity.CartItem `json:"items"`
	Count    int               `json:"count"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Shipping decimal.Decimal   `json:"envio"`
	Total    decimal.Decimal   `json:"total"`
}

// DashboardDTO indicadores del panel de administración.
type DashboardDTO struct {
	OrdersToday    int             `json:"pedidosHoy"`
	TotalCustomers int             `json:"totalUsuarios"`
	ActiveDrivers  int             `json:"repartidoresActivos"`
	RevenueToday   decimal.Decimal `json:"ingresosHoy"`
	PendingOrders  int             `json:"pedidosPendientes"`
	LowStock       int             `json:"productosStockCritico"`
}

// TabResponse pestaña abierta.
type TabResponse struct {
	ID      string          `json:"id"`
	Session SessionResponse `json:"session"`
}

// OpenTabRequest apertura de pestaña; Token restaura una sesión previa.
type OpenTabRequest struct {
	Token string `json:"token"`
}
