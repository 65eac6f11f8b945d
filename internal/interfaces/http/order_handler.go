package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/application/auth"
	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/domain"
	"github.com/jhoicas/maxigas/internal/domain/entity"
)

// OrderHandler pedidos del cliente, del repartidor y de administración.
type OrderHandler struct {
	receipts ports.ReceiptGenerator
	log      zerolog.Logger
}

// NewOrderHandler construye el handler. receipts puede ser nil: el comprobante responde 404.
func NewOrderHandler(receipts ports.ReceiptGenerator, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{receipts: receipts, log: log}
}

// Checkout godoc
// @Summary      Confirmar pedido
// @Description  Convierte el carrito de la pestaña en un pedido Pendiente y descuenta stock.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Tab-ID  header  string  true  "pestaña"
// @Param        body  body  dto.CheckoutRequest  true  "despacho y pago"
// @Success      201   {object}  entity.Order
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t := GetTab(c)
	order, err := t.Orders.Checkout(c.Context(), t.Session.CurrentUser(), t.Cart, in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// Mine pedidos del cliente en sesión.
func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	u := CurrentUser(c)
	if u == nil {
		return fail(c, h.log, domain.ErrUnauthorized)
	}
	out, err := GetTab(c).Orders.ListByCustomer(c.Context(), u.ID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(orEmpty(out))
}

// List todos los pedidos, filtro opcional ?estado=.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	out, err := GetTab(c).Orders.List(c.Context(), entity.OrderStatus(c.Query("estado")))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(orEmpty(out))
}

// Assign asigna (o reasigna) un repartidor.
func (h *OrderHandler) Assign(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var in dto.AssignOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := GetTab(c).Orders.Assign(c.Context(), id, in.DriverID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}

// Cancel cancela un pedido Pendiente. Si el pedido está en otro estado responde 409.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	number := c.Params("numero")
	t := GetTab(c)
	ok, err := t.Orders.Cancel(c.Context(), number)
	if err != nil {
		return fail(c, h.log, err)
	}
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATUS", Message: "solo se cancelan pedidos pendientes"})
	}
	out, err := t.Orders.GetByNumber(c.Context(), number)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Comprobante de pedido
// @Description  PDF del pedido. Lo ven su cliente, el repartidor asignado y los administradores.
// @Tags         orders
// @Produce      application/pdf
// @Param        X-Tab-ID  header  string  true  "pestaña"
// @Param        numero    path    string  true  "número de pedido"
// @Success      200
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders/{numero}/receipt [get]
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	if h.receipts == nil {
		return notFound(c, "comprobantes no disponibles")
	}
	order, err := GetTab(c).Orders.ForViewer(c.Context(), CurrentUser(c), c.Params("numero"))
	if err != nil {
		return fail(c, h.log, err)
	}
	doc, err := h.receipts.OrderReceipt(c.Context(), order)
	if err != nil {
		return fail(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", order.Number+".pdf"))
	return c.Send(doc)
}

// Deliveries pedidos asignados al repartidor en sesión.
func (h *OrderHandler) Deliveries(c *fiber.Ctx) error {
	u := CurrentUser(c)
	if u == nil {
		return fail(c, h.log, domain.ErrUnauthorized)
	}
	out, err := GetTab(c).Orders.ListByDriver(c.Context(), u.ID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(orEmpty(out))
}

// StartRoute Asignado -> En Ruta.
func (h *OrderHandler) StartRoute(c *fiber.Ctx) error {
	out, err := GetTab(c).Orders.StartRoute(c.Context(), CurrentUser(c), c.Params("numero"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}

// Deliver En Ruta -> Entregado.
func (h *OrderHandler) Deliver(c *fiber.Ctx) error {
	out, err := GetTab(c).Orders.Deliver(c.Context(), CurrentUser(c), c.Params("numero"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}

// Availability el repartidor marca si está disponible para recibir pedidos.
func (h *OrderHandler) Availability(c *fiber.Ctx) error {
	var in dto.AvailabilityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t := GetTab(c)
	available := in.Available
	if err := t.Session.UpdateProfile(c.Context(), auth.ProfileUpdate{Available: &available}); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(session(c.Context(), t))
}

func orEmpty(orders []*entity.Order) []*entity.Order {
	if orders == nil {
		return []*entity.Order{}
	}
	return orders
}
