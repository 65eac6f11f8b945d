package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/tab"
)

// CartHandler carrito de la pestaña.
type CartHandler struct {
	log zerolog.Logger
}

// NewCartHandler construye el handler.
func NewCartHandler(log zerolog.Logger) *CartHandler {
	return &CartHandler{log: log}
}

// Get carrito con subtotal, envío y total.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	return h.respond(c, GetTab(c))
}

// AddItem suma una unidad del producto; 409 si ya se alcanzó el stock.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddCartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t := GetTab(c)
	p, err := t.Products.GetByID(c.Context(), in.ProductID)
	if err != nil {
		return fail(c, h.log, err)
	}
	if p == nil {
		return notFound(c, "producto no encontrado")
	}
	if err := t.Cart.Add(c.Context(), p); err != nil {
		return fail(c, h.log, err)
	}
	return h.respond(c, t)
}

// UpdateItem cambia la cantidad en delta; llegar a 0 quita el ítem.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "productId")
	if !ok {
		return badID(c)
	}
	var in dto.UpdateCartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t := GetTab(c)
	if err := t.Cart.UpdateQuantity(c.Context(), id, in.Delta); err != nil {
		return fail(c, h.log, err)
	}
	return h.respond(c, t)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "productId")
	if !ok {
		return badID(c)
	}
	t := GetTab(c)
	if err := t.Cart.Remove(c.Context(), id); err != nil {
		return fail(c, h.log, err)
	}
	return h.respond(c, t)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := GetTab(c).Cart.Clear(c.Context()); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) respond(c *fiber.Ctx, t *tab.Tab) error {
	items, err := t.Cart.Items(c.Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	subtotal, err := t.Cart.Total(c.Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	count, err := t.Cart.Count(c.Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	if items == nil {
		items = []entity.CartItem{}
	}
	shipping := decimal.Zero
	if len(items) > 0 {
		shipping = t.Orders.Shipping()
	}
	return c.JSON(dto.CartResponse{
		Items:    items,
		Count:    count,
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	})
}
