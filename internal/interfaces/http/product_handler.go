package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/application/dto"
)

// ProductHandler catálogo (lectura pública) y su administración.
type ProductHandler struct {
	log zerolog.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(log zerolog.Logger) *ProductHandler {
	return &ProductHandler{log: log}
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Produce      json
// @Param        X-Tab-ID   header  string  true   "pestaña"
// @Param        categoria  query   string  false  "categoría exacta"
// @Param        q          query   string  false  "texto (sin distinguir tildes)"
// @Success      200  {array}  entity.Product
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var f dto.ProductFilter
	if err := c.QueryParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "filtros inválidos"})
	}
	out, err := GetTab(c).Products.List(c.Context(), f)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Produce      json
// @Param        X-Tab-ID  header  string  true  "pestaña"
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  entity.Product
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	out, err := GetTab(c).Products.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	if out == nil {
		return notFound(c, "producto no encontrado")
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear producto
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        X-Tab-ID  header  string  true  "pestaña"
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  entity.Product
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/admin/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Category) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "nombre y categoria son requeridos"})
	}
	out, err := GetTab(c).Products.Create(c.Context(), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update edición parcial de un producto.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var in dto.UpdateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := GetTab(c).Products.Update(c.Context(), id, in)
	if err != nil {
		return fail(c, h.log, err)
	}
	if out == nil {
		return notFound(c, "producto no encontrado")
	}
	return c.JSON(out)
}

// Delete elimina un producto.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	if err := GetTab(c).Products.Delete(c.Context(), id); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddStock suma unidades al stock.
func (h *ProductHandler) AddStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var in dto.AddStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := GetTab(c).Products.AddStock(c.Context(), id, in.Quantity)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}

// LowStock productos en o bajo su stock crítico.
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	out, err := GetTab(c).Products.LowStock(c.Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}
