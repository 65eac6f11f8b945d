package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/application/dto"
)

// CategoryHandler categorías del catálogo.
type CategoryHandler struct {
	log zerolog.Logger
}

// NewCategoryHandler construye el handler.
func NewCategoryHandler(log zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{log: log}
}

// List categorías con su cantidad de productos.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	out, err := GetTab(c).Categories.List(c.Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(in.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "nombre es requerido"})
	}
	out, err := GetTab(c).Categories.Create(c.Context(), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Delete solo si ningún producto la usa (409 en otro caso).
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	if err := GetTab(c).Categories.Delete(c.Context(), id); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
