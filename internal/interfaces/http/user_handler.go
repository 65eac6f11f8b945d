package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/pkg/clock"
	"github.com/jhoicas/maxigas/pkg/rut"
)

// UserHandler administración de usuarios.
type UserHandler struct {
	clock clock.Clock
	log   zerolog.Logger
}

// NewUserHandler construye el handler.
func NewUserHandler(clk clock.Clock, log zerolog.Logger) *UserHandler {
	return &UserHandler{clock: clk, log: log}
}

// List usuarios, filtro opcional ?rol=.
func (h *UserHandler) List(c *fiber.Ctx) error {
	out, err := GetTab(c).Users.List(c.Context(), c.Query("rol"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	out, err := GetTab(c).Users.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	if out == nil {
		return notFound(c, "usuario no encontrado")
	}
	return c.JSON(out)
}

// Create alta con rol explícito; mismas validaciones que el registro público.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if errs := validateRegister(in.RegisterRequest, h.clock); !errs.Empty() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Code: "VALIDATION", Message: "datos de usuario inválidos", Fields: errs,
		})
	}
	in.Rut = rut.Format(in.Rut)
	out, err := GetTab(c).Users.Create(c.Context(), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var in dto.UpdateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := GetTab(c).Users.Update(c.Context(), id, in)
	if err != nil {
		return fail(c, h.log, err)
	}
	if out == nil {
		return notFound(c, "usuario no encontrado")
	}
	return c.JSON(out)
}

// Delete elimina un usuario; los administradores están protegidos.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	if err := GetTab(c).Users.Delete(c.Context(), id); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetAvailability disponibilidad de un repartidor fijada por el administrador.
func (h *UserHandler) SetAvailability(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var in dto.AvailabilityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := GetTab(c).Users.SetAvailability(c.Context(), id, in.Available)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(out)
}
