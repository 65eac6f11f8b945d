package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/application/auth"
	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/pkg/clock"
	"github.com/jhoicas/maxigas/pkg/rut"
	"github.com/jhoicas/maxigas/pkg/validation"
)

// AuthHandler registro, login y perfil de la sesión de la pestaña.
type AuthHandler struct {
	clock clock.Clock
	log   zerolog.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(clk clock.Clock, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{clock: clk, log: log}
}

// Register godoc
// @Summary      Registrar cliente
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Tab-ID  header  string  true  "pestaña"
// @Param        body  body  dto.RegisterRequest  true  "datos del cliente"
// @Success      201   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ValidationErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if errs := validateRegister(in, h.clock); !errs.Empty() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Code: "VALIDATION", Message: "datos de registro inválidos", Fields: errs,
		})
	}
	t := GetTab(c)
	ok, err := t.Session.Register(c.Context(), auth.RegisterInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Rut:       rut.Format(in.Rut),
		BirthDate: in.BirthDate,
		Email:     strings.TrimSpace(in.Email),
		Password:  in.Password,
		Phone:     in.Phone,
		Address:   in.Address,
		Commune:   in.Commune,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_REGISTERED", Message: "el email o el RUT ya están registrados"})
	}
	return c.Status(fiber.StatusCreated).JSON(session(c.Context(), t))
}

// Login godoc
// @Summary      Iniciar sesión en la pestaña
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Tab-ID  header  string  true  "pestaña"
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.SessionResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Email == "" || in.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "email y password son requeridos"})
	}
	t := GetTab(c)
	ok, err := t.Session.Login(c.Context(), strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_CREDENTIALS", Message: "credenciales inválidas"})
	}
	return c.JSON(session(c.Context(), t))
}

// Logout cierra la sesión de la pestaña; las demás pestañas no se ven afectadas.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := GetTab(c).Session.Logout(c.Context()); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me sesión actual.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(session(c.Context(), GetTab(c)))
}

// UpdateMe edita el perfil del usuario en sesión.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	var in dto.UpdateProfileRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	errs := validation.Errors{}
	if in.FirstName != nil {
		errs.Add(validation.Text(*in.FirstName), "nombre", "solo letras, mínimo 2 caracteres")
	}
	if in.LastName != nil {
		errs.Add(validation.Text(*in.LastName), "apellidos", "solo letras, mínimo 2 caracteres")
	}
	if in.Email != nil {
		errs.Add(validation.Email(strings.TrimSpace(*in.Email)), "email", "email inválido")
	}
	if in.Phone != nil && *in.Phone != "" {
		errs.Add(validation.Phone(*in.Phone), "telefono", "formato +56 9 XXXX XXXX")
	}
	if in.Password != nil {
		errs.Add(validation.Password(*in.Password), "password", "mínimo 8 caracteres con mayúscula, minúscula y número")
	}
	if !errs.Empty() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Fields: errs})
	}

	t := GetTab(c)
	err := t.Session.UpdateProfile(c.Context(), auth.ProfileUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		Commune:   in.Commune,
		Photo:     in.Photo,
		Password:  in.Password,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(session(c.Context(), t))
}

func validateRegister(in dto.RegisterRequest, clk clock.Clock) validation.Errors {
	errs := validation.Errors{}
	errs.Add(validation.Text(in.FirstName), "nombre", "solo letras, mínimo 2 caracteres")
	errs.Add(validation.Text(in.LastName), "apellidos", "solo letras, mínimo 2 caracteres")
	errs.Add(rut.Validate(in.Rut) == nil, "rut", "RUT inválido")
	errs.Add(validation.Adult(in.BirthDate, clk.Now()), "fechaNacimiento", "debe ser mayor de 18 años")
	errs.Add(validation.Email(strings.TrimSpace(in.Email)), "email", "email inválido")
	errs.Add(validation.Password(in.Password), "password", "mínimo 8 caracteres con mayúscula, minúscula y número")
	if in.Phone != "" {
		errs.Add(validation.Phone(in.Phone), "telefono", "formato +56 9 XXXX XXXX")
	}
	return errs
}
