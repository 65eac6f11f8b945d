package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/tab"
)

// HeaderTabID cabecera con el ID de la pestaña que hace la petición.
const HeaderTabID = "X-Tab-ID"

// Locals key para la pestaña resuelta.
const LocalTab = "tab"

// TabLookup resuelve pestañas abiertas por ID.
type TabLookup interface {
	Get(id string) (*tab.Tab, bool)
}

// TabMiddleware resuelve X-Tab-ID a la pestaña y la deja en c.Locals.
func TabMiddleware(tabs TabLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderTabID)
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TAB", Message: "cabecera " + HeaderTabID + " requerida"})
		}
		t, ok := tabs.Get(id)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNKNOWN_TAB", Message: "pestaña inexistente o cerrada"})
		}
		c.Locals(LocalTab, t)
		return c.Next()
	}
}

// GetTab devuelve la pestaña del contexto (después de TabMiddleware).
func GetTab(c *fiber.Ctx) *tab.Tab {
	t, _ := c.Locals(LocalTab).(*tab.Tab)
	return t
}

// CurrentUser usuario en sesión de la pestaña; nil sin sesión.
func CurrentUser(c *fiber.Ctx) *entity.User {
	t := GetTab(c)
	if t == nil {
		return nil
	}
	return t.Session.CurrentUser()
}

// RequireAuth exige una sesión en la pestaña.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "inicie sesión"})
		}
		return c.Next()
	}
}

// RequireRole exige que el usuario en sesión tenga alguno de roles.
// Debe usarse DESPUÉS de TabMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "inicie sesión"})
		}
		for _, r := range roles {
			if u.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "el rol '" + u.Role + "' no tiene acceso a este recurso",
		})
	}
}
