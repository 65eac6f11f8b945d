package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/application/usecase"
	"github.com/jhoicas/maxigas/internal/tab"
)

// TabManager apertura y cierre de pestañas.
type TabManager interface {
	TabLookup
	Open(ctx context.Context, token string) (*tab.Tab, error)
	Close(id string) bool
}

// TabHandler ciclo de vida de las pestañas.
type TabHandler struct {
	tabs TabManager
	log  zerolog.Logger
}

// NewTabHandler construye el handler.
func NewTabHandler(tabs TabManager, log zerolog.Logger) *TabHandler {
	return &TabHandler{tabs: tabs, log: log}
}

// Open godoc
// @Summary      Abrir pestaña
// @Description  Crea una pestaña nueva. Si se envía token se intenta restaurar esa sesión.
// @Tags         tabs
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenTabRequest  false  "token opcional"
// @Success      201   {object}  dto.TabResponse
// @Router       /api/tabs [post]
func (h *TabHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenTabRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	t, err := h.tabs.Open(c.Context(), in.Token)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TabResponse{ID: t.ID, Session: session(c.Context(), t)})
}

// Current pestaña de la petición y su sesión.
func (h *TabHandler) Current(c *fiber.Ctx) error {
	t := GetTab(c)
	return c.JSON(dto.TabResponse{ID: t.ID, Session: session(c.Context(), t)})
}

// Close cierra la pestaña de la petición: descarta su sesión y su carrito.
func (h *TabHandler) Close(c *fiber.Ctx) error {
	h.tabs.Close(GetTab(c).ID)
	return c.SendStatus(fiber.StatusNoContent)
}

func session(ctx context.Context, t *tab.Tab) dto.SessionResponse {
	u := t.Session.CurrentUser()
	if u == nil {
		return dto.SessionResponse{}
	}
	token, _ := t.Session.Token(ctx)
	return dto.SessionResponse{Token: token, Authenticated: true, User: usecase.ToUserResponse(u)}
}
