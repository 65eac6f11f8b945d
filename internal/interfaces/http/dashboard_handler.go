package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// DashboardHandler indicadores del panel de administración.
type DashboardHandler struct {
	log zerolog.Logger
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{log: log}
}

// GetSummary pedidos de hoy, clientes, repartidores, ingresos del día, pendientes y stock crítico.
// GET /api/admin/dashboard
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := GetTab(c).Dashboard.Summary(c.Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(summary)
}
