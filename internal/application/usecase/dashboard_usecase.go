package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
	"github.com/jhoicas/maxigas/pkg/clock"
)

// DashboardUseCase indicadores del día para el panel de administración.
type DashboardUseCase struct {
	orders   repository.OrderRepository
	users    repository.UserRepository
	products repository.ProductRepository
	revenue  ports.RevenueQuery
	clock    clock.Clock
	loc      *time.Location
}

// NewDashboardUseCase construye el caso de uso. revenue puede ser nil: los ingresos se suman
// en memoria. loc define qué es "hoy" (nil = UTC).
func NewDashboardUseCase(orders repository.OrderRepository, users repository.UserRepository, products repository.ProductRepository, revenue ports.RevenueQuery, clk clock.Clock, loc *time.Location) *DashboardUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardUseCase{orders: orders, users: users, products: products, revenue: revenue, clock: clk, loc: loc}
}

// Summary pedidos de hoy, clientes, repartidores, ingresos de hoy (pedidos de hoy ya
// entregados), pedidos pendientes y productos en stock crítico.
func (uc *DashboardUseCase) Summary(ctx context.Context) (*dto.DashboardDTO, error) {
	now := uc.clock.Now().In(uc.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, uc.loc)
	to := from.AddDate(0, 0, 1)

	orders, err := uc.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}

	out := &dto.DashboardDTO{RevenueToday: decimal.Zero}
	for _, o := range orders {
		today := !o.CreatedAt.Before(from) && o.CreatedAt.Before(to)
		if today {
			out.OrdersToday++
			if o.Status == entity.OrderDelivered {
				out.RevenueToday = out.RevenueToday.Add(o.Total)
			}
		}
		if o.Status == entity.OrderPending {
			out.PendingOrders++
		}
	}
	for _, u := range users {
		switch u.Role {
		case entity.RoleCliente:
			out.TotalCustomers++
		case entity.RoleRepartidor:
			out.ActiveDrivers++
		}
	}
	for _, p := range products {
		if p.IsCritical() {
			out.LowStock++
		}
	}
	if uc.revenue != nil {
		rev, err := uc.revenue.DeliveredRevenue(ctx, from, to)
		if err != nil {
			return nil, err
		}
		out.RevenueToday = rev
	}
	return out, nil
}
