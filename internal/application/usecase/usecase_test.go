package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/application/usecase"
	"github.com/jhoicas/maxigas/internal/domain"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/infrastructure/localstore"
	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
	"github.com/jhoicas/maxigas/pkg/clock"
)

var now = time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)

type countingNotifier struct{ n int }

func (c *countingNotifier) TriggerSync() { c.n++ }

type memCart struct {
	items   []entity.CartItem
	cleared bool
}

func (m *memCart) Items(context.Context) ([]entity.CartItem, error) { return m.items, nil }
func (m *memCart) Clear(context.Context) error {
	m.items, m.cleared = nil, true
	return nil
}

type env struct {
	store      *localstore.Store
	clk        *clock.FakeClock
	notifier   *countingNotifier
	products   *usecase.ProductUseCase
	categories *usecase.CategoryUseCase
	orders     *usecase.OrderUseCase
	users      *usecase.UserUseCase
	dashboard  *usecase.DashboardUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := clock.Fake(now)
	st := localstore.NewStore(storage.NewMemoryHub().Tab("t"), localstore.NewIDGenerator(clk), zerolog.Nop())
	n := &countingNotifier{}
	return &env{
		store:      st,
		clk:        clk,
		notifier:   n,
		products:   usecase.NewProductUseCase(st.Products, st.Categories, n),
		categories: usecase.NewCategoryUseCase(st.Categories, st.Products, n),
		orders:     usecase.NewOrderUseCase(st.Orders, st.Users, st, n, clk, decimal.NewFromInt(usecase.DefaultShippingFee)),
		users:      usecase.NewUserUseCase(st.Users, n, clk),
		dashboard:  usecase.NewDashboardUseCase(st.Orders, st.Users, st.Products, nil, clk, nil),
	}
}

func (e *env) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.Categories.Create(ctx, &entity.Category{ID: 1, Name: "Gas Licuado"}))
	require.NoError(t, e.store.Categories.Create(ctx, &entity.Category{ID: 2, Name: "Accesorios"}))
	for _, p := range []entity.Product{
		{ID: 1, Name: "Cilindro 5 kg", Category: "Gas Licuado", Price: decimal.NewFromInt(8990), Stock: 50, CriticalStock: 10, Status: entity.ProductAvailable},
		{ID: 2, Name: "Cilindro 11 kg", Category: "Gas Licuado", Price: decimal.NewFromInt(16990), Stock: 3, CriticalStock: 20, Status: entity.ProductAvailable},
	} {
		p := p
		require.NoError(t, e.store.Products.Create(ctx, &p))
	}
}

func stockOf(t *testing.T, e *env, id int64) int {
	t.Helper()
	p, err := e.store.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

var checkoutIn = dto.CheckoutRequest{Address: "Av. Siempre Viva 742", Commune: "Ñuñoa", Phone: "+56911111111", PaymentMethod: "efectivo"}

func TestCheckout_TotalCongelado(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)
	customer := &entity.User{ID: 10, FirstName: "Ana", LastName: "Rojas", Role: entity.RoleCliente}
	cart := &memCart{items: []entity.CartItem{
		{ProductID: 1, Name: "Cilindro 5 kg", Price: decimal.NewFromInt(8990), Quantity: 2},
		{ProductID: 2, Name: "Cilindro 11 kg", Price: decimal.NewFromInt(16990), Quantity: 1},
	}}

	order, err := e.orders.Checkout(ctx, customer, cart, checkoutIn)
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(2*8990+16990)))
	assert.True(t, order.Shipping.Equal(decimal.NewFromInt(2990)))
	assert.True(t, order.Total.Equal(order.Subtotal.Add(order.Shipping)))
	assert.True(t, order.Subtotal.Equal(entity.SumItems(order.Items)))
	assert.Equal(t, entity.OrderPending, order.Status)
	assert.Equal(t, "PED-"+decimal.NewFromInt(order.ID).String(), order.Number)
	assert.Equal(t, "Ana Rojas", order.CustomerName)
	assert.True(t, cart.cleared)
	assert.Equal(t, 48, stockOf(t, e, 1))
	assert.Equal(t, 2, stockOf(t, e, 2))
	assert.Equal(t, 1, e.notifier.n)

	p, _ := e.store.Products.GetByID(ctx, 1)
	newPrice := decimal.NewFromInt(99990)
	_, err = e.products.Update(ctx, p.ID, dto.UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)

	stored, err := e.orders.GetByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.True(t, stored.Subtotal.Equal(entity.SumItems(stored.Items)), "el cambio de precio no altera el pedido")
	assert.True(t, stored.Total.Equal(stored.Subtotal.Add(stored.Shipping)))
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(8990)))
}

func TestCheckout_StockNoBajaDeCero(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)
	cart := &memCart{items: []entity.CartItem{{ProductID: 2, Price: decimal.NewFromInt(16990), Quantity: 5}}}

	_, err := e.orders.Checkout(ctx, &entity.User{ID: 1}, cart, checkoutIn)
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, e, 2))
	p, _ := e.store.Products.GetByID(ctx, 2)
	assert.Equal(t, entity.ProductSoldOut, p.Status)
}

func TestCheckout_Validaciones(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, err := e.orders.Checkout(ctx, &entity.User{ID: 1}, &memCart{}, checkoutIn)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	_, err = e.orders.Checkout(ctx, nil, &memCart{}, checkoutIn)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = e.orders.Checkout(ctx, &entity.User{ID: 1}, &memCart{items: []entity.CartItem{{ProductID: 1, Quantity: 1}}}, dto.CheckoutRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, e.notifier.n)
}

func TestCancel_DevuelveStockSoloDesdePendiente(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)
	cart := &memCart{items: []entity.CartItem{
		{ProductID: 1, Price: decimal.NewFromInt(8990), Quantity: 4},
		{ProductID: 2, Price: decimal.NewFromInt(16990), Quantity: 1},
	}}
	order, err := e.orders.Checkout(ctx, &entity.User{ID: 1}, cart, checkoutIn)
	require.NoError(t, err)
	require.Equal(t, 46, stockOf(t, e, 1))

	ok, err := e.orders.Cancel(ctx, order.Number)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 50, stockOf(t, e, 1))
	assert.Equal(t, 3, stockOf(t, e, 2))

	stored, _ := e.orders.GetByNumber(ctx, order.Number)
	assert.Equal(t, entity.OrderCancelled, stored.Status)
	require.NotNil(t, stored.CancelledAt)

	ok, err = e.orders.Cancel(ctx, order.Number)
	require.NoError(t, err)
	assert.False(t, ok, "cancelar dos veces no devuelve stock dos veces")
	assert.Equal(t, 50, stockOf(t, e, 1))

	_, err = e.orders.Cancel(ctx, "PED-0")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel_NoPendienteEsNoOp(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)
	require.NoError(t, e.store.Users.Create(ctx, &entity.User{ID: 9002, FirstName: "Juan", LastName: "Pérez", Role: entity.RoleRepartidor}))
	order, err := e.orders.Checkout(ctx, &entity.User{ID: 1}, &memCart{items: []entity.CartItem{{ProductID: 1, Price: decimal.NewFromInt(8990), Quantity: 2}}}, checkoutIn)
	require.NoError(t, err)
	_, err = e.orders.Assign(ctx, order.ID, 9002)
	require.NoError(t, err)

	ok, err := e.orders.Cancel(ctx, order.Number)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 48, stockOf(t, e, 1))
	stored, _ := e.orders.GetByNumber(ctx, order.Number)
	assert.Equal(t, entity.OrderAssigned, stored.Status)
}

func TestCicloDeEntrega(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)
	driver := &entity.User{ID: 9002, FirstName: "Juan", LastName: "Pérez", Role: entity.RoleRepartidor}
	other := &entity.User{ID: 9003, FirstName: "Pedro", Role: entity.RoleRepartidor}
	require.NoError(t, e.store.Users.Create(ctx, driver))
	require.NoError(t, e.store.Users.Create(ctx, other))
	require.NoError(t, e.store.Users.Create(ctx, &entity.User{ID: 5, Role: entity.RoleCliente}))

	order, err := e.orders.Checkout(ctx, &entity.User{ID: 5}, &memCart{items: []entity.CartItem{{ProductID: 1, Price: decimal.NewFromInt(8990), Quantity: 1}}}, checkoutIn)
	require.NoError(t, err)

	_, err = e.orders.StartRoute(ctx, driver, order.Number)
	assert.ErrorIs(t, err, domain.ErrForbidden, "no asignado todavía")

	_, err = e.orders.Assign(ctx, order.ID, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "solo repartidores")

	assigned, err := e.orders.Assign(ctx, order.ID, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", assigned.DriverName)
	assert.Equal(t, entity.OrderAssigned, assigned.Status)

	_, err = e.orders.Deliver(ctx, driver, order.Number)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	_, err = e.orders.StartRoute(ctx, other, order.Number)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	e.clk.Advance(10 * time.Minute)
	onRoute, err := e.orders.StartRoute(ctx, driver, order.Number)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderOnRoute, onRoute.Status)
	require.NotNil(t, onRoute.RouteStartAt)

	e.clk.Advance(20 * time.Minute)
	delivered, err := e.orders.Deliver(ctx, driver, order.Number)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderDelivered, delivered.Status)
	assert.Equal(t, now.Add(30*time.Minute), *delivered.DeliveredAt)

	_, err = e.orders.Assign(ctx, order.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	mine, err := e.orders.ListByDriver(ctx, driver.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	delivered2, err := e.orders.List(ctx, entity.OrderDelivered)
	require.NoError(t, err)
	assert.Len(t, delivered2, 1)
	_, err = e.orders.List(ctx, "Perdido")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestForViewer_Permisos(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)
	driver := &entity.User{ID: 9002, FirstName: "Juan", Role: entity.RoleRepartidor}
	require.NoError(t, e.store.Users.Create(ctx, driver))
	customer := &entity.User{ID: 5, Role: entity.RoleCliente}
	order, err := e.orders.Checkout(ctx, customer, &memCart{items: []entity.CartItem{{ProductID: 1, Price: decimal.NewFromInt(8990), Quantity: 1}}}, checkoutIn)
	require.NoError(t, err)

	got, err := e.orders.ForViewer(ctx, customer, order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = e.orders.ForViewer(ctx, &entity.User{ID: 6, Role: entity.RoleCliente}, order.Number)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.orders.ForViewer(ctx, driver, order.Number)
	assert.ErrorIs(t, err, domain.ErrForbidden, "repartidor no asignado")

	_, err = e.orders.Assign(ctx, order.ID, driver.ID)
	require.NoError(t, err)
	_, err = e.orders.ForViewer(ctx, driver, order.Number)
	assert.NoError(t, err)

	_, err = e.orders.ForViewer(ctx, &entity.User{ID: 1, Role: entity.RoleAdmin}, order.Number)
	assert.NoError(t, err)
	_, err = e.orders.ForViewer(ctx, &entity.User{ID: 1, Role: entity.RoleAdmin}, "PED-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.orders.ForViewer(ctx, nil, order.Number)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestProductos_CRUDYBusqueda(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)

	_, err := e.products.Create(ctx, dto.CreateProductRequest{Name: "Válvula", Category: "Inexistente", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := e.products.Create(ctx, dto.CreateProductRequest{
		Name: "Válvula reguladora", Category: "accesorios", Description: "Repuesto",
		Price: decimal.NewFromInt(5990), Stock: 0, CriticalStock: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Accesorios", p.Category)
	assert.Equal(t, entity.ProductSoldOut, p.Status)

	found, err := e.products.List(ctx, dto.ProductFilter{Query: "VALVULA"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p.ID, found[0].ID)

	gas, err := e.products.List(ctx, dto.ProductFilter{Category: "gas licuado"})
	require.NoError(t, err)
	assert.Len(t, gas, 2)

	updated, err := e.products.AddStock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Stock)
	assert.Equal(t, entity.ProductAvailable, updated.Status)
	_, err = e.products.AddStock(ctx, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	low, err := e.products.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(2), low[0].ID)

	missing, err := e.products.Update(ctx, 999, dto.UpdateProductRequest{})
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, e.products.Delete(ctx, p.ID))
	assert.ErrorIs(t, e.products.Delete(ctx, p.ID), domain.ErrNotFound)
	assert.Equal(t, 3, e.notifier.n)
}

func TestCategorias_NoSeEliminanConProductos(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)

	_, err := e.categories.Create(ctx, dto.CreateCategoryRequest{Name: "gas licuado"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	cats, err := e.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, 2, cats[0].ProductCount)
	assert.Equal(t, 0, cats[1].ProductCount)

	assert.ErrorIs(t, e.categories.Delete(ctx, 1), domain.ErrConflict)
	require.NoError(t, e.categories.Delete(ctx, 2))
	assert.ErrorIs(t, e.categories.Delete(ctx, 2), domain.ErrNotFound)
}

func TestUsuarios_Administracion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.store.Users.Create(ctx, &entity.User{ID: 9001, Email: "admin@maxigas.cl", Rut: "11.111.111-1", Role: entity.RoleAdmin}))

	driver, err := e.users.Create(ctx, dto.CreateUserRequest{
		RegisterRequest: dto.RegisterRequest{FirstName: "Juan", Email: "rep@maxigas.cl", Rut: "22.222.222-2", Password: "Repartidor123"},
		Role:            entity.RoleRepartidor,
	})
	require.NoError(t, err)
	require.NotNil(t, driver.Available)
	assert.True(t, *driver.Available)

	_, err = e.users.Create(ctx, dto.CreateUserRequest{RegisterRequest: dto.RegisterRequest{Email: "rep@maxigas.cl", Rut: "1-9", Password: "x"}})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	_, err = e.users.Create(ctx, dto.CreateUserRequest{RegisterRequest: dto.RegisterRequest{Email: "n@maxigas.cl", Rut: "22222222-2", Password: "x"}})
	assert.ErrorIs(t, err, domain.ErrRutAlreadyExists)

	busy, err := e.users.SetAvailability(ctx, driver.ID, false)
	require.NoError(t, err)
	assert.False(t, *busy.Available)
	_, err = e.users.SetAvailability(ctx, 9001, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	drivers, err := e.users.List(ctx, entity.RoleRepartidor)
	require.NoError(t, err)
	assert.Len(t, drivers, 1)

	assert.ErrorIs(t, e.users.Delete(ctx, 9001), domain.ErrProtectedUser)
	require.NoError(t, e.users.Delete(ctx, driver.ID))
	assert.ErrorIs(t, e.users.Delete(ctx, driver.ID), domain.ErrNotFound)
}

func TestDashboard_Resumen(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedCatalog(t)
	driver := &entity.User{ID: 9002, Role: entity.RoleRepartidor}
	require.NoError(t, e.store.Users.Create(ctx, driver))
	require.NoError(t, e.store.Users.Create(ctx, &entity.User{ID: 1, Role: entity.RoleCliente}))
	require.NoError(t, e.store.Users.Create(ctx, &entity.User{ID: 2, Role: entity.RoleCliente}))
	require.NoError(t, e.store.Orders.Create(ctx, &entity.Order{ID: 1, Number: "PED-1", Status: entity.OrderDelivered,
		Total: decimal.NewFromInt(50000), CreatedAt: now.AddDate(0, 0, -1)}))

	cart := &memCart{items: []entity.CartItem{{ProductID: 1, Price: decimal.NewFromInt(8990), Quantity: 1}}}
	delivered, err := e.orders.Checkout(ctx, &entity.User{ID: 1}, cart, checkoutIn)
	require.NoError(t, err)
	_, err = e.orders.Assign(ctx, delivered.ID, driver.ID)
	require.NoError(t, err)
	_, err = e.orders.StartRoute(ctx, driver, delivered.Number)
	require.NoError(t, err)
	_, err = e.orders.Deliver(ctx, driver, delivered.Number)
	require.NoError(t, err)

	cart.items = []entity.CartItem{{ProductID: 1, Price: decimal.NewFromInt(8990), Quantity: 1}}
	_, err = e.orders.Checkout(ctx, &entity.User{ID: 2}, cart, checkoutIn)
	require.NoError(t, err)

	sum, err := e.dashboard.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.OrdersToday)
	assert.Equal(t, 2, sum.TotalCustomers)
	assert.Equal(t, 1, sum.ActiveDrivers)
	assert.Equal(t, 1, sum.PendingOrders)
	assert.Equal(t, 1, sum.LowStock)
	assert.True(t, sum.RevenueToday.Equal(decimal.NewFromInt(8990+2990)), sum.RevenueToday.String())
}
