// Package tab compone una pestaña: almacenamiento privado, handle sobre el almacenamiento
// compartido, bus de sincronización, sesión, carrito y casos de uso.
package tab

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/application/auth"
	"github.com/jhoicas/maxigas/internal/application/cart"
	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/application/syncbus"
	"github.com/jhoicas/maxigas/internal/application/usecase"
	"github.com/jhoicas/maxigas/internal/infrastructure/localstore"
	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
	"github.com/jhoicas/maxigas/pkg/clock"
	"github.com/jhoicas/maxigas/pkg/jwt"
)

// Deps dependencias compartidas por todas las pestañas del proceso.
type Deps struct {
	Hub           storage.Hub
	IDs           *localstore.IDGenerator
	Tokens        *jwt.Service
	Clock         clock.Clock
	Log           zerolog.Logger
	Shipping      decimal.Decimal
	RenewInterval time.Duration
	IdleTTL       time.Duration // 0: las pestañas no se cierran por inactividad
	MaxTabs       int           // 0: sin tope
	Revenue       ports.RevenueQuery
	Location      *time.Location
}

// Tab una sesión de cliente independiente.
type Tab struct {
	ID      string
	Store   *localstore.Store
	Private *storage.Private
	Bus     *syncbus.Bus
	Session *auth.Coordinator
	Cart    *cart.Manager

	Products   *usecase.ProductUseCase
	Categories *usecase.CategoryUseCase
	Orders     *usecase.OrderUseCase
	Users      *usecase.UserUseCase
	Dashboard  *usecase.DashboardUseCase

	lastSeen  atomic.Int64 // unix ms
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func newTab(id string, d Deps) *Tab {
	log := d.Log.With().Str("tab", id).Logger()
	shared := d.Hub.Tab(id)
	private := storage.NewPrivate()
	area := localstore.NewTabArea(private, log.With().Str("component", "tab_area").Logger())
	store := localstore.NewStore(shared, d.IDs, log.With().Str("component", "localstore").Logger())
	bus := syncbus.New(shared, localstore.SharedKeys, log.With().Str("component", "syncbus").Logger())

	vault := auth.NewTokenVault(d.Tokens, area, log.With().Str("component", "token_vault").Logger())
	session := auth.NewCoordinator(store.Users, vault, area, bus, log.With().Str("component", "session").Logger(),
		auth.WithClock(d.Clock))

	return &Tab{
		ID:         id,
		Store:      store,
		Private:    private,
		Bus:        bus,
		Session:    session,
		Cart:       cart.NewManager(store.Products, area, session, log.With().Str("component", "cart").Logger()),
		Products:   usecase.NewProductUseCase(store.Products, store.Categories, bus),
		Categories: usecase.NewCategoryUseCase(store.Categories, store.Products, bus),
		Orders:     usecase.NewOrderUseCase(store.Orders, store.Users, store, bus, d.Clock, d.Shipping),
		Users:      usecase.NewUserUseCase(store.Users, bus, d.Clock),
		Dashboard:  usecase.NewDashboardUseCase(store.Orders, store.Users, store.Products, d.Revenue, d.Clock, d.Location),
		done:       make(chan struct{}),
	}
}

// start activa el bus, restaura la sesión desde token (si se entrega uno) y lanza la renovación.
func (t *Tab) start(ctx context.Context, token string, renew time.Duration) error {
	t.Bus.StartListening()
	if token != "" {
		if err := t.Private.SetItem(ctx, localstore.KeySessionToken, token); err != nil {
			return err
		}
	}
	if err := t.Session.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap pestaña %s: %w", t.ID, err)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go func() {
		defer close(t.done)
		t.Session.RunRenewal(runCtx, renew)
	}()
	return nil
}

// Close detiene la renovación y el bus y descarta el almacenamiento privado. Idempotente.
func (t *Tab) Close() {
	t.closeOnce.Do(func() {
		if t.cancel != nil {
			t.cancel()
			<-t.done
		}
		t.Session.Close()
		t.Bus.StopListening()
		t.Private.Clear()
	})
}

// LastSeen último acceso a la pestaña.
func (t *Tab) LastSeen() time.Time { return time.UnixMilli(t.lastSeen.Load()) }

func (t *Tab) touch(now time.Time) { t.lastSeen.Store(now.UnixMilli()) }

// NewID identificador de pestaña.
func NewID() string { return uuid.NewString() }
