// Package cart mantiene el carrito de la pestaña para el usuario en sesión.
package cart

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/domain"
	"github.com/jhoicas/maxigas/internal/domain/entity"
)

// ProductReader lectura del stock vigente.
type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
}

// Store carritos en el área privada de la pestaña, uno por usuario.
type Store interface {
	Cart(ctx context.Context, userID int64) ([]entity.CartItem, error)
	SaveCart(ctx context.Context, userID int64, items []entity.CartItem) error
	ClearCart(ctx context.Context, userID int64) error
}

// Session entrega el usuario en sesión de la pestaña (nil sin sesión).
type Session interface {
	CurrentUser() *entity.User
}

// Manager carrito de la pestaña. Nunca deja una cantidad por encima del stock conocido.
type Manager struct {
	products ProductReader
	store    Store
	session  Session
	log      zerolog.Logger

	mu sync.Mutex
}

// NewManager construye el carrito de la pestaña.
func NewManager(products ProductReader, store Store, session Session, log zerolog.Logger) *Manager {
	return &Manager{products: products, store: store, session: session, log: log}
}

// Add suma una unidad de product. Si ya está en el carrito solo incrementa mientras la cantidad
// sea menor al stock; si no, lo agrega con cantidad 1. Devuelve ErrInsufficientStock sin tocar
// el carrito cuando no hay stock, y ErrUnauthorized sin sesión.
func (m *Manager) Add(ctx context.Context, product *entity.Product) error {
	uid, err := m.userID()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.store.Cart(ctx, uid)
	if err != nil {
		return err
	}
	if i := indexOf(items, product.ID); i >= 0 {
		if items[i].Quantity >= product.Stock {
			m.log.Debug().Int64("productId", product.ID).Int("stock", product.Stock).Msg("no hay suficiente stock")
			return domain.ErrInsufficientStock
		}
		items[i].Quantity++
	} else {
		if product.Stock <= 0 {
			return domain.ErrInsufficientStock
		}
		items = append(items, entity.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  1,
		})
	}
	return m.store.SaveCart(ctx, uid, items)
}

// UpdateQuantity suma delta a la cantidad del producto. Si el resultado es <= 0 quita el ítem;
// si supera el stock vigente del catálogo devuelve ErrInsufficientStock sin cambios.
func (m *Manager) UpdateQuantity(ctx context.Context, productID int64, delta int) error {
	uid, err := m.userID()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.store.Cart(ctx, uid)
	if err != nil {
		return err
	}
	i := indexOf(items, productID)
	if i < 0 {
		return domain.ErrNotFound
	}
	qty := items[i].Quantity + delta
	if qty <= 0 {
		return m.store.SaveCart(ctx, uid, append(items[:i], items[i+1:]...))
	}
	live, err := m.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if live != nil && qty > live.Stock {
		return domain.ErrInsufficientStock
	}
	items[i].Quantity = qty
	return m.store.SaveCart(ctx, uid, items)
}

// Remove quita el producto del carrito.
func (m *Manager) Remove(ctx context.Context, productID int64) error {
	uid, err := m.userID()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.store.Cart(ctx, uid)
	if err != nil {
		return err
	}
	if i := indexOf(items, productID); i >= 0 {
		return m.store.SaveCart(ctx, uid, append(items[:i], items[i+1:]...))
	}
	return nil
}

// Clear vacía el carrito.
func (m *Manager) Clear(ctx context.Context) error {
	uid, err := m.userID()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.ClearCart(ctx, uid)
}

// Items contenido del carrito; vacío sin sesión.
func (m *Manager) Items(ctx context.Context) ([]entity.CartItem, error) {
	uid, err := m.userID()
	if err != nil {
		return []entity.CartItem{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Cart(ctx, uid)
}

// Total Σ precio×cantidad.
func (m *Manager) Total(ctx context.Context) (decimal.Decimal, error) {
	items, err := m.Items(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return entity.SumItems(items), nil
}

// Count Σ cantidad.
func (m *Manager) Count(ctx context.Context) (int, error) {
	items, err := m.Items(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

// Quantity cantidad del producto en el carrito (0 si no está).
func (m *Manager) Quantity(ctx context.Context, productID int64) (int, error) {
	items, err := m.Items(ctx)
	if err != nil {
		return 0, err
	}
	if i := indexOf(items, productID); i >= 0 {
		return items[i].Quantity, nil
	}
	return 0, nil
}

// Contains indica si el producto está en el carrito.
func (m *Manager) Contains(ctx context.Context, productID int64) (bool, error) {
	q, err := m.Quantity(ctx, productID)
	return q > 0, err
}

func (m *Manager) userID() (int64, error) {
	u := m.session.CurrentUser()
	if u == nil {
		return 0, domain.ErrUnauthorized
	}
	return u.ID, nil
}

func indexOf(items []entity.CartItem, productID int64) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
