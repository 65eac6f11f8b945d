package localstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
)

// Store agrupa los repositorios de las cuatro colecciones sobre un mismo almacenamiento.
type Store struct {
	st  storage.Storage
	ids *IDGenerator
	log zerolog.Logger

	Users      *UserRepo
	Products   *ProductRepo
	Orders     *OrderRepo
	Categories *CategoryRepo
}

// NewStore construye el almacén. ids debe compartirse entre todas las pestañas del proceso.
func NewStore(st storage.Storage, ids *IDGenerator, log zerolog.Logger) *Store {
	return &Store{
		st:         st,
		ids:        ids,
		log:        log,
		Users:      NewUserRepository(NewCollection[entity.User](st, KeyUsers, log), ids),
		Products:   NewProductRepository(NewCollection[entity.Product](st, KeyProducts, log), ids),
		Orders:     NewOrderRepository(NewCollection[entity.Order](st, KeyOrders, log), ids),
		Categories: NewCategoryRepository(NewCollection[entity.Category](st, KeyCategories, log), ids),
	}
}

// Run ejecuta fn con repos de productos y pedidos sobre un buffer de escritura y, si fn no
// falla, confirma todos los cambios juntos. Con un backend Batcher la confirmación es atómica;
// si fn devuelve error no se escribe nada.
func (s *Store) Run(ctx context.Context, fn func(
	products repository.ProductRepository,
	orders repository.OrderRepository,
) error) error {
	buf := newTxBuffer(s.st)
	products := NewProductRepository(NewCollection[entity.Product](buf, KeyProducts, s.log), s.ids)
	orders := NewOrderRepository(NewCollection[entity.Order](buf, KeyOrders, s.log), s.ids)

	if err := fn(products, orders); err != nil {
		return err
	}
	if err := buf.commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// txBuffer almacena escrituras pendientes; las lecturas ven primero lo pendiente.
type txBuffer struct {
	base    storage.Storage
	pending map[string]*string
}

func newTxBuffer(base storage.Storage) *txBuffer {
	return &txBuffer{base: base, pending: make(map[string]*string)}
}

func (b *txBuffer) GetItem(ctx context.Context, key string) (string, bool, error) {
	if v, ok := b.pending[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	return b.base.GetItem(ctx, key)
}

func (b *txBuffer) SetItem(_ context.Context, key, value string) error {
	b.pending[key] = &value
	return nil
}

func (b *txBuffer) RemoveItem(_ context.Context, key string) error {
	b.pending[key] = nil
	return nil
}

func (b *txBuffer) commit(ctx context.Context) error {
	sets := make(map[string]string, len(b.pending))
	for k, v := range b.pending {
		if v == nil {
			if err := b.base.RemoveItem(ctx, k); err != nil {
				return err
			}
			continue
		}
		sets[k] = *v
	}
	if len(sets) == 0 {
		return nil
	}
	if batch, ok := b.base.(storage.Batcher); ok {
		return batch.SetItems(ctx, sets)
	}
	for k, v := range sets {
		if err := b.base.SetItem(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
