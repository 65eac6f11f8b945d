package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
)

// Claves del almacenamiento compartido (una colección JSON por clave).
const (
	KeyUsers      = "users"
	KeyProducts   = "products"
	KeyOrders     = "orders"
	KeyCategories = "categories"
)

// SharedKeys claves cuyos cambios se sincronizan entre pestañas.
var SharedKeys = []string{KeyUsers, KeyProducts, KeyOrders, KeyCategories}

// IsSharedKey indica si key es una de las colecciones compartidas.
func IsSharedKey(key string) bool {
	for _, k := range SharedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Record entidad identificable por ID numérico.
type Record interface {
	GetID() int64
}

// Collection CRUD sobre un arreglo JSON guardado completo bajo una clave. Cada operación
// lee y reescribe el arreglo entero: sin transacciones, la última escritura gana.
type Collection[T Record] struct {
	st  storage.Storage
	key string
	log zerolog.Logger
}

// NewCollection construye la colección sobre la clave key.
func NewCollection[T Record](st storage.Storage, key string, log zerolog.Logger) *Collection[T] {
	return &Collection[T]{st: st, key: key, log: log}
}

// Key clave de almacenamiento.
func (c *Collection[T]) Key() string { return c.key }

// All devuelve todos los registros. Clave ausente o JSON corrupto equivalen a colección vacía;
// solo los errores del backend se propagan.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	raw, ok, err := c.st.GetItem(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("leer colección %s: %w", c.key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("colección corrupta, se trata como vacía")
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// ReplaceAll reescribe la colección completa.
func (c *Collection[T]) ReplaceAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("serializar colección %s: %w", c.key, err)
	}
	if err := c.st.SetItem(ctx, c.key, string(raw)); err != nil {
		return fmt.Errorf("guardar colección %s: %w", c.key, err)
	}
	return nil
}

// Create agrega item al final.
func (c *Collection[T]) Create(ctx context.Context, item T) error {
	items, err := c.All(ctx)
	if err != nil {
		return err
	}
	return c.ReplaceAll(ctx, append(items, item))
}

// Update reemplaza el registro con el mismo ID. Si no existe no hace nada y devuelve false.
func (c *Collection[T]) Update(ctx context.Context, item T) (bool, error) {
	items, err := c.All(ctx)
	if err != nil {
		return false, err
	}
	for i := range items {
		if items[i].GetID() == item.GetID() {
			items[i] = item
			return true, c.ReplaceAll(ctx, items)
		}
	}
	return false, nil
}

// Delete quita el registro con id. Si no existe no hace nada y devuelve false.
func (c *Collection[T]) Delete(ctx context.Context, id int64) (bool, error) {
	items, err := c.All(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if it.GetID() != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	return true, c.ReplaceAll(ctx, kept)
}

// Find primer registro que cumple pred.
func (c *Collection[T]) Find(ctx context.Context, pred func(T) bool) (T, bool, error) {
	var zero T
	items, err := c.All(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, it := range items {
		if pred(it) {
			return it, true, nil
		}
	}
	return zero, false, nil
}

// FindByID registro con el id dado.
func (c *Collection[T]) FindByID(ctx context.Context, id int64) (T, bool, error) {
	return c.Find(ctx, func(it T) bool { return it.GetID() == id })
}

// Filter registros que cumplen pred, en el orden guardado.
func (c *Collection[T]) Filter(ctx context.Context, pred func(T) bool) ([]T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

// MaxID mayor ID presente (0 si está vacía).
func (c *Collection[T]) MaxID(ctx context.Context) (int64, error) {
	items, err := c.All(ctx)
	if err != nil {
		return 0, err
	}
	var maxID int64
	for _, it := range items {
		if it.GetID() > maxID {
			maxID = it.GetID()
		}
	}
	return maxID, nil
}

func toPtrs[T any](items []T) []*T {
	out := make([]*T, 0, len(items))
	for i := range items {
		out = append(out, &items[i])
	}
	return out
}

func fromPtrs[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, *it)
		}
	}
	return out
}

// found convierte el resultado de Find al contrato de los repositorios: (nil, nil) si no existe.
func found[T any](v T, ok bool, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &v, nil
}
