package storage

import (
	"context"
	"sync"
)

var (
	_ Hub     = (*MemoryHub)(nil)
	_ Shared  = (*memoryTab)(nil)
	_ Storage = (*Private)(nil)
	_ Batcher = (*Private)(nil)
)

// MemoryHub almacenamiento compartido en memoria del proceso. Cada pestaña obtiene un handle
// con Tab; las escrituras de un handle se notifican a los watchers de los demás.
type MemoryHub struct {
	mu   sync.RWMutex
	data map[string]string

	wmu      sync.Mutex
	watchers map[uint64]memoryWatcher
	nextID   uint64
}

type memoryWatcher struct {
	origin string
	fn     func(Event)
}

// NewMemoryHub crea un hub vacío.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		data:     make(map[string]string),
		watchers: make(map[uint64]memoryWatcher),
	}
}

// Tab devuelve el handle de la pestaña origin.
func (h *MemoryHub) Tab(origin string) Shared {
	return &memoryTab{hub: h, origin: origin}
}

func (h *MemoryHub) get(key string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.data[key]
	return v, ok
}

// write aplica los cambios bajo lock y notifica fuera del lock solo las claves que cambiaron.
// Un valor nil en items significa borrar la clave.
func (h *MemoryHub) write(origin string, items map[string]*string) {
	changed := make([]string, 0, len(items))
	h.mu.Lock()
	for k, v := range items {
		old, existed := h.data[k]
		if v == nil {
			if existed {
				delete(h.data, k)
				changed = append(changed, k)
			}
			continue
		}
		if !existed || old != *v {
			h.data[k] = *v
			changed = append(changed, k)
		}
	}
	h.mu.Unlock()

	if len(changed) > 0 {
		h.broadcast(origin, changed)
	}
}

func (h *MemoryHub) broadcast(origin string, keys []string) {
	h.wmu.Lock()
	targets := make([]func(Event), 0, len(h.watchers))
	for _, w := range h.watchers {
		if w.origin != origin {
			targets = append(targets, w.fn)
		}
	}
	h.wmu.Unlock()

	for _, fn := range targets {
		for _, k := range keys {
			fn(Event{Key: k, Origin: origin})
		}
	}
}

func (h *MemoryHub) watch(origin string, fn func(Event)) func() {
	h.wmu.Lock()
	h.nextID++
	id := h.nextID
	h.watchers[id] = memoryWatcher{origin: origin, fn: fn}
	h.wmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.wmu.Lock()
			delete(h.watchers, id)
			h.wmu.Unlock()
		})
	}
}

type memoryTab struct {
	hub    *MemoryHub
	origin string
}

func (t *memoryTab) Origin() string { return t.origin }

func (t *memoryTab) GetItem(_ context.Context, key string) (string, bool, error) {
	v, ok := t.hub.get(key)
	return v, ok, nil
}

func (t *memoryTab) SetItem(_ context.Context, key, value string) error {
	t.hub.write(t.origin, map[string]*string{key: &value})
	return nil
}

func (t *memoryTab) RemoveItem(_ context.Context, key string) error {
	t.hub.write(t.origin, map[string]*string{key: nil})
	return nil
}

func (t *memoryTab) SetItems(_ context.Context, items map[string]string) error {
	batch := make(map[string]*string, len(items))
	for k, v := range items {
		v := v
		batch[k] = &v
	}
	t.hub.write(t.origin, batch)
	return nil
}

func (t *memoryTab) Watch(fn func(Event)) func() {
	return t.hub.watch(t.origin, fn)
}

// Private almacenamiento privado de una pestaña: no se comparte ni emite eventos y se
// descarta al cerrar la pestaña.
type Private struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewPrivate crea un área privada vacía.
func NewPrivate() *Private {
	return &Private{data: make(map[string]string)}
}

func (p *Private) GetItem(_ context.Context, key string) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	return v, ok, nil
}

func (p *Private) SetItem(_ context.Context, key, value string) error {
	p.mu.Lock()
	p.data[key] = value
	p.mu.Unlock()
	return nil
}

func (p *Private) RemoveItem(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.data, key)
	p.mu.Unlock()
	return nil
}

func (p *Private) SetItems(_ context.Context, items map[string]string) error {
	p.mu.Lock()
	for k, v := range items {
		p.data[k] = v
	}
	p.mu.Unlock()
	return nil
}

// Clear borra todo el contenido (cierre de pestaña).
func (p *Private) Clear() {
	p.mu.Lock()
	p.data = make(map[string]string)
	p.mu.Unlock()
}

// Keys devuelve las claves presentes.
func (p *Private) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.data))
	for k := range p.data {
		keys = append(keys, k)
	}
	return keys
}
