// Package syncbus avisa a los componentes de una pestaña que los datos compartidos cambiaron,
// ya sea por escrituras de otras pestañas o de la propia.
package syncbus

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
)

// Bus entrega una señal "algo cambió" (sin detalle de qué) a los suscriptores de la pestaña.
//
// Los cambios de otras pestañas llegan por el Watcher del almacenamiento compartido, se filtran
// por clave y se encolan: varias señales pendientes se fusionan en una y se entregan desde la
// goroutine del bus. TriggerSync entrega en la goroutine que llama.
type Bus struct {
	watcher storage.Watcher
	keys    map[string]struct{}
	log     zerolog.Logger

	mu          sync.Mutex
	listening   bool
	cancelWatch func()
	pending     chan struct{}
	done        chan struct{}
	wg          sync.WaitGroup

	subMu  sync.Mutex
	subs   []subscriber
	nextID uint64

	notifications atomic.Int64
}

type subscriber struct {
	id uint64
	fn func()
}

// New construye un bus detenido. Solo los cambios en keys notifican a los suscriptores.
func New(watcher storage.Watcher, keys []string, log zerolog.Logger) *Bus {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &Bus{watcher: watcher, keys: set, log: log}
}

// StartListening instala la escucha. Llamarlo con el bus activo no hace nada.
func (b *Bus) StartListening() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listening {
		return
	}
	b.listening = true
	b.pending = make(chan struct{}, 1)
	b.done = make(chan struct{})
	b.cancelWatch = b.watcher.Watch(b.onStorageEvent)

	b.wg.Add(1)
	go b.loop(b.pending, b.done)
	b.log.Debug().Msg("sincronización de datos entre pestañas activada")
}

// StopListening quita la escucha y espera a que termine la entrega en curso. Idempotente.
// No debe llamarse desde un suscriptor.
func (b *Bus) StopListening() {
	b.mu.Lock()
	if !b.listening {
		b.mu.Unlock()
		return
	}
	b.listening = false
	cancel := b.cancelWatch
	b.cancelWatch = nil
	close(b.done)
	b.mu.Unlock()

	cancel()
	b.wg.Wait()
	b.log.Debug().Msg("sincronización de datos desactivada")
}

// Listening indica si el bus está activo.
func (b *Bus) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

// Subscribe registra fn y devuelve la función para desuscribirla. Registrar la misma función
// dos veces crea dos suscripciones independientes; cada desuscripción es idempotente.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	b.subMu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// TriggerSync anuncia un cambio hecho por esta pestaña. Con el bus detenido no hace nada.
func (b *Bus) TriggerSync() {
	if !b.Listening() {
		return
	}
	b.log.Debug().Msg("datos actualizados en esta pestaña")
	b.notify()
}

// Notifications cantidad de entregas realizadas (diagnóstico).
func (b *Bus) Notifications() int64 {
	return b.notifications.Load()
}

// Subscribers cantidad de suscripciones activas.
func (b *Bus) Subscribers() int {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) onStorageEvent(e storage.Event) {
	if _, ok := b.keys[e.Key]; !ok {
		return
	}
	b.mu.Lock()
	if !b.listening {
		b.mu.Unlock()
		return
	}
	ch := b.pending
	b.mu.Unlock()

	b.log.Debug().Str("key", e.Key).Str("origin", e.Origin).Msg("datos actualizados en otra pestaña")
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (b *Bus) loop(pending <-chan struct{}, done <-chan struct{}) {
	defer b.wg.Done()
	for {
		select {
		case <-done:
			return
		case <-pending:
			b.notify()
		}
	}
}

func (b *Bus) notify() {
	b.subMu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, s := range b.subs {
		fns = append(fns, s.fn)
	}
	b.subMu.Unlock()

	b.notifications.Add(1)
	for _, fn := range fns {
		b.call(fn)
	}
}

func (b *Bus) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg("error al ejecutar callback de sincronización")
		}
	}()
	fn()
}
