package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
)

var _ storage.Hub = (*KVHub)(nil)

const upsertSQL = `
INSERT INTO kv_store (key, value, origin, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key) DO UPDATE
    SET value = EXCLUDED.value, origin = EXCLUDED.origin, updated_at = now()
    WHERE kv_store.value IS DISTINCT FROM EXCLUDED.value
RETURNING key`

// change payload de cada NOTIFY.
type change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

type kvWatcher struct {
	origin string
	fn     func(storage.Event)
}

// KVHub almacenamiento compartido sobre la tabla kv_store. Cada escritura que cambia un valor
// emite NOTIFY en la misma transacción; Listen reparte esos avisos a las pestañas de este
// proceso, salvo a la que escribió. Así varios procesos sobre la misma base ven los cambios
// de los demás.
type KVHub struct {
	pool *pgxpool.Pool
	log  zerolog.Logger

	mu       sync.RWMutex
	watchers map[uint64]kvWatcher
	nextID   uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewKVHub construye el hub. Llamar Listen para recibir cambios.
func NewKVHub(pool *pgxpool.Pool, log zerolog.Logger) *KVHub {
	return &KVHub{pool: pool, log: log, watchers: make(map[uint64]kvWatcher)}
}

// Listen arranca la escucha de cambios en segundo plano hasta Close. Si la conexión de
// escucha se cae se reintenta cada segundo.
func (h *KVHub) Listen(ctx context.Context) error {
	conn, err := h.listenConn(ctx)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	go h.loop(runCtx, conn)
	return nil
}

// Close detiene la escucha.
func (h *KVHub) Close() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

func (h *KVHub) listenConn(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv listen acquire: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("kv listen: %w", err)
	}
	return conn, nil
}

func (h *KVHub) loop(ctx context.Context, conn *pgxpool.Conn) {
	defer close(h.done)
	for {
		err := h.receive(ctx, conn)
		// la conexión quedó con LISTEN activo: se cierra para que el pool la descarte
		_ = conn.Conn().Close(context.Background())
		conn.Release()
		if ctx.Err() != nil {
			return
		}
		h.log.Warn().Err(err).Msg("escucha de kv_store interrumpida, reintentando")

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			if conn, err = h.listenConn(ctx); err == nil {
				break
			}
			h.log.Warn().Err(err).Msg("no se pudo reabrir la escucha")
		}
	}
}

func (h *KVHub) receive(ctx context.Context, conn *pgxpool.Conn) error {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := decodeChange(n.Payload)
		if err != nil {
			h.log.Warn().Err(err).Str("payload", n.Payload).Msg("aviso de kv_store ilegible")
			continue
		}
		h.dispatch(ev)
	}
}

func decodeChange(payload string) (storage.Event, error) {
	var c change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return storage.Event{}, err
	}
	if c.Key == "" {
		return storage.Event{}, errors.New("aviso sin clave")
	}
	return storage.Event{Key: c.Key, Origin: c.Origin}, nil
}

// dispatch entrega ev a todas las pestañas distintas de su origen.
func (h *KVHub) dispatch(ev storage.Event) {
	h.mu.RLock()
	targets := make([]func(storage.Event), 0, len(h.watchers))
	for _, w := range h.watchers {
		if w.origin != ev.Origin {
			targets = append(targets, w.fn)
		}
	}
	h.mu.RUnlock()
	for _, fn := range targets {
		fn(ev)
	}
}

func (h *KVHub) watch(origin string, fn func(storage.Event)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.watchers[id] = kvWatcher{origin: origin, fn: fn}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.watchers, id)
			h.mu.Unlock()
		})
	}
}

// Tab handle de la pestaña origin.
func (h *KVHub) Tab(origin string) storage.Shared {
	return &kvTab{hub: h, origin: origin}
}

type kvTab struct {
	hub    *KVHub
	origin string
}

func (t *kvTab) Origin() string { return t.origin }

func (t *kvTab) GetItem(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := t.hub.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv.GetItem %s: %w", key, err)
	}
	return v, true, nil
}

func (t *kvTab) SetItem(ctx context.Context, key, value string) error {
	return t.SetItems(ctx, map[string]string{key: value})
}

// SetItems escribe todas las claves en una sola transacción. Solo las claves cuyo valor
// cambió generan aviso.
func (t *kvTab) SetItems(ctx context.Context, items map[string]string) error {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	// orden fijo de bloqueo entre transacciones concurrentes
	sort.Strings(keys)

	return inTx(ctx, t.hub.pool, func(tx pgx.Tx) error {
		for _, k := range keys {
			var written string
			err := tx.QueryRow(ctx, upsertSQL, k, items[k], t.origin).Scan(&written)
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("kv.SetItems %s: %w", k, err)
			}
			if err := notify(ctx, tx, k, t.origin); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *kvTab) RemoveItem(ctx context.Context, key string) error {
	return inTx(ctx, t.hub.pool, func(tx pgx.Tx) error {
		var removed string
		err := tx.QueryRow(ctx, `DELETE FROM kv_store WHERE key = $1 RETURNING key`, key).Scan(&removed)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("kv.RemoveItem %s: %w", key, err)
		}
		return notify(ctx, tx, key, t.origin)
	})
}

func (t *kvTab) Watch(fn func(storage.Event)) func() {
	return t.hub.watch(t.origin, fn)
}

func notify(ctx context.Context, tx pgx.Tx, key, origin string) error {
	payload, err := json.Marshal(change{Key: key, Origin: origin})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(payload)); err != nil {
		return fmt.Errorf("kv notify %s: %w", key, err)
	}
	return nil
}
