package syncbus_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/maxigas/internal/application/syncbus"
	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
)

var dataKeys = []string{"users", "products", "orders", "categories"}

const wait = time.Second

func setup(t *testing.T) (*syncbus.Bus, storage.Shared) {
	t.Helper()
	hub := storage.NewMemoryHub()
	bus := syncbus.New(hub.Tab("mine"), dataKeys, zerolog.Nop())
	bus.StartListening()
	t.Cleanup(bus.StopListening)
	return bus, hub.Tab("other")
}

func TestBus_CambiosDeDatosEnOtraPestanaNotifican(t *testing.T) {
	ctx := context.Background()
	bus, other := setup(t)
	var calls atomic.Int32
	bus.Subscribe(func() { calls.Add(1) })

	for i, key := range dataKeys {
		require.NoError(t, other.SetItem(ctx, key, "[]"))
		want := int32(i + 1)
		require.Eventually(t, func() bool { return calls.Load() == want }, wait, time.Millisecond, key)
	}
}

func TestBus_ClavesDeSesionNuncaNotifican(t *testing.T) {
	ctx := context.Background()
	bus, other := setup(t)
	var calls atomic.Int32
	bus.Subscribe(func() { calls.Add(1) })

	require.NoError(t, other.SetItem(ctx, "session_token", "a.b.c"))
	require.NoError(t, other.SetItem(ctx, "current_user", "{}"))
	require.NoError(t, other.SetItem(ctx, "cart_1", "[]"))

	assert.Never(t, func() bool { return calls.Load() > 0 }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestBus_TriggerSyncEntregaEnLaMismaPestana(t *testing.T) {
	bus, _ := setup(t)
	calls := 0
	bus.Subscribe(func() { calls++ })

	bus.TriggerSync()
	assert.Equal(t, 1, calls, "la entrega local es síncrona")
	assert.Equal(t, int64(1), bus.Notifications())
}

func TestBus_EscrituraPropiaNoLlegaPorElWatcher(t *testing.T) {
	hub := storage.NewMemoryHub()
	mine := hub.Tab("mine")
	bus := syncbus.New(mine, dataKeys, zerolog.Nop())
	bus.StartListening()
	defer bus.StopListening()
	var calls atomic.Int32
	bus.Subscribe(func() { calls.Add(1) })

	require.NoError(t, mine.SetItem(context.Background(), "orders", "[]"))
	assert.Never(t, func() bool { return calls.Load() > 0 }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestBus_SuscripcionesDuplicadasSonIndependientes(t *testing.T) {
	bus, _ := setup(t)
	calls := 0
	fn := func() { calls++ }
	unsub1 := bus.Subscribe(fn)
	unsub2 := bus.Subscribe(fn)

	bus.TriggerSync()
	assert.Equal(t, 2, calls)

	unsub1()
	unsub1()
	assert.Equal(t, 1, bus.Subscribers())
	bus.TriggerSync()
	assert.Equal(t, 3, calls)

	unsub2()
	bus.TriggerSync()
	assert.Equal(t, 3, calls)
}

func TestBus_PanicDeUnSuscriptorNoAfectaALosDemas(t *testing.T) {
	bus, _ := setup(t)
	calls := 0
	bus.Subscribe(func() { panic("boom") })
	bus.Subscribe(func() { calls++ })

	assert.NotPanics(t, bus.TriggerSync)
	assert.Equal(t, 1, calls)
}

func TestBus_StartStopIdempotentes(t *testing.T) {
	ctx := context.Background()
	hub := storage.NewMemoryHub()
	bus := syncbus.New(hub.Tab("mine"), dataKeys, zerolog.Nop())
	other := hub.Tab("other")

	bus.StartListening()
	bus.StartListening()
	assert.True(t, bus.Listening())

	var calls atomic.Int32
	bus.Subscribe(func() { calls.Add(1) })
	require.NoError(t, other.SetItem(ctx, "products", "[1]"))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, wait, time.Millisecond,
		"un solo watcher instalado: una sola entrega")

	bus.StopListening()
	bus.StopListening()
	assert.False(t, bus.Listening())

	require.NoError(t, other.SetItem(ctx, "products", "[2]"))
	bus.TriggerSync()
	assert.Never(t, func() bool { return calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	bus.StartListening()
	defer bus.StopListening()
	bus.TriggerSync()
	assert.Equal(t, int32(2), calls.Load())
}

func TestBus_SuscriptorPuedeReentrar(t *testing.T) {
	bus, _ := setup(t)
	var inner func()
	inner = bus.Subscribe(func() {
		inner()
		bus.Subscribe(func() {})
	})

	assert.NotPanics(t, bus.TriggerSync)
	assert.Equal(t, 1, bus.Subscribers())
}
