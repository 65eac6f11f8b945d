package postgres

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
)

func TestDispatch_NoEntregaAlOrigen(t *testing.T) {
	h := NewKVHub(nil, zerolog.Nop())
	var gotA, gotB []storage.Event
	cancelA := h.Tab("a").Watch(func(ev storage.Event) { gotA = append(gotA, ev) })
	h.Tab("b").Watch(func(ev storage.Event) { gotB = append(gotB, ev) })

	h.dispatch(storage.Event{Key: "products", Origin: "a"})
	assert.Empty(t, gotA)
	require.Len(t, gotB, 1)
	assert.Equal(t, "products", gotB[0].Key)

	// aviso de otro proceso: llega a todas
	h.dispatch(storage.Event{Key: "orders", Origin: "otro-proceso"})
	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 2)

	cancelA()
	cancelA()
	h.dispatch(storage.Event{Key: "users", Origin: "b"})
	assert.Len(t, gotA, 1)
}

func TestDecodeChange(t *testing.T) {
	ev, err := decodeChange(`{"key":"users","origin":"tab-1"}`)
	require.NoError(t, err)
	assert.Equal(t, storage.Event{Key: "users", Origin: "tab-1"}, ev)

	_, err = decodeChange(`{"origin":"tab-1"}`)
	assert.Error(t, err)
	_, err = decodeChange(`no-json`)
	assert.Error(t, err)
}

func TestClose_SinListen(t *testing.T) {
	h := NewKVHub(nil, zerolog.Nop())
	assert.NotPanics(t, h.Close)
}
