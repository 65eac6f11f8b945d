package localstore

import (
	"sync"

	"github.com/jhoicas/maxigas/pkg/clock"
)

// IDGenerator entrega IDs numéricos crecientes basados en milisegundos. Nunca repite un valor
// dentro del proceso aunque se pidan varios en el mismo milisegundo, y nunca queda por debajo
// del mayor ID ya guardado en la colección.
type IDGenerator struct {
	mu    sync.Mutex
	last  int64
	clock clock.Clock
}

// NewIDGenerator construye el generador con el reloj dado.
func NewIDGenerator(clk clock.Clock) *IDGenerator {
	if clk == nil {
		clk = clock.Real()
	}
	return &IDGenerator{clock: clk}
}

// Next devuelve max(ahora_ms, floor+1, último+1).
func (g *IDGenerator) Next(floor int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.clock.Now().UnixMilli()
	if id <= floor {
		id = floor + 1
	}
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
