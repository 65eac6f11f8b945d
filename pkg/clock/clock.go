// Package clock abstrae la hora actual para que los servicios que dependen del tiempo
// (expiración de tokens, ids, fechas de pedidos) se puedan probar de forma determinista.
//
// En producción se inyecta Real(); en tests Fake(t), que solo avanza con Advance o Set.
package clock

import (
	"sync"
	"time"
)

// Clock entrega la hora actual.
type Clock interface {
	Now() time.Time
}

// Real devuelve un Clock respaldado por el paquete time.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// FakeClock reloj detenido para tests. Seguro para uso concurrente.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Fake devuelve un FakeClock detenido en initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// Now devuelve la hora simulada.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance mueve el reloj d hacia adelante (o atrás si d es negativo).
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Set fija la hora simulada.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}
