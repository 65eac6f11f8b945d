package tab

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/maxigas/pkg/clock"
)

// DefaultRenewInterval cada cuánto se revisa si el token está por vencer.
const DefaultRenewInterval = 5 * time.Minute

// DefaultReapInterval cada cuánto se buscan pestañas inactivas.
const DefaultReapInterval = time.Minute

// ErrTooManyTabs se alcanzó MaxTabs y ninguna pestaña estaba inactiva.
var ErrTooManyTabs = errors.New("demasiadas pestañas abiertas")

// Manager pestañas abiertas del proceso, por ID.
type Manager struct {
	deps Deps

	mu   sync.RWMutex
	tabs map[string]*Tab
}

// NewManager construye el administrador de pestañas.
func NewManager(d Deps) *Manager {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.RenewInterval <= 0 {
		d.RenewInterval = DefaultRenewInterval
	}
	return &Manager{deps: d, tabs: make(map[string]*Tab)}
}

// Open abre una pestaña nueva. token, si no está vacío, se usa para restaurar una sesión
// previa (como al recargar una pestaña que conserva su almacenamiento de sesión).
// Con el tope alcanzado primero se cierran las inactivas; si no alcanza, ErrTooManyTabs.
func (m *Manager) Open(ctx context.Context, token string) (*Tab, error) {
	if m.full() {
		m.Reap()
		if m.full() {
			return nil, ErrTooManyTabs
		}
	}
	t := newTab(NewID(), m.deps)
	if err := t.start(ctx, token, m.deps.RenewInterval); err != nil {
		t.Close()
		return nil, err
	}
	t.touch(m.deps.Clock.Now())

	m.mu.Lock()
	if m.deps.MaxTabs > 0 && len(m.tabs) >= m.deps.MaxTabs {
		m.mu.Unlock()
		t.Close()
		return nil, ErrTooManyTabs
	}
	m.tabs[t.ID] = t
	m.mu.Unlock()
	m.deps.Log.Info().Str("tab", t.ID).Bool("authenticated", t.Session.IsAuthenticated()).Msg("pestaña abierta")
	return t, nil
}

// Get pestaña por ID. Cuenta como actividad de la pestaña.
func (m *Manager) Get(id string) (*Tab, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tabs[id]
	if ok {
		t.touch(m.deps.Clock.Now())
	}
	return t, ok
}

// Close cierra la pestaña id. Devuelve false si no existía.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	t, ok := m.tabs[id]
	delete(m.tabs, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	t.Close()
	m.deps.Log.Info().Str("tab", id).Msg("pestaña cerrada")
	return true
}

// Reap cierra las pestañas sin acceso hace más de IdleTTL y devuelve cuántas cerró.
func (m *Manager) Reap() int {
	if m.deps.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.deps.Clock.Now().Add(-m.deps.IdleTTL)

	m.mu.Lock()
	var idle []*Tab
	for id, t := range m.tabs {
		if t.LastSeen().Before(cutoff) {
			idle = append(idle, t)
			delete(m.tabs, id)
		}
	}
	m.mu.Unlock()

	for _, t := range idle {
		t.Close()
		m.deps.Log.Info().Str("tab", t.ID).Time("last_seen", t.LastSeen()).Msg("pestaña inactiva cerrada")
	}
	return len(idle)
}

// RunReaper llama a Reap cada interval hasta que ctx se cancele. Sin IdleTTL no hace nada.
func (m *Manager) RunReaper(ctx context.Context, interval time.Duration) {
	if m.deps.IdleTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap()
		}
	}
}

// Len cantidad de pestañas abiertas.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tabs)
}

func (m *Manager) full() bool {
	return m.deps.MaxTabs > 0 && m.Len() >= m.deps.MaxTabs
}

// Shutdown cierra todas las pestañas.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	tabs := m.tabs
	m.tabs = make(map[string]*Tab)
	m.mu.Unlock()
	for _, t := range tabs {
		t.Close()
	}
}
