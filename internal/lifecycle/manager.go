package lifecycle

import (
	"sync"

	"beacon/internal/config"
	"beacon/internal/dispatch"
	"beacon/internal/logger"
	"beacon/internal/rules"
)

// Manager hands out one Session per visitor.
type Manager struct {
	engine     *rules.Engine
	dispatcher *dispatch.Dispatcher
	cfg        config.TrackingConfig
	logger     logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(engine *rules.Engine, dispatcher *dispatch.Dispatcher, cfg config.TrackingConfig, log logger.Logger) *Manager {
	return &Manager{
		engine:     engine,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     log,
		sessions:   make(map[string]*Session),
	}
}

// Session returns the visitor's session, creating it on first use.
func (m *Manager) Session(visitorID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[visitorID]; ok {
		return s
	}
	s := NewSession(visitorID, m.engine, m.dispatcher, m.cfg, m.logger)
	m.sessions[visitorID] = s
	return s
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
