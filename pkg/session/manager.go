// Package session owns one liveview.Session plus its component registry
// per connection. It is the thing a transport (or test harness) actually
// calls: Render consumes the prior state for a connection id and only
// swaps in the new fingerprint tree once the render succeeds. The
// component registry backing the same connection enforces its own half
// of that contract at a finer grain — see registry.Registry.Track — so a
// failed Mount/Update never leaves a half-initialized component behind
// for the next Render to trip over.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsewire/pulseview/pkg/changemap"
	"github.com/pulsewire/pulseview/pkg/liveview"
	"github.com/pulsewire/pulseview/pkg/logging"
	"github.com/pulsewire/pulseview/pkg/metrics"
	"github.com/pulsewire/pulseview/pkg/pool"
	"github.com/pulsewire/pulseview/pkg/registry"
	"github.com/pulsewire/pulseview/pkg/render"
)

// ErrUnknownSession is returned when a caller references a connection id
// the manager never created (or already closed).
var ErrUnknownSession = errors.New("unknown session")

// Config bundles a Manager's dependencies and tunables. All fields are
// optional; New fills in no-op/default implementations for anything left
// zero.
type Config struct {
	Engine      liveview.Config
	Logger      logging.Logger
	Metrics     *metrics.Metrics
	HistorySize int // number of recent render samples kept for diagnostics
}

func (c Config) withDefaults() Config {
	if c.Engine == (liveview.Config{}) {
		c.Engine = liveview.DefaultConfig()
	}
	if c.Logger == nil {
		c.Logger = logging.NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = metrics.New("pulseview")
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 64
	}
	return c
}

// entry is one connection's session-scoped state.
type entry struct {
	mu       sync.Mutex
	session  *liveview.Session
	registry *registry.Registry
	engine   *liveview.Engine
	history  *pool.RingBuffer[RenderSample]
}

// RenderSample records one render call's cost, kept in a bounded ring
// buffer per session for health/debug inspection.
type RenderSample struct {
	At             time.Time
	Duration       time.Duration
	ChangeMapBytes int
	Err            error
}

// Manager is the session-scoped registry of live connections. One
// Manager instance typically backs an entire server process; each
// connection gets its own entry keyed by a caller-supplied or generated
// id.
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*entry

	factories map[string]registry.Factory
}

// New builds a Manager. factories maps a component module tag to the
// Factory used to instantiate it — shared across every session the
// Manager creates.
func New(factories map[string]registry.Factory, cfg Config) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:       cfg,
		sessions:  make(map[string]*entry),
		factories: factories,
	}
}

// NewSessionID generates a fresh client-opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Open creates (or returns, if it already exists) the session entry for
// id. Transports call this once per accepted connection, before the
// first Render.
func (m *Manager) Open(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		return
	}

	m.sessions[id] = &entry{
		session:  liveview.NewSession(),
		registry: registry.New(m.factories, m.cfg.Engine.Registry),
		engine:   nil, // built lazily against this entry's registry
		history:  pool.NewRingBuffer[RenderSample](m.cfg.HistorySize),
	}
	m.cfg.Metrics.SessionsActive.Inc()
	m.cfg.Metrics.SessionsTotal.Inc()
	m.cfg.Logger.Info("session opened", logging.String("session_id", id))
}

// Close removes a session's state. A subsequent Render for the same id
// starts over as if from a brand-new client.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.cfg.Metrics.SessionsActive.Dec()
		m.cfg.Logger.Info("session closed", logging.String("session_id", id))
	}
}

// Render performs one render call for the connection id, opening the
// session implicitly if this is its first reference. On error the
// session's fingerprint tree is left untouched — e.session is only
// reassigned below once the engine reports success — and any component
// whose Mount or Update callback failed during the attempt is left as it
// was before Track was called on it; only components that mounted and
// updated cleanly during the failed attempt remain tracked.
func (m *Manager) Render(ctx context.Context, id string, root render.Node) (*changemap.Map, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		m.Open(id)
		m.mu.RLock()
		e, ok = m.sessions[id]
		m.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.engine == nil {
		e.engine = liveview.New(e.registry, m.cfg.Engine)
	}

	start := time.Now()
	newSession, cm, err := e.engine.Render(ctx, e.session, root)
	duration := time.Since(start)

	sample := RenderSample{At: start, Duration: duration, Err: err}
	if err != nil {
		m.cfg.Metrics.RecordRender(duration, 0, 0, err)
		e.history.Push(sample)
		m.cfg.Logger.Warn("render failed",
			logging.String("session_id", id),
			logging.Err(err),
			logging.Duration("duration", duration),
		)
		return nil, err
	}

	wire, encErr := changemap.Encode(cm)
	size := 0
	if encErr == nil {
		size = len(wire)
	}
	sample.ChangeMapBytes = size

	e.session = newSession
	e.history.Push(sample)

	m.cfg.Metrics.RecordRender(duration, size, 0, nil)
	m.cfg.Logger.Debug("render completed",
		logging.String("session_id", id),
		logging.Duration("duration", duration),
		logging.Int("changemap_bytes", size),
	)

	return cm, nil
}

// History returns the most recent render samples recorded for a
// session, oldest first, for debugging.
func (m *Manager) History(id string) ([]RenderSample, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Snapshot(), nil
}

// Count returns the number of currently open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Ping renders a trivial probe template against a scratch session to
// confirm the engine itself is responsive, without touching any real
// connection's state. Intended for health.SessionManagerCheck.
func (m *Manager) Ping(ctx context.Context) error {
	probe := render.FromTemplate(&render.Template{
		Static:      []string{"", ""},
		Dynamic:     []render.Node{render.Leaf("ok")},
		Fingerprint: 1,
	})

	eng := liveview.New(registry.New(m.factories, m.cfg.Engine.Registry), m.cfg.Engine)
	_, _, err := eng.Render(ctx, liveview.NewSession(), probe)
	return err
}
