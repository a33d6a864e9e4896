// Package session is the multi-tenant session manager (§4.10): a keyed table
// of independent simulation engines, driven by one background tick loop that
// is decoupled from request handling. It generalizes the teacher's
// portfolio-cache map — a keyed table of per-user state refreshed on a
// ticker — into a keyed table of per-caller simulators, each isolated from
// the others so one session's tick fault never affects another's.
package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/solaris-clearae/edflow/internal/seeds"
	"github.com/solaris-clearae/edflow/internal/sim"
	"github.com/solaris-clearae/edflow/internal/stream"
)

// DefaultTickInterval is the wallclock period between ticks (§4.1, §6): one
// tick every 100ms, i.e. 600x simulated speed.
const DefaultTickInterval = 100 * time.Millisecond

// entry pairs one session's engine with the mutex that serializes handler
// reads against the background driver's writes (§5's "consistent per-session
// snapshot" via per-session mutual exclusion). faultStreak counts this
// session's consecutive tick faults, for diagnostics only — a fault never
// stops the driver from ticking the session again next round (§7).
type entry struct {
	mu          sync.Mutex
	engine      *sim.Engine
	createdAt   time.Time
	faultStreak int
}

// Manager owns every session in the process. Sessions never expire in this
// spec (§5) — the host process owns their lifetime.
type Manager struct {
	tickInterval time.Duration
	log          *logrus.Entry

	mu       sync.RWMutex
	sessions map[string]*entry

	broker   *stream.Broker
	seedSalt int64

	stop    chan struct{}
	stopped chan struct{}
}

// NewManager returns a Manager with no sessions and the driver not yet
// started — call Start to begin ticking. broker may be nil if no websocket
// vitals push is wired up; Publish is then simply skipped. seedSalt lets a
// caller reproduce or deliberately vary a run: the same salt plus the same
// session ids always yields the same sequence of simulated events.
func NewManager(tickInterval time.Duration, log *logrus.Entry, broker *stream.Broker, seedSalt int64) *Manager {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		tickInterval: tickInterval,
		log:          log,
		sessions:     make(map[string]*entry),
		broker:       broker,
		seedSalt:     seedSalt,
		stop:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

// seedFor derives a deterministic per-session RNG seed from the session id
// and the manager's salt, so two Managers given the same salt and session
// ids produce identical runs — useful for replaying a reported bug without
// needing to persist anything.
func (m *Manager) seedFor(id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64()) ^ m.seedSalt
}

// getOrCreate implements §4.10's get_or_create: returns the existing
// session's entry, or creates and records one on first reference. Unknown
// session ids are never an error (§7).
func (m *Manager) getOrCreate(id string) *entry {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return e
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok = m.sessions[id]; ok {
		return e
	}

	e = &entry{
		engine:    sim.New(m.seedFor(id), m.log.WithField("session", id)),
		createdAt: time.Now(),
	}
	m.sessions[id] = e
	m.log.WithField("session", id).Info("session created")
	return e
}

// snapshotIDs returns a stable copy of the current session id set, so the
// driver's iteration is never invalidated by a handler creating a new
// session concurrently (§5: "iteration must be over a stable snapshot of
// keys").
func (m *Manager) snapshotIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Start launches the background driver: every tickInterval it advances every
// known session's engine by one tick, independent sessions fanned out
// concurrently (§5: "their engines may advance in parallel"). Start returns
// immediately; call Stop (or cancel ctx) to halt the driver.
func (m *Manager) Start(ctx context.Context) {
	go m.driveLoop(ctx)
}

func (m *Manager) driveLoop(ctx context.Context) {
	defer close(m.stopped)

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.tickAll(ctx)
		}
	}
}

func (m *Manager) tickAll(ctx context.Context) {
	ids := m.snapshotIDs()

	g, _ := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			m.tickOne(id)
			return nil
		})
	}
	_ = g.Wait()
}

// tickOne advances a single session by one tick. A tick fault is a plain
// error returned from Engine.Tick — it is logged with the session id and
// fault streak, and the driver moves straight on to the next round; the
// session is never destroyed and no tick is ever retried (§7).
func (m *Manager) tickOne(id string) {
	e := m.getOrCreate(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.engine.Tick(); err != nil {
		e.faultStreak++
		m.log.WithFields(logrus.Fields{
			"session":      id,
			"error":        err,
			"fault_streak": e.faultStreak,
		}).Error("tick fault")
		return
	}

	e.faultStreak = 0
	if m.broker != nil {
		m.broker.Publish(id, e.engine.Vitals())
	}
}

// Stop halts the background driver and waits for the in-flight tick round to
// finish. An in-flight tick completes; no new round begins (§5's
// cancellation policy).
func (m *Manager) Stop() {
	close(m.stop)
	<-m.stopped
}

// Vitals returns the named session's current vitals snapshot (§4.9),
// creating the session on demand. The call is serialized against that
// session's own tick, never against other sessions.
func (m *Manager) Vitals(id string) sim.Vitals {
	e := m.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.Vitals()
}

// TotalAlerts returns the session's alert count, for the `/status`
// handler's `total_alerts` field (§6).
func (m *Manager) TotalAlerts(id string) int {
	e := m.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.TotalAlerts()
}

// Alerts returns the session's full alert log (§6's `/alerts`).
func (m *Manager) Alerts(id string) []sim.AlertSnapshot {
	e := m.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.Alerts()
}

// FacilityView is a static Facility record augmented with the session's
// current occupied census (§6's `/facilities`).
type FacilityView struct {
	seeds.Facility
	CurrentCensus int
}

// Facilities returns every facility's static record augmented with the named
// session's current census (§6).
func (m *Manager) Facilities(id string) []FacilityView {
	e := m.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	views := make([]FacilityView, len(seeds.Facilities))
	for i, f := range seeds.Facilities {
		views[i] = FacilityView{Facility: f, CurrentCensus: e.engine.CurrentCensus(f.ID)}
	}
	return views
}
