package credentials

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// State of the availability monitor. Ready and Failed are terminal.
type State int32

const (
	StateWaiting State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultPollInterval is how often the monitor checks for stored tokens.
const DefaultPollInterval = 5 * time.Second

// Activator materializes usable API credentials from the stored tokens.
// The Google client implements it; the monitor only transitions to Ready
// once activation succeeds.
type Activator interface {
	Activate(ctx context.Context) error
}

// Monitor polls the credential store until a usable token pair exists, then
// signals readiness exactly once. It bridges the gap between process start
// and the admin's first OAuth login: callers block (bounded by their
// context) instead of hard-failing before login has ever happened.
type Monitor struct {
	creds     *Store
	activator Activator
	interval  time.Duration

	ready chan struct{}
	once  sync.Once

	mu    sync.Mutex
	state State
	err   error
}

// NewMonitor creates a monitor. It does not start polling; the composition
// root calls Start explicitly.
func NewMonitor(creds *Store, activator Activator, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		creds:     creds,
		activator: activator,
		interval:  interval,
		ready:     make(chan struct{}),
	}
}

// Start launches the background poll. The loop runs until credentials are
// activated or ctx is cancelled; a caller-side timeout on AwaitReady never
// stops it. Once Ready the ticker is stopped and no further store reads
// happen.
func (m *Monitor) Start(ctx context.Context) {
	go m.poll(ctx)
}

func (m *Monitor) poll(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if m.tryActivate(ctx) {
			return
		}

		select {
		case <-ctx.Done():
			m.fail(ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) tryActivate(ctx context.Context) bool {
	if !m.hasStoredCredentials(ctx) {
		return false
	}

	if err := m.activator.Activate(ctx); err != nil {
		// Tokens exist but could not be materialized (e.g. corrupt
		// ciphertext). Keep polling; the admin can re-authenticate.
		log.Printf("[WARN] credential activation failed, will retry: %v", err)
		return false
	}

	m.mu.Lock()
	m.state = StateReady
	m.mu.Unlock()
	m.once.Do(func() { close(m.ready) })
	return true
}

func (m *Monitor) hasStoredCredentials(ctx context.Context) bool {
	if v, err := m.creds.Get(ctx, KeyRefreshToken); err == nil && v != "" {
		return true
	}
	// Fall back to access-token presence.
	v, err := m.creds.Get(ctx, KeyAccessToken)
	return err == nil && v != ""
}

func (m *Monitor) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateWaiting {
		return
	}
	m.state = StateFailed
	m.err = err
}

// State returns the current monitor state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ErrCredentialsTimeout is returned by AwaitReady when the caller's context
// elapses before credentials become available.
var ErrCredentialsTimeout = errors.New("timed out waiting for Google credentials")

// AwaitReady blocks until credentials are available or ctx is done. A
// timeout affects only this caller; the background poll keeps running so a
// later login can still succeed.
func (m *Monitor) AwaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		err := m.err
		m.mu.Unlock()
		if err != nil {
			return err
		}
		return ErrCredentialsTimeout
	}
}
