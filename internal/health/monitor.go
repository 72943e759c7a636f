// Package health watches backend liveness with a periodic probe and
// notifies subscribers on state changes.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"modelman/internal/transport"
	"modelman/pkg/logger"
)

// Default probe tunables.
const (
	DefaultInterval     = 30 * time.Second
	DefaultProbeTimeout = 5 * time.Second
)

// Options configures a Monitor.
type Options struct {
	Interval     time.Duration
	ProbeTimeout time.Duration
	// ProbePath is the endpoint probed; defaults to /health.
	ProbePath string
}

// Monitor tracks a binary liveness signal for the backend. The initial
// state is healthy (optimistic); a probe failure flips it to unhealthy and
// the next success flips it back. Subscribers are notified once per actual
// transition, never per probe.
type Monitor struct {
	client    *transport.Client
	interval  time.Duration
	timeout   time.Duration
	probePath string

	mu      sync.Mutex
	healthy bool
	subs    map[int]func(bool)
	nextSub int
	running bool
	stop    chan struct{}
	stopped chan struct{}
}

// NewMonitor creates a monitor probing through client. Zero options fall
// back to the defaults.
func NewMonitor(client *transport.Client, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.ProbePath == "" {
		opts.ProbePath = "/health"
	}
	return &Monitor{
		client:    client,
		interval:  opts.Interval,
		timeout:   opts.ProbeTimeout,
		probePath: opts.ProbePath,
		healthy:   true,
		subs:      make(map[int]func(bool)),
	}
}

// Healthy returns the current liveness snapshot.
func (m *Monitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// Subscribe registers fn to be called on every state change and returns
// an unsubscribe handle. Unsubscribing during notification delivery is
// safe.
func (m *Monitor) Subscribe(fn func(healthy bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Start launches the probe loop. Calling Start on a running monitor is a
// no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.stopped = make(chan struct{})
	stop, stopped := m.stop, m.stopped
	m.mu.Unlock()

	go m.loop(stop, stopped)
}

// Stop halts probing and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, stopped := m.stop, m.stopped
	m.mu.Unlock()

	close(stop)
	<-stopped
}

func (m *Monitor) loop(stop, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.CheckNow(context.Background())
		}
	}
}

// CheckNow probes the backend once and applies the resulting transition.
// It returns the observed liveness.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	err := m.client.DoJSON(ctx, transport.Descriptor{
		Method:  http.MethodGet,
		Path:    m.probePath,
		Timeout: m.timeout,
		// One retry keeps a single dropped packet from flapping the state.
		Retry: transport.RetryPolicy{MaxRetries: 1, BaseDelay: time.Second},
	}, nil)

	healthy := err == nil
	m.setHealthy(healthy)
	return healthy
}

func (m *Monitor) setHealthy(healthy bool) {
	m.mu.Lock()
	if m.healthy == healthy {
		m.mu.Unlock()
		return
	}
	m.healthy = healthy
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	log := logger.With("health")
	if healthy {
		log.Info().Msg("Backend healthy")
	} else {
		log.Warn().Msg("Backend unhealthy")
	}

	// Deliver outside the lock so a subscriber may unsubscribe (itself or
	// another) without deadlocking.
	for _, fn := range subs {
		fn(healthy)
	}
}
