package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelman/internal/transport"
)

// failingBackend serves /health, failing while broken is set. It fails
// with 404 so the probe's internal retry does not slow the test down.
func failingBackend(broken *atomic.Bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
}

func newTestMonitor(url string) *Monitor {
	client := transport.NewClient(transport.Config{BaseURL: url})
	return NewMonitor(client, Options{
		Interval:     10 * time.Millisecond,
		ProbeTimeout: time.Second,
	})
}

func TestMonitor_InitiallyHealthy(t *testing.T) {
	m := newTestMonitor("http://127.0.0.1:0")
	assert.True(t, m.Healthy(), "monitor starts optimistic")
}

func TestMonitor_NotifiesOncePerTransition(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)
	server := failingBackend(&broken)
	defer server.Close()

	m := newTestMonitor(server.URL)

	var notifications []bool
	unsub := m.Subscribe(func(healthy bool) {
		notifications = append(notifications, healthy)
	})
	defer unsub()

	// Three consecutive failures, then one success.
	for i := 0; i < 3; i++ {
		assert.False(t, m.CheckNow(context.Background()))
	}
	broken.Store(false)
	assert.True(t, m.CheckNow(context.Background()))

	require.Len(t, notifications, 2, "one notification per transition, not per probe")
	assert.False(t, notifications[0])
	assert.True(t, notifications[1])
}

func TestMonitor_ProbeRetriesOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Retryable failure; the single built-in retry should recover.
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	m := newTestMonitor(server.URL)
	assert.True(t, m.CheckNow(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, m.Healthy())
}

func TestMonitor_StartStop(t *testing.T) {
	var broken atomic.Bool
	server := failingBackend(&broken)
	defer server.Close()

	m := newTestMonitor(server.URL)

	var probes atomic.Int32
	unsub := m.Subscribe(func(bool) { probes.Add(1) })
	defer unsub()

	m.Start()
	broken.Store(true)
	assert.Eventually(t, func() bool {
		return !m.Healthy()
	}, time.Second, 5*time.Millisecond)
	m.Stop()

	// No probes after Stop.
	broken.Store(false)
	time.Sleep(50 * time.Millisecond)
	assert.False(t, m.Healthy(), "state must not change once stopped")
}

func TestMonitor_UnsubscribeDuringDelivery(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)
	server := failingBackend(&broken)
	defer server.Close()

	m := newTestMonitor(server.URL)

	var first, second atomic.Int32
	var unsub1 func()
	unsub1 = m.Subscribe(func(bool) {
		first.Add(1)
		unsub1()
	})
	m.Subscribe(func(bool) { second.Add(1) })

	m.CheckNow(context.Background()) // unhealthy: both fire, first unsubscribes itself
	broken.Store(false)
	m.CheckNow(context.Background()) // healthy: only the second fires

	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(2), second.Load())
}
