// Package connectivity exposes a binary online/offline signal with change
// notifications, the local-machine counterpart of a browser's
// online/offline events.
package connectivity

import (
	"net"
	"sync"
	"time"

	"modelman/pkg/logger"
)

// Watcher is the connectivity signal consumed by the store.
type Watcher interface {
	// Online returns the current connectivity snapshot.
	Online() bool
	// Subscribe registers fn for change notifications and returns an
	// unsubscribe handle.
	Subscribe(fn func(online bool)) func()
}

// notifier implements the observer registry shared by both watchers.
type notifier struct {
	mu      sync.Mutex
	online  bool
	subs    map[int]func(bool)
	nextSub int
}

func newNotifier(online bool) *notifier {
	return &notifier{online: online, subs: make(map[int]func(bool))}
}

func (n *notifier) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *notifier) Subscribe(fn func(bool)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextSub
	n.nextSub++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// set applies the new value and notifies on change only.
func (n *notifier) set(online bool) {
	n.mu.Lock()
	if n.online == online {
		n.mu.Unlock()
		return
	}
	n.online = online
	subs := make([]func(bool), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Manual is a watcher whose state is driven explicitly, used by tests and
// the --offline flag.
type Manual struct {
	*notifier
}

// NewManual creates a manual watcher with the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{notifier: newNotifier(online)}
}

// SetOnline flips the state, notifying subscribers on change.
func (m *Manual) SetOnline(online bool) {
	m.set(online)
}

// Prober is a watcher that periodically checks for a usable non-loopback
// network interface.
type Prober struct {
	*notifier
	interval time.Duration
	stop     chan struct{}
	stopped  chan struct{}
}

// DefaultProbeInterval is how often the prober re-checks interfaces.
const DefaultProbeInterval = 10 * time.Second

// NewProber creates a prober; interval <= 0 uses the default.
func NewProber(interval time.Duration) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &Prober{
		notifier: newNotifier(hasUsableInterface()),
		interval: interval,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the probe loop.
func (p *Prober) Start() {
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				online := hasUsableInterface()
				if online != p.Online() {
					log := logger.With("connectivity")
					log.Info().Bool("online", online).Msg("Connectivity changed")
				}
				p.set(online)
			}
		}
	}()
}

// Stop halts the probe loop.
func (p *Prober) Stop() {
	close(p.stop)
	<-p.stopped
}

// hasUsableInterface reports whether any non-loopback interface is up
// with an assigned address.
func hasUsableInterface() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
