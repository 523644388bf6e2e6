// Package connectivity observes network reachability and exposes it as a
// boolean signal. The read path consults it to choose between the remote
// document store and the local cache.
package connectivity

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Probe reports whether the backend is reachable right now.
type Probe func(ctx context.Context) bool

// DialProbe probes by opening a TCP connection to addr.
func DialProbe(addr string, timeout time.Duration) Probe {
	return func(ctx context.Context) bool {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// Monitor runs the probe on an interval and publishes transitions.
// Transitions do not cancel or re-issue anything already in flight; callers
// re-invoke their reads if they care.
type Monitor struct {
	probe    Probe
	interval time.Duration
	log      *zap.Logger

	online atomic.Bool

	mu   sync.Mutex
	subs []func(online bool)

	stopOnce sync.Once
	stop     chan struct{}
}

func NewMonitor(probe Probe, interval time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		probe:    probe,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start probes once synchronously to seed the signal, then keeps probing on
// the interval until Stop or ctx cancellation.
func (m *Monitor) Start(ctx context.Context) {
	m.set(m.probe(ctx))

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.set(m.probe(ctx))
			}
		}
	}()
}

func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Subscribe registers a callback invoked on every online/offline transition.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) set(online bool) {
	if m.online.Swap(online) == online {
		return
	}
	m.log.Info("connectivity changed", zap.Bool("online", online))

	m.mu.Lock()
	subs := make([]func(bool), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}
