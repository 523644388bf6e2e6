package connectivity_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gatherly/backend/internal/connectivity"
	"gatherly/backend/internal/testutil"

	"go.uber.org/zap"
)

func TestStartSeedsSynchronously(t *testing.T) {
	var reachable atomic.Bool
	reachable.Store(true)
	probe := func(ctx context.Context) bool { return reachable.Load() }

	m := connectivity.NewMonitor(probe, 5*time.Millisecond, zap.NewNop())
	defer m.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	// The first probe runs before Start returns, so the signal is usable
	// immediately.
	if !m.Online() {
		t.Fatal("Online = false right after Start with a reachable probe")
	}
}

func TestTransitionsFollowProbe(t *testing.T) {
	var reachable atomic.Bool
	reachable.Store(true)
	probe := func(ctx context.Context) bool { return reachable.Load() }

	m := connectivity.NewMonitor(probe, 5*time.Millisecond, zap.NewNop())
	defer m.Stop()

	var mu sync.Mutex
	var transitions []bool
	m.Subscribe(func(online bool) {
		mu.Lock()
		transitions = append(transitions, online)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	reachable.Store(false)
	testutil.WaitFor(t, time.Second, "offline transition", func() bool {
		return !m.Online()
	})

	reachable.Store(true)
	testutil.WaitFor(t, time.Second, "online transition", func() bool {
		return m.Online()
	})

	mu.Lock()
	defer mu.Unlock()
	// Seed true fires no transition callback; then false, then true.
	if len(transitions) < 2 || transitions[0] != false || transitions[1] != true {
		t.Errorf("transitions = %v, want [false true ...]", transitions)
	}
}

func TestStopHaltsProbing(t *testing.T) {
	var probes atomic.Int64
	probe := func(ctx context.Context) bool {
		probes.Add(1)
		return true
	}

	m := connectivity.NewMonitor(probe, 5*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	testutil.WaitFor(t, time.Second, "ticker probes", func() bool {
		return probes.Load() >= 3
	})

	m.Stop()
	m.Stop() // idempotent

	// One tick may already be in flight; let it drain before sampling.
	time.Sleep(15 * time.Millisecond)
	after := probes.Load()
	time.Sleep(30 * time.Millisecond)
	if probes.Load() != after {
		t.Errorf("probe kept running after Stop: %d -> %d", after, probes.Load())
	}
}
