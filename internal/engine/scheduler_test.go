package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/efreitasn/toymarket/internal/domain"
)

func newTestScheduler(t *testing.T, m *testMarket, cfg SchedulerConfig, onFatal func(error)) *MarketScheduler {
	t.Helper()
	s := NewMarketScheduler(cfg, m.history, m.ledger, m.model, onFatal, zaptest.NewLogger(t))
	t.Cleanup(s.Stop)
	return s
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func historyLen(t *testing.T, m *testMarket) int {
	t.Helper()
	entries, err := m.history.History(context.Background(), nil)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	return len(entries)
}

func TestMarketScheduler_SnapshotImmediatelyAndPeriodically(t *testing.T) {
	m := newTestMarket(t, midpoint)
	m.mustCreate(t, "Acme", 100, 1000)
	s := newTestScheduler(t, m, SchedulerConfig{
		SnapshotInterval: 10 * time.Millisecond,
		EventMinDelay:    time.Hour,
		EventMaxDelay:    time.Hour,
	}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "first snapshot", func() bool { return historyLen(t, m) >= 1 })
	waitFor(t, "periodic snapshots", func() bool { return historyLen(t, m) >= 3 })
}

func TestMarketScheduler_StartTwice(t *testing.T) {
	m := newTestMarket(t, midpoint)
	s := newTestScheduler(t, m, SchedulerConfig{
		SnapshotInterval: time.Hour,
		EventMinDelay:    time.Hour,
		EventMaxDelay:    time.Hour,
	}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, domain.ErrSchedulerRunning) {
		t.Fatalf("expected ErrSchedulerRunning, got %v", err)
	}
	if !s.Running() {
		t.Fatal("expected scheduler to be running")
	}

	s.Stop()
	s.Stop()
	if s.Running() {
		t.Fatal("expected scheduler to be stopped")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestMarketScheduler_StopPreventsFurtherTicks(t *testing.T) {
	m := newTestMarket(t, midpoint)
	m.mustCreate(t, "Acme", 100, 1000)
	s := newTestScheduler(t, m, SchedulerConfig{
		SnapshotInterval: 5 * time.Millisecond,
		EventMinDelay:    time.Hour,
		EventMaxDelay:    time.Hour,
	}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "snapshots", func() bool { return historyLen(t, m) >= 2 })
	s.Stop()

	before := historyLen(t, m)
	time.Sleep(50 * time.Millisecond)
	if after := historyLen(t, m); after != before {
		t.Fatalf("snapshots continued after Stop: %d then %d", before, after)
	}
}

func TestMarketScheduler_AmbientPerturbs(t *testing.T) {
	// A zero draw gives the largest downward drift.
	m := newTestMarket(t, fixedSource{f: 0})
	m.mustCreate(t, "Acme", 1000, 1000)
	s := newTestScheduler(t, m, SchedulerConfig{
		SnapshotInterval: time.Hour,
		EventMinDelay:    5 * time.Millisecond,
		EventMaxDelay:    10 * time.Millisecond,
	}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "two ambient moves", func() bool {
		return m.mustCompany(t, 1).Price <= 960 // 1000 * 0.98 * 0.98
	})
}

func TestMarketScheduler_CorruptStateIsFatal(t *testing.T) {
	m := newTestMarket(t, midpoint)
	c := m.mustCreate(t, "Acme", 100, 1000)
	m.corrupt(t, c)

	var fatal atomic.Value
	s := newTestScheduler(t, m, SchedulerConfig{
		SnapshotInterval: time.Hour,
		EventMinDelay:    time.Hour,
		EventMaxDelay:    time.Hour,
	}, func(err error) { fatal.Store(err) })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "fatal handler", func() bool { return fatal.Load() != nil })
	if err := fatal.Load().(error); !errors.Is(err, domain.ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
}

func TestMarketScheduler_ParentCancelStopsLoops(t *testing.T) {
	m := newTestMarket(t, midpoint)
	m.mustCreate(t, "Acme", 100, 1000)
	s := newTestScheduler(t, m, SchedulerConfig{
		SnapshotInterval: 5 * time.Millisecond,
		EventMinDelay:    time.Hour,
		EventMaxDelay:    time.Hour,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "first snapshot", func() bool { return historyLen(t, m) >= 1 })
	cancel()
	s.Stop()

	before := historyLen(t, m)
	time.Sleep(30 * time.Millisecond)
	if after := historyLen(t, m); after != before {
		t.Fatalf("snapshots continued after cancel: %d then %d", before, after)
	}
}

func TestMarketScheduler_ZeroConfigUsesDefaults(t *testing.T) {
	// A zero draw would move the price on every ambient tick.
	m := newTestMarket(t, fixedSource{f: 0})
	m.mustCreate(t, "Acme", 1000, 1000)
	s := newTestScheduler(t, m, SchedulerConfig{}, nil)

	want := SchedulerConfig{
		SnapshotInterval: DefaultSnapshotInterval,
		EventMinDelay:    DefaultEventMinDelay,
		EventMaxDelay:    DefaultEventMaxDelay,
	}
	if s.cfg != want {
		t.Fatalf("expected %+v, got %+v", want, s.cfg)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "first snapshot", func() bool { return historyLen(t, m) >= 1 })
	time.Sleep(50 * time.Millisecond)
	if got := m.mustCompany(t, 1).Price; got != 1000 {
		t.Fatalf("ambient move fired without a delay: price %d", got)
	}
}

func TestMarketScheduler_EventWindowOrdered(t *testing.T) {
	m := newTestMarket(t, midpoint)
	s := newTestScheduler(t, m, SchedulerConfig{
		EventMinDelay: time.Hour,
		EventMaxDelay: time.Minute,
	}, nil)
	if s.cfg.EventMaxDelay != time.Hour {
		t.Fatalf("expected max delay raised to the minimum, got %v", s.cfg.EventMaxDelay)
	}
}

func TestMarketScheduler_RestartAfterParentCancel(t *testing.T) {
	m := newTestMarket(t, midpoint)
	s := newTestScheduler(t, m, SchedulerConfig{
		SnapshotInterval: time.Hour,
		EventMinDelay:    time.Hour,
		EventMaxDelay:    time.Hour,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	waitFor(t, "scheduler to notice cancel", func() bool { return !s.Running() })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart after cancel: %v", err)
	}
	if !s.Running() {
		t.Fatal("expected scheduler to be running again")
	}
}
