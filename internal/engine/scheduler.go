package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/domain"
)

// Scheduler timing used when SchedulerConfig leaves a value unset.
const (
	DefaultSnapshotInterval = time.Minute
	DefaultEventMinDelay    = 60 * time.Second
	DefaultEventMaxDelay    = 180 * time.Second
)

// SchedulerConfig holds the timing of the background market activity.
type SchedulerConfig struct {
	SnapshotInterval time.Duration
	EventMinDelay    time.Duration
	EventMaxDelay    time.Duration
}

// MarketScheduler runs two background tasks: periodic price snapshots and
// ambient perturbations of a random company at random intervals.
type MarketScheduler struct {
	cfg     SchedulerConfig
	history *HistoryStore
	ledger  *CompanyLedger
	model   *PriceModel
	logger  *zap.Logger
	onFatal func(error)

	mu  sync.Mutex
	run *schedulerRun
}

type schedulerRun struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMarketScheduler creates a stopped scheduler. onFatal is called from
// the tick goroutine when a tick finds corrupt state; it may be nil and must
// not call Stop.
func NewMarketScheduler(
	cfg SchedulerConfig,
	history *HistoryStore,
	ledger *CompanyLedger,
	model *PriceModel,
	onFatal func(error),
	logger *zap.Logger,
) *MarketScheduler {
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}
	if cfg.EventMinDelay <= 0 {
		cfg.EventMinDelay = DefaultEventMinDelay
	}
	if cfg.EventMaxDelay <= 0 {
		cfg.EventMaxDelay = DefaultEventMaxDelay
	}
	cfg.EventMaxDelay = max(cfg.EventMaxDelay, cfg.EventMinDelay)
	return &MarketScheduler{
		cfg:     cfg,
		history: history,
		ledger:  ledger,
		model:   model,
		onFatal: onFatal,
		logger:  logger,
	}
}

// Start launches the snapshot and ambient loops. The first snapshot is
// taken immediately. Both loops end when ctx is cancelled or Stop is
// called; either way the scheduler can be started again afterwards.
func (s *MarketScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		return domain.ErrSchedulerRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &schedulerRun{cancel: cancel}
	run.wg.Add(2)
	go func() {
		defer run.wg.Done()
		s.snapshotLoop(runCtx)
	}()
	go func() {
		defer run.wg.Done()
		s.ambientLoop(runCtx)
	}()
	s.run = run

	// Forget the run once both loops are gone, e.g. after ctx is cancelled.
	go func() {
		run.wg.Wait()
		run.cancel()
		s.mu.Lock()
		if s.run == run {
			s.run = nil
		}
		s.mu.Unlock()
	}()

	s.logger.Info("scheduler started",
		zap.Duration("snapshot_interval", s.cfg.SnapshotInterval),
		zap.Duration("event_min_delay", s.cfg.EventMinDelay),
		zap.Duration("event_max_delay", s.cfg.EventMaxDelay),
	)
	return nil
}

// Stop cancels both loops and waits for an in-flight tick to finish. It is
// safe to call more than once and from any goroutine.
func (s *MarketScheduler) Stop() {
	s.mu.Lock()
	run := s.run
	s.run = nil
	s.mu.Unlock()
	if run == nil {
		return
	}
	run.cancel()
	run.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Running reports whether the loops of the current run are active.
func (s *MarketScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

func (s *MarketScheduler) snapshotLoop(ctx context.Context) {
	s.snapshot(ctx)

	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.snapshot(ctx)
		}
	}
}

func (s *MarketScheduler) ambientLoop(ctx context.Context) {
	timer := time.NewTimer(s.model.Delay(s.cfg.EventMinDelay, s.cfg.EventMaxDelay))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if ctx.Err() != nil {
				return
			}
			s.perturb(ctx)
			timer.Reset(s.model.Delay(s.cfg.EventMinDelay, s.cfg.EventMaxDelay))
		}
	}
}

// Ticks run on a context detached from cancellation, bounded by the store
// timeout.
func (s *MarketScheduler) snapshot(ctx context.Context) {
	n, err := s.history.RecordSnapshot(context.WithoutCancel(ctx))
	if err != nil {
		s.tickFailed("snapshot", err)
		return
	}
	s.logger.Debug("snapshot tick", zap.Int("entries", n))
}

func (s *MarketScheduler) perturb(ctx context.Context) {
	c, err := s.ledger.PerturbRandom(context.WithoutCancel(ctx))
	if err != nil {
		s.tickFailed("ambient", err)
		return
	}
	if c != nil {
		s.logger.Debug("ambient tick", zap.Int64("company_id", c.ID), zap.Int64("price", c.Price))
	}
}

func (s *MarketScheduler) tickFailed(task string, err error) {
	if errors.Is(err, domain.ErrCorruptState) {
		s.logger.Error("scheduler found corrupt state", zap.String("task", task), zap.Error(err))
		if s.onFatal != nil {
			s.onFatal(err)
		}
		return
	}
	s.logger.Warn("scheduler tick failed", zap.String("task", task), zap.Error(err))
}
