package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vportnov/balancetrack/internal/domain"
	"github.com/vportnov/balancetrack/internal/monitoring"
	"github.com/vportnov/balancetrack/internal/services/registry"
	"github.com/vportnov/balancetrack/internal/services/valuation"
)

// SnapshotWriter persists one snapshot.
type SnapshotWriter interface {
	Save(snapshot domain.Snapshot) error
}

// Scheduler runs one repeating snapshot task per active user. Timers are
// independent of each other and of the price refresh timer; a valuation
// may read a cache that is up to one refresh interval stale.
type Scheduler struct {
	registry *registry.Registry
	engine   *valuation.Engine
	store    SnapshotWriter
	clock    Clock
	interval time.Duration
	logger   *zap.Logger

	// errs receives tick errors when set; sends never block.
	errs chan<- error

	inflight sync.Map // user id -> *atomic.Bool
}

// New creates a scheduler snapshotting every interval on the given clock.
func New(reg *registry.Registry, engine *valuation.Engine, store SnapshotWriter,
	clock Clock, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		registry: reg,
		engine:   engine,
		store:    store,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// NotifyErrors delivers every tick error to ch in addition to logging it.
// Must be called before Run.
func (s *Scheduler) NotifyErrors(ch chan<- error) {
	s.errs = ch
}

// Run starts one timer per registered user and blocks until ctx is
// cancelled. Tick errors are logged and swallowed; the next tick proceeds
// regardless of the previous outcome.
func (s *Scheduler) Run(ctx context.Context) error {
	users := s.registry.ActiveUsers()

	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(u domain.User) {
			defer wg.Done()
			s.runUser(ctx, u)
		}(user)
	}
	s.logger.Info("balance snapshot scheduler started", zap.Int("users", len(users)))

	wg.Wait()
	return ctx.Err()
}

func (s *Scheduler) runUser(ctx context.Context, user domain.User) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.Tick(ctx, user.ID); err != nil {
				monitoring.RecordSnapshotError(user.ID)
				s.logger.Error("snapshot tick failed", zap.String("user", user.ID), zap.Error(err))
				s.report(err)
			}
		}
	}
}

// Tick produces and persists one snapshot for a user. A tick that finds
// the user's previous tick still in flight is skipped so two
// valuate-and-persist chains never race for the same user.
func (s *Scheduler) Tick(ctx context.Context, userID string) error {
	guard, _ := s.inflight.LoadOrStore(userID, &atomic.Bool{})
	running := guard.(*atomic.Bool)
	if !running.CompareAndSwap(false, true) {
		monitoring.RecordTickSkipped(userID)
		s.logger.Warn("previous tick still running, skipping", zap.String("user", userID))
		return nil
	}
	defer running.Store(false)

	session, err := s.registry.Session(userID)
	if err != nil {
		return err
	}

	raw, err := session.AccountBalances(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch balances")
	}

	balances, total := s.engine.Portfolio(raw)

	snapshot := domain.NewSnapshot(userID, s.clock.Now(), total, balances)
	if err := s.store.Save(snapshot); err != nil {
		return errors.Wrap(err, "persist snapshot")
	}

	monitoring.RecordSnapshot(userID, total)
	return nil
}

func (s *Scheduler) report(err error) {
	if s.errs == nil {
		return
	}
	select {
	case s.errs <- err:
	default:
	}
}
