// Package scheduler implements the tick loop that evaluates every active
// workflow: check the action, execute the reaction on a fire, and record
// the outcome. Exactly one process replica runs the loop; the rest stay
// passive behind a filesystem leader lock.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/config"
	"github.com/CrackedOnTiti/AREA/internal/dispatch"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

// Scheduler runs the workflow evaluation loop.
type Scheduler struct {
	store      *store.Store
	dispatcher *dispatch.Dispatcher
	cfg        config.Scheduler
	logger     *slog.Logger

	mu      sync.Mutex
	lock    *os.File
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a Scheduler. Nothing starts until Start is called.
func New(st *store.Store, d *dispatch.Dispatcher, cfg config.Scheduler, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      st,
		dispatcher: d,
		cfg:        cfg,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start acquires the leader lock and launches the tick loop. When another
// replica already holds the lock, Start returns nil without a loop and
// this process serves passively. Calling Start on a running scheduler is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	lock, err := acquireLock(s.cfg.LockFile)
	if err == ErrLockHeld {
		s.logger.Info("leader lock held elsewhere, running passive", "lock_file", s.cfg.LockFile)
		return nil
	}
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.lock = lock
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(loopCtx)
	return nil
}

// Leading reports whether this instance holds the leader lock and runs
// the tick loop.
func (s *Scheduler) Leading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop cancels the loop, waits for any in-flight tick to finish and
// releases the leader lock.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	releaseLock(s.lock)
	s.lock = nil
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// Run blocks until ctx is cancelled, ticking at the configured interval.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	interval := s.cfg.CheckInterval.Duration
	if interval <= 0 {
		interval = time.Minute
	}
	s.logger.Info("scheduler started", "check_interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.RunTick(ctx)
		}
	}
}

// RunTick performs a single evaluation cycle over every active workflow.
// The tick is bounded to 80% of the check interval so a stalled provider
// cannot bleed into the next tick.
func (s *Scheduler) RunTick(ctx context.Context) {
	if interval := s.cfg.CheckInterval.Duration; interval > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, interval*8/10)
		defer cancel()
	}

	workflows, err := s.store.ActiveWorkflows(ctx)
	if err != nil {
		s.logger.Error("tick: list active workflows", "error", err)
		return
	}

	executed := 0
	for _, w := range workflows {
		if ctx.Err() != nil {
			s.logger.Warn("tick cancelled mid-cycle", "remaining", len(workflows)-executed)
			return
		}
		if s.evaluate(ctx, w) {
			executed++
		}
	}

	if executed > 0 {
		s.logger.Info("tick complete", "workflows", len(workflows), "executed", executed)
	} else {
		s.logger.Debug("tick: nothing fired", "workflows", len(workflows))
	}
}

// evaluate runs one workflow end to end and reports whether its reaction
// executed successfully. Panics and errors stay inside this boundary; no
// workflow may abort the tick.
func (s *Scheduler) evaluate(ctx context.Context, w store.Workflow) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("workflow panicked", "workflow", w.ID, "panic", r)
			if err := s.store.AppendLog(w.ID, "error", fmt.Sprintf("Execution error: %v", r), time.Now().UTC(), 0); err != nil {
				s.logger.Error("append panic log", "workflow", w.ID, "error", err)
			}
			ok = false
		}
	}()

	checker, err := s.dispatcher.CheckerFor(w.ActionName)
	if err != nil {
		s.recordFailure(w.ID, err.Error())
		return false
	}

	outcome := checker.Check(ctx, w)
	if outcome.Err != "" {
		s.logger.Warn("action check failed", "workflow", w.ID, "action", w.ActionName, "error", outcome.Err)
		s.recordFailure(w.ID, outcome.Err)
		return false
	}
	if !outcome.Fired {
		return false
	}

	start := time.Now().UTC()
	var result dispatch.Result
	executor, err := s.dispatcher.ExecutorFor(w.ReactionName)
	if err != nil {
		result = dispatch.Result{Err: err.Error()}
	} else {
		result = executor.Execute(ctx, w)
	}
	elapsed := time.Since(start).Milliseconds()

	status := "success"
	if !result.Success {
		status = "failed"
	}
	message := outcome.Metadata
	if message == "" {
		message = result.Message
	}
	if message == "" {
		message = result.Err
	}
	if message == "" {
		message = "Unknown result"
	}

	if err := s.store.RecordTrigger(ctx, w.ID, status, message, start, elapsed); err != nil {
		s.logger.Error("record trigger", "workflow", w.ID, "error", err)
		return false
	}

	if !result.Success {
		s.logger.Warn("reaction failed", "workflow", w.ID, "reaction", w.ReactionName, "error", result.Err)
	}
	return result.Success
}

// recordFailure appends a failed evaluation without touching
// last_triggered: the workflow did not fire, it could not be checked.
func (s *Scheduler) recordFailure(workflowID int64, message string) {
	if err := s.store.AppendLog(workflowID, "failed", message, time.Now().UTC(), 0); err != nil {
		s.logger.Error("append failure log", "workflow", workflowID, "error", err)
	}
}
