package complaint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const escalationRunTimeout = 2 * time.Minute

// Escalator periodically escalates overdue complaints.
type Escalator struct {
	store  *Store
	cron   *cron.Cron
	logger *slog.Logger
}

// NewEscalator schedules EscalateOverdue on the given cron schedule, e.g. "@every 1h".
func NewEscalator(store *Store, schedule string, logger *slog.Logger) (*Escalator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Escalator{
		store:  store,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
	if _, err := e.cron.AddFunc(schedule, e.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid escalation schedule %q: %w", schedule, err)
	}
	return e, nil
}

func (e *Escalator) Start() {
	e.cron.Start()
	e.logger.Info("escalation scheduler started", "entries", len(e.cron.Entries()))
}

// Stop halts the scheduler and waits for a running pass to finish or ctx to end.
func (e *Escalator) Stop(ctx context.Context) {
	select {
	case <-e.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce performs one escalation pass.
func (e *Escalator) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), escalationRunTimeout)
	defer cancel()

	n, err := e.store.EscalateOverdue(ctx)
	if err != nil {
		e.logger.Error("escalation pass finished with errors", "escalated", n, "error", err)
		return
	}
	if n > 0 {
		e.logger.Info("escalation pass finished", "escalated", n)
	}
}
