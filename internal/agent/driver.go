package agent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vesperlabs/vesper/internal/cloud/gcp"
)

// Run executes the survival loop until the death branch fires or the context
// is cancelled. Each cycle runs behind a failure boundary: a panic or error
// inside a cycle abandons that cycle and the loop resumes after the normal
// interval. The interval is measured end-of-cycle to start-of-next, so long
// cycles drift the schedule rather than overlapping it.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Printf("survival loop starting: wallet=%s interval=%s threshold=%s",
		a.ledger.Address(), a.cfg.Interval, a.cfg.SurvivalThreshold)

	for {
		if stop := a.runCycleSafe(ctx); stop {
			a.logger.Printf("survival loop stopped: resources exhausted")
			return nil
		}
		select {
		case <-ctx.Done():
			a.logger.Printf("survival loop stopped: %v", ctx.Err())
			return ctx.Err()
		case <-time.After(a.cfg.Interval):
		}
	}
}

// RunOnce executes a single cycle and reports whether the loop should stop.
// Used by the CLI's --once mode.
func (a *Agent) RunOnce(ctx context.Context) bool {
	return a.runCycleSafe(ctx)
}

// runCycleSafe is the per-cycle failure boundary. Only a death-branch cycle
// may stop the loop; every failure is logged and absorbed.
func (a *Agent) runCycleSafe(ctx context.Context) (stop bool) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Printf("cycle panicked, continuing to next iteration: %v", rec)
			a.cycleLog.Error("cycle panicked", map[string]any{"panic": rec})
			stop = false
		}
	}()

	stop, err := a.runCycle(ctx)
	if err != nil {
		a.logger.Printf("cycle failed, continuing to next iteration: %v", err)
		a.cycleLog.Error("cycle failed", map[string]any{"error": err.Error()})
	}
	return stop
}

// runCycle executes the survival gate and its selected branch, then the
// subcycles. The balance is queried fresh; it is never carried over from a
// previous cycle.
func (a *Agent) runCycle(ctx context.Context) (stop bool, err error) {
	a.cycle++
	cycleID := uuid.NewString()
	a.cycleLog.StartCycle(cycleID, a.cycle)
	start := time.Now()
	a.logger.Printf("cycle %d starting (id=%s)", a.cycle, cycleID)

	if err := a.store.PostAction(ctx, "[SYSTEM] Checking balance...", false); err != nil {
		a.logger.Printf("failed to record balance-check action: %v", err)
	}

	balance, err := a.ledger.Balance(ctx)
	if err != nil {
		return false, err
	}

	if a.belowThreshold(balance) {
		if err := a.runDeath(ctx); err != nil {
			a.logger.Printf("death sequence degraded: %v", err)
		}
		a.cycleLog.Log(gcp.SeverityCritical, "death branch completed", map[string]any{
			"balance":  balance.String(),
			"duration": time.Since(start).String(),
		})
		return true, nil
	}

	if err := a.runActive(ctx, balance); err != nil {
		return false, err
	}

	a.runFeedback(ctx)
	a.runMentions(ctx)

	a.cycleLog.Info("active cycle completed", map[string]any{
		"balance":  balance.String(),
		"duration": time.Since(start).String(),
	})
	return false, nil
}
