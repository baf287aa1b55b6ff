package worker

import (
	"errors"

	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
)

// settleOperations handles rebase settlement on the configured schedule.
func (w *Worker) settleOperations() {
	w.evHandler("worker: settleOperations: G started")
	defer w.evHandler("worker: settleOperations: G completed")

	for {
		select {
		case <-w.rebaseSignal:
			if !w.isShutdown() {
				w.runRebaseOperation()
			}
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runRebaseOperation()
			}
		case <-w.shut:
			w.evHandler("worker: settleOperations: received shut signal")
			return
		}
	}
}

// runRebaseOperation settles the accrued yield when the rebase interval has
// elapsed. A pool that isn't due yet is left alone.
func (w *Worker) runRebaseOperation() {
	result, err := w.state.Rebase()
	if err != nil {
		switch {
		case errors.Is(err, rebase.ErrTooSoon):
			// Not due yet, the next tick will check again.
		default:
			w.evHandler("worker: runRebaseOperation: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runRebaseOperation: SETTLED: paid[%s] rate[%s]", result.Amount.Dec(), result.ExchangeRate.Dec())
}
