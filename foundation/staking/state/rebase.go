package state

import (
	"fmt"

	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
)

// Rebase settles the yield accrued since the last settlement and advances
// the exchange rate. Fails with rebase.ErrTooSoon while the configured
// interval has not elapsed, leaving everything untouched.
func (s *State) Rebase() (rebase.Result, error) {
	s.evHandler("state: Rebase: started")
	defer s.evHandler("state: Rebase: completed")

	s.mu.Lock()
	defer s.mu.Unlock()

	now := uint64(s.now().UTC().Unix())
	work := s.fork()

	result, err := work.engine.Settle(now, work.book, false)
	if err != nil {
		return rebase.Result{}, err
	}

	snap := s.snapshot(work, "rebase", now)

	if err := s.store.Save(snap); err != nil {
		return rebase.Result{}, fmt.Errorf("saving checkpoint: %w", err)
	}

	s.commit(work, snap)

	s.evHandler("pool: REBASE: paid[%s] elapsed[%d] rate[%s]", result.Amount.Dec(), result.Elapsed, snap.Header.ExchangeRate)

	return result, nil
}
