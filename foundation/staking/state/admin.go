package state

import (
	"fmt"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
	"github.com/holiman/uint256"
)

// SetExcluded moves an account in or out of rebase participation. Excluding
// requires the account to hold nothing, re-including is unconditional and
// values the shares at the current exchange rate.
func (s *State) SetExcluded(account ledger.AccountID, excluded bool) error {
	s.evHandler("state: SetExcluded: started : account[%s] excluded[%v]", account, excluded)
	defer s.evHandler("state: SetExcluded: completed")

	if account.IsZero() {
		return ErrZeroAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := uint64(s.now().UTC().Unix())
	work := s.fork()

	if err := work.book.SetExcluded(account, excluded); err != nil {
		return err
	}

	operation := "exclude"
	if !excluded {
		operation = "include"
	}

	snap := s.snapshot(work, operation, now)

	if err := s.store.Save(snap); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}

	s.commit(work, snap)

	s.evHandler("pool: EXCLUSION: account[%s] excluded[%v]", account, excluded)

	return nil
}

// SetEmissionRate settles the window accrued under the old rate, then
// applies the new annual emission parameter. The ceiling is enforced before
// anything mutates.
func (s *State) SetEmissionRate(ratePerYear uint256.Int) (rebase.Result, error) {
	s.evHandler("state: SetEmissionRate: started : rate[%s]", ratePerYear.Dec())
	defer s.evHandler("state: SetEmissionRate: completed")

	s.mu.Lock()
	defer s.mu.Unlock()

	now := uint64(s.now().UTC().Unix())
	work := s.fork()

	result, err := work.engine.SetRate(now, work.book, ratePerYear)
	if err != nil {
		return rebase.Result{}, err
	}

	snap := s.snapshot(work, "emission_rate", now)

	if err := s.store.Save(snap); err != nil {
		return rebase.Result{}, fmt.Errorf("saving checkpoint: %w", err)
	}

	s.commit(work, snap)

	s.evHandler("pool: EMISSION RATE: rate[%s] settled[%s]", ratePerYear.Dec(), result.Amount.Dec())

	return result, nil
}

// SetRebaseInterval settles the accrued window, then applies the new
// spacing between rebases. The bounds are enforced before anything mutates.
func (s *State) SetRebaseInterval(interval time.Duration) (rebase.Result, error) {
	s.evHandler("state: SetRebaseInterval: started : interval[%s]", interval)
	defer s.evHandler("state: SetRebaseInterval: completed")

	s.mu.Lock()
	defer s.mu.Unlock()

	now := uint64(s.now().UTC().Unix())
	work := s.fork()

	result, err := work.engine.SetInterval(now, work.book, interval)
	if err != nil {
		return rebase.Result{}, err
	}

	snap := s.snapshot(work, "rebase_interval", now)

	if err := s.store.Save(snap); err != nil {
		return rebase.Result{}, fmt.Errorf("saving checkpoint: %w", err)
	}

	s.commit(work, snap)

	s.evHandler("pool: REBASE INTERVAL: interval[%s] settled[%s]", interval, result.Amount.Dec())

	return result, nil
}

// SetWithdrawalDelay applies a new maturity delay for withdrawal requests.
// Pending requests mature against the new delay, not the one in force when
// they were created.
func (s *State) SetWithdrawalDelay(delay time.Duration) error {
	s.evHandler("state: SetWithdrawalDelay: started : delay[%s]", delay)
	defer s.evHandler("state: SetWithdrawalDelay: completed")

	if delay < 0 || delay > MaxWithdrawalDelay {
		return ErrInvalidDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := uint64(s.now().UTC().Unix())
	work := s.fork()
	work.delay = uint64(delay / time.Second)

	snap := s.snapshot(work, "withdrawal_delay", now)

	if err := s.store.Save(snap); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}

	s.commit(work, snap)

	s.evHandler("pool: WITHDRAWAL DELAY: delay[%s]", delay)

	return nil
}
