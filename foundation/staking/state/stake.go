package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/holiman/uint256"
)

// Stake pulls the base asset from the staker through their allowance and
// mints derivative balance to the recipient at the current exchange rate.
func (s *State) Stake(staker ledger.AccountID, recipient ledger.AccountID, amount uint256.Int) error {
	s.evHandler("state: Stake: started : staker[%s] recipient[%s] amount[%s]", staker, recipient, amount.Dec())
	defer s.evHandler("state: Stake: completed")

	if amount.IsZero() {
		return ledger.ErrZeroAmount
	}
	if staker.IsZero() || recipient.IsZero() {
		return ErrZeroAccount
	}
	if staker == s.pool || recipient == s.pool {
		return ErrPoolAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Fail before any money moves when the authorization can't cover the
	// stake. The bank checks again inside Debit.
	allowance := s.bank.AllowanceOf(staker, s.pool)
	if allowance.Lt(&amount) {
		return ErrInsufficientAllowance
	}

	now := uint64(s.now().UTC().Unix())
	work := s.fork()

	if err := work.book.Mint(recipient, amount); err != nil {
		return err
	}

	restore := s.bankRestore()

	if err := s.bank.Debit(staker, amount); err != nil {
		return fmt.Errorf("debiting base asset: %w", err)
	}

	snap := s.snapshot(work, "stake", now)

	if err := s.store.Save(snap); err != nil {
		if restore != nil {
			restore()
			return fmt.Errorf("saving checkpoint: %w", err)
		}
		return s.unwindDebit(staker, amount, err)
	}

	s.commit(work, snap)

	s.evHandler("pool: NEW STAKE: staker[%s] recipient[%s] amount[%s] rate[%s]", staker, recipient, amount.Dec(), snap.Header.ExchangeRate)

	// Give the background worker a chance to settle any due rebase now
	// that the pool has fresh activity.
	if s.Worker != nil {
		s.Worker.SignalRebase()
	}

	return nil
}

// Transfer moves derivative balance between two accounts, crossing the
// exclusion boundary in raw shares when either endpoint is excluded.
func (s *State) Transfer(from ledger.AccountID, to ledger.AccountID, amount uint256.Int) error {
	s.evHandler("state: Transfer: started : from[%s] to[%s] amount[%s]", from, to, amount.Dec())
	defer s.evHandler("state: Transfer: completed")

	if from.IsZero() || to.IsZero() {
		return ErrZeroAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := uint64(s.now().UTC().Unix())
	work := s.fork()

	if err := work.book.Transfer(from, to, amount); err != nil {
		return err
	}

	snap := s.snapshot(work, "transfer", now)

	if err := s.store.Save(snap); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}

	s.commit(work, snap)

	s.evHandler("pool: NEW TRANSFER: from[%s] to[%s] amount[%s]", from, to, amount.Dec())

	return nil
}

// unwindDebit puts a staker's money back through an external base ledger
// after a checkpoint write failed. The spent allowance stays spent, the
// staker re-approves before retrying.
func (s *State) unwindDebit(staker ledger.AccountID, amount uint256.Int, saveErr error) error {
	if err := s.bank.Credit(staker, amount); err != nil {
		s.evHandler("state: Stake: ERROR : unwinding debit: %s", err)
		return errors.Join(saveErr, err)
	}

	return fmt.Errorf("saving checkpoint: %w", saveErr)
}
