package state

import (
	"fmt"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/withdraw"
	"github.com/holiman/uint256"
)

// RequestWithdrawal burns derivative balance from the account and queues a
// one-for-one base asset claim. The returned id identifies the request for
// later processing.
func (s *State) RequestWithdrawal(account ledger.AccountID, amount uint256.Int) (int, error) {
	s.evHandler("state: RequestWithdrawal: started : account[%s] amount[%s]", account, amount.Dec())
	defer s.evHandler("state: RequestWithdrawal: completed")

	if amount.IsZero() {
		return 0, ledger.ErrZeroAmount
	}
	if account.IsZero() {
		return 0, ErrZeroAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := uint64(s.now().UTC().Unix())
	work := s.fork()

	if err := work.book.Burn(account, amount); err != nil {
		return 0, err
	}

	id := work.queue.Add(account, withdraw.Request{
		BaseAmount:  amount,
		Derivative:  amount,
		RequestedAt: now,
	})

	snap := s.snapshot(work, "withdrawal_request", now)

	if err := s.store.Save(snap); err != nil {
		return 0, fmt.Errorf("saving checkpoint: %w", err)
	}

	s.commit(work, snap)

	s.evHandler("pool: NEW WITHDRAWAL: account[%s] amount[%s] request[%d]", account, amount.Dec(), id)

	return id, nil
}

// ProcessWithdrawal pays out a matured request. The request flips to
// processed before the credit so a reentrant call can't double pay, and a
// failed credit drops the whole attempt so the request stays claimable.
func (s *State) ProcessWithdrawal(account ledger.AccountID, id int) error {
	s.evHandler("state: ProcessWithdrawal: started : account[%s] request[%d]", account, id)
	defer s.evHandler("state: ProcessWithdrawal: completed")

	if account.IsZero() {
		return ErrZeroAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	request, err := s.queue.Get(account, id)
	if err != nil {
		return err
	}
	if request.Processed {
		return withdraw.ErrAlreadyProcessed
	}

	now := uint64(s.now().UTC().Unix())
	if now < request.RequestedAt+s.delay {
		return ErrDelayNotMet
	}

	work := s.fork()
	if err := work.queue.MarkProcessed(account, id, true); err != nil {
		return err
	}

	restore := s.bankRestore()

	if err := s.bank.Credit(account, request.BaseAmount); err != nil {
		return fmt.Errorf("crediting base asset: %w", err)
	}

	snap := s.snapshot(work, "withdrawal_process", now)

	if err := s.store.Save(snap); err != nil {
		if restore != nil {
			restore()
			return fmt.Errorf("saving checkpoint: %w", err)
		}

		// The payout already left through an external ledger and can't be
		// pulled back. Memory stays truthful and the next checkpoint
		// carries it.
		s.degradedCommit(work)
		s.evHandler("state: ProcessWithdrawal: ERROR : checkpoint save failed after payout: %s", err)
		return nil
	}

	s.commit(work, snap)

	s.evHandler("pool: PAYOUT: account[%s] amount[%s] request[%d]", account, request.BaseAmount.Dec(), id)

	return nil
}
