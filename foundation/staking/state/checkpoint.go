package state

import (
	"fmt"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/merkle"
	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
	"github.com/ardanlabs/liquidstake/foundation/staking/store"
	"github.com/ardanlabs/liquidstake/foundation/staking/withdraw"
)

// fork carries deep copies of every mutable component so an operation can
// build the next state without touching the live one. An operation that
// fails at any point just drops the fork.
type fork struct {
	book   *ledger.Ledger
	engine *rebase.Engine
	queue  *withdraw.Queue
	delay  uint64
}

// fork captures the current state under the state mutex.
func (s *State) fork() fork {
	return fork{
		book:   s.book.Clone(),
		engine: s.engine.Clone(),
		queue:  s.queue.Clone(),
		delay:  s.delay,
	}
}

// snapshot builds the full-state snapshot and chained header that represent
// the fork once it commits.
func (s *State) snapshot(work fork, operation string, now uint64) store.Snapshot {
	accounts := work.book.Accounts()
	rate := work.book.ExchangeRate()

	header := store.CheckpointHeader{
		Sequence:     s.sequence + 1,
		TimeStamp:    now,
		Operation:    operation,
		PrevHash:     s.prevHash,
		AccountsRoot: accountsRoot(accounts),
		ExchangeRate: rate.Dec(),
	}

	snap := store.Snapshot{
		Header:       header,
		Accounts:     accounts,
		ExchangeRate: rate,
		Requests:     work.queue.All(),
		Schedule: store.Schedule{
			Model:           work.engine.Model(),
			RatePerYear:     work.engine.RatePerYear(),
			MaxRate:         work.engine.MaxRate(),
			IntervalSeconds: uint64(work.engine.Interval() / time.Second),
			LastRebase:      work.engine.LastRebase(),
		},
		WithdrawalDelay: work.delay,
	}

	// The bundled bank rides inside the checkpoint. External base ledgers
	// carry their own durability.
	if snapper, ok := s.bank.(BankSnapshotter); ok {
		snap.BankBalances = snapper.Balances()
		snap.BankAllowances = snapper.Allowances()
	}

	return snap
}

// commit swaps the fork in and advances the checkpoint chain cursor. Only
// called after the snapshot has been written to the store.
func (s *State) commit(work fork, snap store.Snapshot) {
	s.book = work.book
	s.engine = work.engine
	s.queue = work.queue
	s.delay = work.delay
	s.sequence = snap.Header.Sequence
	s.prevHash = snap.Header.Hash()
}

// degradedCommit swaps the fork in without advancing the chain cursor. Used
// when a payout already left through an external base ledger but the
// checkpoint write failed: memory stays truthful and the next successful
// checkpoint persists everything.
func (s *State) degradedCommit(work fork) {
	s.book = work.book
	s.engine = work.engine
	s.queue = work.queue
	s.delay = work.delay
}

// bankRestore captures the bundled bank's full state so a failed checkpoint
// can put a money movement back exactly, allowances included. Returns nil
// when the base ledger is external.
func (s *State) bankRestore() func() {
	snapper, ok := s.bank.(BankSnapshotter)
	if !ok {
		return nil
	}

	balances := snapper.Balances()
	allowances := snapper.Allowances()

	return func() {
		snapper.Load(balances, allowances)
	}
}

// loadSnapshot rebuilds the in-memory state from a stored snapshot and
// verifies the account set against the header's merkle root.
func (s *State) loadSnapshot(snap store.Snapshot) error {
	if root := accountsRoot(snap.Accounts); root != snap.Header.AccountsRoot {
		return fmt.Errorf("checkpoint %d accounts root mismatch, got %s, exp %s", snap.Header.Sequence, root, snap.Header.AccountsRoot)
	}

	book := ledger.New()
	if err := book.Load(snap.Accounts, snap.ExchangeRate); err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}

	engine, err := rebase.New(rebase.Config{
		Model:       snap.Schedule.Model,
		RatePerYear: snap.Schedule.RatePerYear,
		MaxRate:     snap.Schedule.MaxRate,
		Interval:    time.Duration(snap.Schedule.IntervalSeconds) * time.Second,
		LastRebase:  snap.Schedule.LastRebase,
	})
	if err != nil {
		return fmt.Errorf("loading rebase schedule: %w", err)
	}

	queue := withdraw.New()
	queue.Load(snap.Requests)

	if snapper, ok := s.bank.(BankSnapshotter); ok && len(snap.BankBalances) > 0 {
		snapper.Load(snap.BankBalances, snap.BankAllowances)
	}

	s.book = book
	s.engine = engine
	s.queue = queue
	s.delay = snap.WithdrawalDelay
	s.sequence = snap.Header.Sequence
	s.prevHash = snap.Header.Hash()

	return nil
}

// accountsRoot produces the merkle root for the given account set. An empty
// pool anchors to the zero hash.
func accountsRoot(accounts []ledger.Account) string {
	if len(accounts) == 0 {
		return store.ZeroHash
	}

	tree, err := merkle.NewTree(accounts)
	if err != nil {
		return store.ZeroHash
	}

	return tree.RootHex()
}
