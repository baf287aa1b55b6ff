// Package state is the core API for the staking pool and implements all the
// business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/bank"
	"github.com/ardanlabs/liquidstake/foundation/staking/genesis"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
	"github.com/ardanlabs/liquidstake/foundation/staking/store"
	"github.com/ardanlabs/liquidstake/foundation/staking/withdraw"
	"github.com/holiman/uint256"
)

// MaxWithdrawalDelay bounds how long an operator can make stakers wait.
const MaxWithdrawalDelay = 30 * 24 * time.Hour

// Set of error variables for coordinator operations.
var (
	ErrZeroAccount           = errors.New("account is the zero address")
	ErrPoolAccount           = errors.New("account is the pool itself")
	ErrInsufficientAllowance = errors.New("insufficient stake authorization")
	ErrDelayNotMet           = errors.New("withdrawal delay has not elapsed")
	ErrInvalidDelay          = errors.New("withdrawal delay out of bounds")
)

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of pool operations.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for background rebase settlement.
type Worker interface {
	Shutdown()
	SignalRebase()
}

// BaseLedger interface represents the behavior required to be implemented
// by any package providing the base asset the pool debits and credits. The
// bundled bank package implements it, a production deployment points it at
// the real asset.
type BaseLedger interface {
	Debit(from ledger.AccountID, amount uint256.Int) error
	Credit(to ledger.AccountID, amount uint256.Int) error
	BalanceOf(accountID ledger.AccountID) uint256.Int
	AllowanceOf(owner ledger.AccountID, spender ledger.AccountID) uint256.Int
}

// BankSnapshotter interface represents a base ledger whose state rides
// inside pool checkpoints, so a failed checkpoint can put money movements
// back exactly. External ledgers don't implement it and carry their own
// durability.
type BankSnapshotter interface {
	Balances() map[ledger.AccountID]uint256.Int
	Allowances() map[ledger.AccountID]map[ledger.AccountID]uint256.Int
	Load(balances map[ledger.AccountID]uint256.Int, allowances map[ledger.AccountID]map[ledger.AccountID]uint256.Int)
}

// Compile-time check that the bundled bank can ride in checkpoints.
var _ BankSnapshotter = (*bank.Ledger)(nil)

// =============================================================================

// Config represents the configuration required to start the pool.
type Config struct {
	Genesis   genesis.Genesis
	Store     store.Store
	Bank      BaseLedger
	Now       func() time.Time
	EvHandler EventHandler
}

// State manages the staking pool.
type State struct {
	mu sync.Mutex

	genesis   genesis.Genesis
	pool      ledger.AccountID
	delay     uint64
	evHandler EventHandler
	now       func() time.Time

	book   *ledger.Ledger
	engine *rebase.Engine
	queue  *withdraw.Queue
	bank   BaseLedger
	store  store.Store

	sequence uint64
	prevHash string

	Worker Worker
}

// New constructs a new pool state for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Store == nil {
		return nil, errors.New("checkpoint store required")
	}
	if cfg.Bank == nil {
		return nil, errors.New("base asset ledger required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	poolID, err := ledger.ToAccountID(cfg.Genesis.PoolAccount)
	if err != nil {
		return nil, fmt.Errorf("pool account: %w", err)
	}

	if time.Duration(cfg.Genesis.WithdrawalDelay)*time.Second > MaxWithdrawalDelay {
		return nil, ErrInvalidDelay
	}

	s := State{
		genesis:   cfg.Genesis,
		pool:      poolID,
		delay:     cfg.Genesis.WithdrawalDelay,
		evHandler: ev,
		now:       now,
		book:      ledger.New(),
		queue:     withdraw.New(),
		bank:      cfg.Bank,
		store:     cfg.Store,
		prevHash:  store.ZeroHash,
	}

	// Rebuild from the latest checkpoint when one exists, otherwise anchor
	// a fresh chain with a genesis checkpoint so the rebase clock survives
	// restarts.
	latest, exists, err := cfg.Store.Latest()
	if err != nil {
		return nil, fmt.Errorf("reading latest checkpoint: %w", err)
	}

	if exists {
		if err := s.loadSnapshot(latest); err != nil {
			return nil, err
		}
		ev("state: New: restored checkpoint[%d] accounts[%d] rate[%s]", s.sequence, len(latest.Accounts), latest.Header.ExchangeRate)
		return &s, nil
	}

	rate, err := cfg.Genesis.EmissionRateValue()
	if err != nil {
		return nil, err
	}
	maxRate, err := cfg.Genesis.MaxEmissionRateValue()
	if err != nil {
		return nil, err
	}

	boot := uint64(now().UTC().Unix())

	engine, err := rebase.New(rebase.Config{
		Model:       cfg.Genesis.EmissionModel,
		RatePerYear: rate,
		MaxRate:     maxRate,
		Interval:    time.Duration(cfg.Genesis.RebaseInterval) * time.Second,
		LastRebase:  boot,
	})
	if err != nil {
		return nil, err
	}
	s.engine = engine

	work := s.fork()
	snap := s.snapshot(work, "genesis", boot)
	if err := s.store.Save(snap); err != nil {
		return nil, fmt.Errorf("writing genesis checkpoint: %w", err)
	}
	s.commit(work, snap)

	ev("state: New: genesis checkpoint written for pool[%s]", poolID)

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the pool.

	return &s, nil
}

// Shutdown cleanly brings the pool down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database file is properly closed.
	defer func() {
		s.store.Close()
	}()

	// Stop all background settlement activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
