// Package rebase implements the engine that decides when yield settles and
// advances the share ledger's exchange rate when it does.
package rebase

import (
	"errors"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/emission"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/holiman/uint256"
)

// Bounds for the rebase interval.
const (
	MinInterval = time.Hour
	MaxInterval = 30 * 24 * time.Hour
)

// Set of error variables for rebase operations.
var (
	ErrTooSoon         = errors.New("rebase interval has not elapsed")
	ErrInvalidInterval = errors.New("rebase interval out of bounds")
	ErrRateCeiling     = errors.New("emission rate above the configured ceiling")
)

// Config represents the requirements for constructing the engine.
type Config struct {
	Model       string
	RatePerYear uint256.Int
	MaxRate     uint256.Int
	Interval    time.Duration
	LastRebase  uint64
}

// Result captures the effect of one settle pass.
type Result struct {
	Timestamp    uint64
	Elapsed      uint64
	Amount       uint256.Int
	RateDelta    uint256.Int
	ExchangeRate uint256.Int
}

// Engine schedules yield settlement. It carries no lock of its own, the
// coordinator serializes all access.
type Engine struct {
	model    string
	emit     emission.Func
	rate     uint256.Int
	maxRate  uint256.Int
	interval time.Duration
	last     uint64
}

// New constructs the engine after validating the emission parameters.
func New(cfg Config) (*Engine, error) {
	if cfg.Interval < MinInterval || cfg.Interval > MaxInterval {
		return nil, ErrInvalidInterval
	}
	if cfg.RatePerYear.Gt(&cfg.MaxRate) {
		return nil, ErrRateCeiling
	}

	emit, err := emission.Retrieve(cfg.Model)
	if err != nil {
		return nil, err
	}

	e := Engine{
		model:    cfg.Model,
		emit:     emit,
		interval: cfg.Interval,
		last:     cfg.LastRebase,
	}
	e.rate.Set(&cfg.RatePerYear)
	e.maxRate.Set(&cfg.MaxRate)

	return &e, nil
}

// Settle computes the payout for the elapsed window and distributes it
// across the participating shares. Unless force is set the call fails with
// ErrTooSoon while the interval has not elapsed, leaving all state alone.
// Once settlement runs the clock advances to now even when the payout is
// zero, so an empty pool can never bank elapsed time for later.
func (e *Engine) Settle(now uint64, book *ledger.Ledger, force bool) (Result, error) {
	var elapsed uint64
	if now > e.last {
		elapsed = now - e.last
	}

	if !force && time.Duration(elapsed)*time.Second < e.interval {
		return Result{}, ErrTooSoon
	}

	supply, err := book.ParticipatingSupply()
	if err != nil {
		return Result{}, err
	}

	amount, err := e.emit(supply, e.rate, elapsed)
	if err != nil {
		return Result{}, err
	}

	var delta uint256.Int
	if !amount.IsZero() {
		participating := book.ParticipatingShares()
		if participating.IsZero() {
			amount.Clear()
		} else {
			if delta, err = book.Distribute(amount); err != nil {
				return Result{}, err
			}
		}
	}

	if now > e.last {
		e.last = now
	}

	result := Result{
		Timestamp:    now,
		Elapsed:      elapsed,
		Amount:       amount,
		RateDelta:    delta,
		ExchangeRate: book.ExchangeRate(),
	}

	return result, nil
}

// SetRate settles the window accrued under the old emission rate and then
// applies the new one. The ceiling is checked before anything mutates.
func (e *Engine) SetRate(now uint64, book *ledger.Ledger, ratePerYear uint256.Int) (Result, error) {
	if ratePerYear.Gt(&e.maxRate) {
		return Result{}, ErrRateCeiling
	}

	result, err := e.Settle(now, book, true)
	if err != nil {
		return Result{}, err
	}

	e.rate.Set(&ratePerYear)

	return result, nil
}

// SetInterval settles the accrued window and then applies the new interval.
// The bounds are checked before anything mutates.
func (e *Engine) SetInterval(now uint64, book *ledger.Ledger, interval time.Duration) (Result, error) {
	if interval < MinInterval || interval > MaxInterval {
		return Result{}, ErrInvalidInterval
	}

	result, err := e.Settle(now, book, true)
	if err != nil {
		return Result{}, err
	}

	e.interval = interval

	return result, nil
}

// Clone makes a copy of the engine.
func (e *Engine) Clone() *Engine {
	clone := Engine{
		model:    e.model,
		emit:     e.emit,
		interval: e.interval,
		last:     e.last,
	}
	clone.rate.Set(&e.rate)
	clone.maxRate.Set(&e.maxRate)

	return &clone
}

// =============================================================================

// Model returns the emission model name.
func (e *Engine) Model() string {
	return e.model
}

// RatePerYear returns the annual emission parameter.
func (e *Engine) RatePerYear() uint256.Int {
	return e.rate
}

// MaxRate returns the emission rate ceiling.
func (e *Engine) MaxRate() uint256.Int {
	return e.maxRate
}

// Interval returns the minimum spacing between rebases.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// LastRebase returns the unix timestamp of the last settlement.
func (e *Engine) LastRebase() uint64 {
	return e.last
}

// NextRebase returns the unix timestamp when the next rebase becomes due.
func (e *Engine) NextRebase() uint64 {
	return e.last + uint64(e.interval/time.Second)
}
