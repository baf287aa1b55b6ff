// Package bank provides the reference implementation of the base asset
// ledger the staking pool debits and credits. Debits move funds from the
// staker into the pool's reserve account and credits pay them back out, so
// the pool can genuinely run out of reserves and reject payouts until a
// debit replenishes them.
package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/holiman/uint256"
)

// Set of error variables for bank operations.
var (
	ErrZeroAmount            = errors.New("amount must be greater than zero")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientReserves  = errors.New("insufficient pool reserves")
	ErrOverflow              = errors.New("arithmetic overflow")
)

// Ledger manages base asset balances and the standing authorizations that
// let the pool pull funds from stakers.
type Ledger struct {
	mu sync.RWMutex

	pool       ledger.AccountID
	balances   map[ledger.AccountID]uint256.Int
	allowances map[ledger.AccountID]map[ledger.AccountID]uint256.Int
}

// New constructs a bank ledger with the specified genesis balances. The
// pool account receives debited funds and pays credits.
func New(pool ledger.AccountID, balances map[ledger.AccountID]uint256.Int) (*Ledger, error) {
	if !pool.IsAccountID() {
		return nil, fmt.Errorf("pool account %q: invalid account format", pool)
	}

	b := Ledger{
		pool:       pool,
		balances:   make(map[ledger.AccountID]uint256.Int, len(balances)),
		allowances: make(map[ledger.AccountID]map[ledger.AccountID]uint256.Int),
	}

	for accountID, balance := range balances {
		if !accountID.IsAccountID() {
			return nil, fmt.Errorf("account %q: invalid account format", accountID)
		}
		b.balances[accountID] = balance
	}

	return &b, nil
}

// Debit pulls the amount from the account into the pool reserve, consuming
// that much of the account's standing authorization.
func (b *Ledger) Debit(from ledger.AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	allowance := b.allowances[from][b.pool]
	var newAllowance uint256.Int
	if _, underflow := newAllowance.SubOverflow(&allowance, &amount); underflow {
		return ErrInsufficientAllowance
	}

	balance := b.balances[from]
	var newBalance uint256.Int
	if _, underflow := newBalance.SubOverflow(&balance, &amount); underflow {
		return ErrInsufficientFunds
	}

	reserve := b.balances[b.pool]
	var newReserve uint256.Int
	if _, overflow := newReserve.AddOverflow(&reserve, &amount); overflow {
		return ErrOverflow
	}

	if b.allowances[from] == nil {
		b.allowances[from] = make(map[ledger.AccountID]uint256.Int)
	}
	b.allowances[from][b.pool] = newAllowance
	b.balances[from] = newBalance
	b.balances[b.pool] = newReserve

	return nil
}

// Credit pays the amount out of the pool reserve to the account.
func (b *Ledger) Credit(to ledger.AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	reserve := b.balances[b.pool]
	var newReserve uint256.Int
	if _, underflow := newReserve.SubOverflow(&reserve, &amount); underflow {
		return ErrInsufficientReserves
	}

	balance := b.balances[to]
	var newBalance uint256.Int
	if _, overflow := newBalance.AddOverflow(&balance, &amount); overflow {
		return ErrOverflow
	}

	b.balances[b.pool] = newReserve
	b.balances[to] = newBalance

	return nil
}

// Transfer moves the amount directly between two accounts. No authorization
// is consumed, the owner moves their own funds.
func (b *Ledger) Transfer(from ledger.AccountID, to ledger.AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if from == to {
		return nil
	}

	balance := b.balances[from]
	var newFrom uint256.Int
	if _, underflow := newFrom.SubOverflow(&balance, &amount); underflow {
		return ErrInsufficientFunds
	}

	balance = b.balances[to]
	var newTo uint256.Int
	if _, overflow := newTo.AddOverflow(&balance, &amount); overflow {
		return ErrOverflow
	}

	b.balances[from] = newFrom
	b.balances[to] = newTo

	return nil
}

// Approve sets the standing authorization the spender may pull from the
// owner. The amount replaces any previous authorization.
func (b *Ledger) Approve(owner ledger.AccountID, spender ledger.AccountID, amount uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.allowances[owner] == nil {
		b.allowances[owner] = make(map[ledger.AccountID]uint256.Int)
	}
	b.allowances[owner][spender] = amount
}

// BalanceOf returns the base asset balance for the account.
func (b *Ledger) BalanceOf(accountID ledger.AccountID) uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.balances[accountID]
}

// AllowanceOf returns the remaining authorization the spender holds on the
// owner's funds.
func (b *Ledger) AllowanceOf(owner ledger.AccountID, spender ledger.AccountID) uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.allowances[owner][spender]
}

// Reserves returns the pool's own base asset holdings.
func (b *Ledger) Reserves() uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.balances[b.pool]
}

// Pool returns the reserve account id.
func (b *Ledger) Pool() ledger.AccountID {
	return b.pool
}

// =============================================================================

// Balances returns a copy of every base asset balance.
func (b *Ledger) Balances() map[ledger.AccountID]uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	balances := make(map[ledger.AccountID]uint256.Int, len(b.balances))
	for accountID, balance := range b.balances {
		balances[accountID] = balance
	}

	return balances
}

// Allowances returns a copy of every standing authorization.
func (b *Ledger) Allowances() map[ledger.AccountID]map[ledger.AccountID]uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	allowances := make(map[ledger.AccountID]map[ledger.AccountID]uint256.Int, len(b.allowances))
	for owner, spenders := range b.allowances {
		cp := make(map[ledger.AccountID]uint256.Int, len(spenders))
		for spender, amount := range spenders {
			cp[spender] = amount
		}
		allowances[owner] = cp
	}

	return allowances
}

// Load replaces the bank content with the specified balances and
// authorizations.
func (b *Ledger) Load(balances map[ledger.AccountID]uint256.Int, allowances map[ledger.AccountID]map[ledger.AccountID]uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances = make(map[ledger.AccountID]uint256.Int, len(balances))
	for accountID, balance := range balances {
		b.balances[accountID] = balance
	}

	b.allowances = make(map[ledger.AccountID]map[ledger.AccountID]uint256.Int, len(allowances))
	for owner, spenders := range allowances {
		cp := make(map[ledger.AccountID]uint256.Int, len(spenders))
		for spender, amount := range spenders {
			cp[spender] = amount
		}
		b.allowances[owner] = cp
	}
}
