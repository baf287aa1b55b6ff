// Package wrapped provides the simple non-rebasing wrapped form of the base
// asset. Deposits are one to one: locking N base tokens in the vault mints N
// wrapped tokens and burning N wrapped tokens unlocks exactly N base tokens.
// Wrapped balances never move on their own, there is no yield.
package wrapped

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/holiman/uint256"
)

// Set of error variables for wrapped token operations.
var (
	ErrZeroAmount        = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient wrapped balance")
	ErrOverflow          = errors.New("arithmetic overflow")
)

// Bank represents the behavior required of the base asset ledger backing
// the wrapper.
type Bank interface {
	Transfer(from ledger.AccountID, to ledger.AccountID, amount uint256.Int) error
	BalanceOf(accountID ledger.AccountID) uint256.Int
}

// Ledger manages the wrapped token balances. Every wrapped token in
// circulation is backed by one base token held in the vault account.
type Ledger struct {
	mu sync.RWMutex

	bank     Bank
	vault    ledger.AccountID
	balances map[ledger.AccountID]uint256.Int
	total    uint256.Int
}

// New constructs a wrapped token ledger locking base asset under the
// specified vault account.
func New(bnk Bank, vault ledger.AccountID) (*Ledger, error) {
	if !vault.IsAccountID() {
		return nil, fmt.Errorf("vault account %q: invalid account format", vault)
	}

	l := Ledger{
		bank:     bnk,
		vault:    vault,
		balances: make(map[ledger.AccountID]uint256.Int),
	}

	return &l, nil
}

// Deposit locks base asset in the vault and mints the same amount of
// wrapped tokens to the account.
func (l *Ledger) Deposit(accountID ledger.AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[accountID]
	var newBalance uint256.Int
	if _, overflow := newBalance.AddOverflow(&balance, &amount); overflow {
		return ErrOverflow
	}

	var newTotal uint256.Int
	if _, overflow := newTotal.AddOverflow(&l.total, &amount); overflow {
		return ErrOverflow
	}

	// Locking the base asset is the last step that can fail, so a failure
	// here leaves the wrapped balances untouched.
	if err := l.bank.Transfer(accountID, l.vault, amount); err != nil {
		return fmt.Errorf("locking base asset: %w", err)
	}

	l.balances[accountID] = newBalance
	l.total.Set(&newTotal)

	return nil
}

// Withdraw burns wrapped tokens and unlocks the same amount of base asset
// from the vault back to the account.
func (l *Ledger) Withdraw(accountID ledger.AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[accountID]
	var newBalance uint256.Int
	if _, underflow := newBalance.SubOverflow(&balance, &amount); underflow {
		return ErrInsufficientFunds
	}

	var newTotal uint256.Int
	if _, underflow := newTotal.SubOverflow(&l.total, &amount); underflow {
		return ErrInsufficientFunds
	}

	if err := l.bank.Transfer(l.vault, accountID, amount); err != nil {
		return fmt.Errorf("unlocking base asset: %w", err)
	}

	l.balances[accountID] = newBalance
	l.total.Set(&newTotal)

	return nil
}

// Transfer moves wrapped tokens between two accounts.
func (l *Ledger) Transfer(from ledger.AccountID, to ledger.AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if from == to {
		return nil
	}

	balance := l.balances[from]
	var newFrom uint256.Int
	if _, underflow := newFrom.SubOverflow(&balance, &amount); underflow {
		return ErrInsufficientFunds
	}

	balance = l.balances[to]
	var newTo uint256.Int
	if _, overflow := newTo.AddOverflow(&balance, &amount); overflow {
		return ErrOverflow
	}

	l.balances[from] = newFrom
	l.balances[to] = newTo

	return nil
}

// BalanceOf returns the wrapped token balance for the account.
func (l *Ledger) BalanceOf(accountID ledger.AccountID) uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[accountID]
}

// TotalWrapped returns the wrapped tokens in circulation. It always equals
// the base asset held by the vault.
func (l *Ledger) TotalWrapped() uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.total
}

// Vault returns the account the locked base asset is held under.
func (l *Ledger) Vault() ledger.AccountID {
	return l.vault
}

// Balances returns a copy of every wrapped token balance.
func (l *Ledger) Balances() map[ledger.AccountID]uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balances := make(map[ledger.AccountID]uint256.Int, len(l.balances))
	for accountID, balance := range l.balances {
		balances[accountID] = balance
	}

	return balances
}
