// Package ledger maintains the in-memory share book for the staking pool.
// Shares are the durable accounting unit. Participating accounts appreciate
// through a shared exchange rate while excluded accounts hold shares pinned
// one to one with their balance.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"
)

// Precision is the fixed point scale for the exchange rate. A rate equal to
// Precision converts shares to balances one to one.
var Precision = uint256.NewInt(1_000_000_000_000_000_000)

// Set of error variables for ledger operations.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrAmountTooSmall      = errors.New("amount converts to zero shares at the current exchange rate")
	ErrSelfTransfer        = errors.New("sending tokens to yourself")
	ErrNonZeroBalance      = errors.New("account balance must be zero to exclude")
	ErrAlreadyExcluded     = errors.New("account already excluded")
	ErrNotExcluded         = errors.New("account not excluded")
	ErrNoParticipants      = errors.New("no participating shares")
	ErrInvalidRate         = errors.New("exchange rate below one")
	ErrOverflow            = errors.New("arithmetic overflow")
)

// Ledger manages the share positions for every account along with the
// exchange rate and the running share tallies per class.
type Ledger struct {
	mu sync.RWMutex

	accounts map[AccountID]Account
	registry *Registry

	rate           uint256.Int
	totalShares    uint256.Int
	participating  uint256.Int
	excludedShares uint256.Int
}

// New constructs an empty ledger with the exchange rate at one.
func New() *Ledger {
	l := Ledger{
		accounts: make(map[AccountID]Account),
		registry: NewRegistry(),
	}
	l.rate.Set(Precision)

	return &l
}

// Load replaces the ledger content with the specified accounts and exchange
// rate. The share tallies and the exclusion registry are recomputed from the
// account records rather than trusted from the caller.
func (l *Ledger) Load(accounts []Account, rate uint256.Int) error {
	if rate.Lt(Precision) {
		return ErrInvalidRate
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts = make(map[AccountID]Account, len(accounts))
	l.registry = NewRegistry()
	l.rate.Set(&rate)
	l.totalShares.Clear()
	l.participating.Clear()
	l.excludedShares.Clear()

	for _, account := range accounts {
		if !account.AccountID.IsAccountID() {
			return fmt.Errorf("account %q: invalid account format", account.AccountID)
		}
		if _, exists := l.accounts[account.AccountID]; exists {
			return fmt.Errorf("account %q: duplicate record", account.AccountID)
		}

		l.accounts[account.AccountID] = account

		if _, overflow := l.totalShares.AddOverflow(&l.totalShares, &account.Shares); overflow {
			return ErrOverflow
		}

		tally := &l.participating
		if account.Excluded {
			tally = &l.excludedShares
			l.registry.Add(account.AccountID)
		}
		if _, overflow := tally.AddOverflow(tally, &account.Shares); overflow {
			return ErrOverflow
		}
	}

	return nil
}

// Clone makes a deep copy of the ledger. The copy shares no state with the
// original so either side can keep mutating safely.
func (l *Ledger) Clone() *Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	clone := Ledger{
		accounts: make(map[AccountID]Account, len(l.accounts)),
		registry: l.registry.Clone(),
	}

	for accountID, account := range l.accounts {
		clone.accounts[accountID] = account
	}

	clone.rate.Set(&l.rate)
	clone.totalShares.Set(&l.totalShares)
	clone.participating.Set(&l.participating)
	clone.excludedShares.Set(&l.excludedShares)

	return &clone
}

// =============================================================================

// Mint credits the account with newly issued tokens. The share amount is
// derived from the account's class and all bookkeeping moves together or
// not at all.
func (l *Ledger) Mint(toID AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	to := l.accounts[toID]
	to.AccountID = toID

	shares, err := l.sharesFor(to, amount)
	if err != nil {
		return err
	}

	var newShares, newTotal, newTally uint256.Int
	if _, overflow := newShares.AddOverflow(&to.Shares, &shares); overflow {
		return ErrOverflow
	}
	if _, overflow := newTotal.AddOverflow(&l.totalShares, &shares); overflow {
		return ErrOverflow
	}

	tally := l.tallyFor(to)
	if _, overflow := newTally.AddOverflow(tally, &shares); overflow {
		return ErrOverflow
	}

	to.Shares = newShares
	l.totalShares = newTotal
	tally.Set(&newTally)
	l.accounts[toID] = to

	return nil
}

// Burn removes tokens from the account. An arithmetic underflow on the
// share deduction signals an insufficient balance.
func (l *Ledger) Burn(fromID AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from := l.accounts[fromID]
	from.AccountID = fromID

	balance, err := l.balanceFor(from)
	if err != nil {
		return err
	}
	if amount.Gt(&balance) {
		return ErrInsufficientBalance
	}

	shares, err := l.sharesFor(from, amount)
	if err != nil {
		return err
	}

	var newShares, newTotal, newTally uint256.Int
	if _, underflow := newShares.SubOverflow(&from.Shares, &shares); underflow {
		return ErrInsufficientBalance
	}
	if _, underflow := newTotal.SubOverflow(&l.totalShares, &shares); underflow {
		return ErrOverflow
	}

	tally := l.tallyFor(from)
	if _, underflow := newTally.SubOverflow(tally, &shares); underflow {
		return ErrOverflow
	}

	from.Shares = newShares
	l.totalShares = newTotal
	tally.Set(&newTally)
	l.accounts[fromID] = from

	return nil
}

// Transfer moves tokens between two accounts. When either endpoint is
// excluded the shares move one to one with the amount, so a participating
// sender needs a share position covering the raw amount, not just a balance
// covering it. That asymmetry is what keeps unrealized appreciation from
// crossing the exclusion boundary.
func (l *Ledger) Transfer(fromID AccountID, toID AccountID, amount uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from := l.accounts[fromID]
	from.AccountID = fromID
	to := l.accounts[toID]
	to.AccountID = toID

	balance, err := l.balanceFor(from)
	if err != nil {
		return err
	}
	if amount.Gt(&balance) {
		return ErrInsufficientBalance
	}

	var shares uint256.Int
	switch {
	case from.Excluded || to.Excluded:
		shares.Set(&amount)

	default:
		if _, overflow := shares.MulDivOverflow(&amount, Precision, &l.rate); overflow {
			return ErrOverflow
		}
		if shares.IsZero() {
			return ErrAmountTooSmall
		}
	}

	var newFrom, newTo uint256.Int
	if _, underflow := newFrom.SubOverflow(&from.Shares, &shares); underflow {
		return ErrInsufficientBalance
	}
	if _, overflow := newTo.AddOverflow(&to.Shares, &shares); overflow {
		return ErrOverflow
	}

	if from.Excluded != to.Excluded {
		fromTally := l.tallyFor(from)
		toTally := l.tallyFor(to)

		var newFromTally, newToTally uint256.Int
		if _, underflow := newFromTally.SubOverflow(fromTally, &shares); underflow {
			return ErrOverflow
		}
		if _, overflow := newToTally.AddOverflow(toTally, &shares); overflow {
			return ErrOverflow
		}

		fromTally.Set(&newFromTally)
		toTally.Set(&newToTally)
	}

	from.Shares = newFrom
	to.Shares = newTo
	l.accounts[fromID] = from
	l.accounts[toID] = to

	return nil
}

// Distribute spreads the specified token amount across all participating
// shares by advancing the exchange rate. No individual share position
// changes. The rate delta applied is returned, which is zero when the
// amount is too small to move the rate.
func (l *Ledger) Distribute(amount uint256.Int) (uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.participating.IsZero() {
		return uint256.Int{}, ErrNoParticipants
	}
	if amount.IsZero() {
		return uint256.Int{}, nil
	}

	var delta uint256.Int
	if _, overflow := delta.MulDivOverflow(&amount, Precision, &l.participating); overflow {
		return uint256.Int{}, ErrOverflow
	}
	if delta.IsZero() {
		return uint256.Int{}, nil
	}

	var newRate uint256.Int
	if _, overflow := newRate.AddOverflow(&l.rate, &delta); overflow {
		return uint256.Int{}, ErrOverflow
	}

	l.rate = newRate

	return delta, nil
}

// SetExcluded moves the account in or out of the excluded class. Entering
// exclusion requires an exactly zero balance so no appreciated value can be
// parked outside the pool. Leaving exclusion is unconditional and brings the
// account's shares back under the exchange rate.
func (l *Ledger) SetExcluded(accountID AccountID, excluded bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	account := l.accounts[accountID]
	account.AccountID = accountID

	if excluded {
		if account.Excluded {
			return ErrAlreadyExcluded
		}

		balance, err := l.balanceFor(account)
		if err != nil {
			return err
		}
		if !balance.IsZero() {
			return ErrNonZeroBalance
		}

		if err := l.moveTally(&l.participating, &l.excludedShares, account.Shares); err != nil {
			return err
		}

		account.Excluded = true
		l.registry.Add(accountID)
		l.accounts[accountID] = account

		return nil
	}

	if !account.Excluded {
		return ErrNotExcluded
	}

	if err := l.moveTally(&l.excludedShares, &l.participating, account.Shares); err != nil {
		return err
	}

	account.Excluded = false
	l.registry.Remove(accountID)
	l.accounts[accountID] = account

	return nil
}

// =============================================================================

// SharesToBalance converts a share amount to a balance using the account's
// class, flooring against the holder.
func (l *Ledger) SharesToBalance(accountID AccountID, shares uint256.Int) (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account := l.accounts[accountID]
	account.Shares = shares

	return l.balanceFor(account)
}

// BalanceToShares converts a balance amount to shares using the account's
// class, flooring against the holder.
func (l *Ledger) BalanceToShares(accountID AccountID, amount uint256.Int) (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if amount.IsZero() {
		return uint256.Int{}, nil
	}

	return l.sharesFor(l.accounts[accountID], amount)
}

// BalanceOf returns the spendable balance for the account. Unknown accounts
// report a zero balance.
func (l *Ledger) BalanceOf(accountID AccountID) (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balanceFor(l.accounts[accountID])
}

// SharesOf returns the raw share position for the account.
func (l *Ledger) SharesOf(accountID AccountID) uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.accounts[accountID].Shares
}

// ExchangeRate returns the current tokens-per-share rate at Precision scale.
func (l *Ledger) ExchangeRate() uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.rate
}

// TotalShares returns the share total across both account classes.
func (l *Ledger) TotalShares() uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.totalShares
}

// ParticipatingShares returns the shares held by participating accounts.
func (l *Ledger) ParticipatingShares() uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.participating
}

// ExcludedSharesTally returns the running tally of shares held by excluded
// accounts. The tally is informational, the canonical excluded balance is
// computed by enumeration.
func (l *Ledger) ExcludedSharesTally() uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.excludedShares
}

// TotalExcludedBalance enumerates the exclusion registry and sums the
// member balances. The excluded population stays small so the walk is
// preferred over trusting a stored total.
func (l *Ledger) TotalExcludedBalance() (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.excludedBalance()
}

// ParticipatingSupply returns the token supply held by participating
// accounts at the current exchange rate.
func (l *Ledger) ParticipatingSupply() (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.participatingSupply()
}

// TotalSupply returns the sum of all excluded balances and the
// participating supply.
func (l *Ledger) TotalSupply() (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	excluded, err := l.excludedBalance()
	if err != nil {
		return uint256.Int{}, err
	}

	participating, err := l.participatingSupply()
	if err != nil {
		return uint256.Int{}, err
	}

	var supply uint256.Int
	if _, overflow := supply.AddOverflow(&excluded, &participating); overflow {
		return uint256.Int{}, ErrOverflow
	}

	return supply, nil
}

// IsExcluded reports whether the account is in the excluded class.
func (l *Ledger) IsExcluded(accountID AccountID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.accounts[accountID].Excluded
}

// Excluded returns the membership of the exclusion registry.
func (l *Ledger) Excluded() []AccountID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.registry.Members()
}

// Account returns the record for the specified account.
func (l *Ledger) Account(accountID AccountID) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, exists := l.accounts[accountID]
	if !exists {
		return Account{}, ErrAccountNotFound
	}

	return account, nil
}

// Accounts returns a copy of every account record sorted by account id.
func (l *Ledger) Accounts() []Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	accounts := make([]Account, 0, len(l.accounts))
	for _, account := range l.accounts {
		accounts = append(accounts, account)
	}
	sort.Sort(byAccount(accounts))

	return accounts
}

// =============================================================================

// balanceFor computes the spendable balance for an account record. The
// caller must hold at least a read lock.
func (l *Ledger) balanceFor(account Account) (uint256.Int, error) {
	if account.Excluded {
		return account.Shares, nil
	}

	var balance uint256.Int
	if _, overflow := balance.MulDivOverflow(&account.Shares, &l.rate, Precision); overflow {
		return uint256.Int{}, ErrOverflow
	}

	return balance, nil
}

// sharesFor converts a balance amount into shares for an account record.
// The caller must hold at least a read lock.
func (l *Ledger) sharesFor(account Account, amount uint256.Int) (uint256.Int, error) {
	if account.Excluded {
		return amount, nil
	}

	var shares uint256.Int
	if _, overflow := shares.MulDivOverflow(&amount, Precision, &l.rate); overflow {
		return uint256.Int{}, ErrOverflow
	}
	if shares.IsZero() && !amount.IsZero() {
		return uint256.Int{}, ErrAmountTooSmall
	}

	return shares, nil
}

// tallyFor returns the share tally the account belongs to. The caller must
// hold the write lock.
func (l *Ledger) tallyFor(account Account) *uint256.Int {
	if account.Excluded {
		return &l.excludedShares
	}

	return &l.participating
}

// moveTally shifts a share amount between the two class tallies. The caller
// must hold the write lock.
func (l *Ledger) moveTally(from *uint256.Int, to *uint256.Int, shares uint256.Int) error {
	var newFrom, newTo uint256.Int
	if _, underflow := newFrom.SubOverflow(from, &shares); underflow {
		return ErrOverflow
	}
	if _, overflow := newTo.AddOverflow(to, &shares); overflow {
		return ErrOverflow
	}

	from.Set(&newFrom)
	to.Set(&newTo)

	return nil
}

// excludedBalance sums the balances of the registry membership. The caller
// must hold at least a read lock.
func (l *Ledger) excludedBalance() (uint256.Int, error) {
	var total uint256.Int
	for _, accountID := range l.registry.members {
		account := l.accounts[accountID]
		if _, overflow := total.AddOverflow(&total, &account.Shares); overflow {
			return uint256.Int{}, ErrOverflow
		}
	}

	return total, nil
}

// participatingSupply scales the participating share tally by the exchange
// rate. The caller must hold at least a read lock.
func (l *Ledger) participatingSupply() (uint256.Int, error) {
	var supply uint256.Int
	if _, overflow := supply.MulDivOverflow(&l.participating, &l.rate, Precision); overflow {
		return uint256.Int{}, ErrOverflow
	}

	return supply, nil
}
