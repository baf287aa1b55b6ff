package state

import (
	"fmt"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/genesis"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/merkle"
	"github.com/ardanlabs/liquidstake/foundation/staking/store"
	"github.com/ardanlabs/liquidstake/foundation/staking/withdraw"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Summary aggregates the pool's position for operators and dashboards.
type Summary struct {
	PoolAccount         ledger.AccountID
	ExchangeRate        uint256.Int
	TotalShares         uint256.Int
	ParticipatingShares uint256.Int
	ExcludedShares      uint256.Int
	TotalSupply         uint256.Int
	ParticipatingSupply uint256.Int
	ExcludedBalance     uint256.Int
	Accounts            int
	ExcludedAccounts    int
	EmissionModel       string
	EmissionRate        uint256.Int
	MaxEmissionRate     uint256.Int
	RebaseInterval      time.Duration
	LastRebase          uint64
	NextRebase          uint64
	WithdrawalDelay     time.Duration
	PendingBase         uint256.Int
	Requests            int
	ProcessedRequests   int
	Reserves            uint256.Int
	Checkpoint          uint64
	CheckpointHash      string
}

// AccountProof carries a merkle proof that an account record is part of the
// checkpointed account set.
type AccountProof struct {
	Account ledger.Account
	Root    string
	Proof   []string
	Order   []int64
}

// AuditReport carries the accounting cross-checks for the whole pool.
type AuditReport struct {
	Accounts      int
	Excluded      int
	TotalShares   uint256.Int
	TotalSupply   uint256.Int
	BalanceSum    uint256.Int
	Conserved     bool
	Drift         uint256.Int
	TallyMatch    bool
	RegistryMatch bool
	PendingBase   uint256.Int
	Reserves      uint256.Int
	Solvent       bool
	AccountsRoot  string
}

// =============================================================================

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.genesis
}

// RetrievePoolAccount returns the account the pool holds reserves under.
func (s *State) RetrievePoolAccount() ledger.AccountID {
	return s.pool
}

// RetrieveAccounts returns a copy of every account record.
func (s *State) RetrieveAccounts() []ledger.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Accounts()
}

// QueryAccount returns the record for the specified account.
func (s *State) QueryAccount(accountID ledger.AccountID) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Account(accountID)
}

// RetrieveBalance returns the spendable derivative balance for the account.
func (s *State) RetrieveBalance(accountID ledger.AccountID) (uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.BalanceOf(accountID)
}

// RetrieveExchangeRate returns the current tokens-per-share rate.
func (s *State) RetrieveExchangeRate() uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.ExchangeRate()
}

// RetrieveExcluded returns the membership of the exclusion registry.
func (s *State) RetrieveExcluded() []ledger.AccountID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Excluded()
}

// RetrieveRequests returns the account's withdrawal requests in creation
// order.
func (s *State) RetrieveRequests(accountID ledger.AccountID) []withdraw.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queue.ListByAccount(accountID)
}

// RetrieveWithdrawalDelay returns the maturity delay in force right now.
func (s *State) RetrieveWithdrawalDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return time.Duration(s.delay) * time.Second
}

// RetrieveCheckpoint returns the sequence and hash of the latest checkpoint.
func (s *State) RetrieveCheckpoint() (uint64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sequence, s.prevHash
}

// RetrieveCheckpointHeaders returns the chained headers for the inclusive
// sequence range, clamped to what the store holds. Passing zero for to
// means the latest.
func (s *State) RetrieveCheckpointHeaders(from uint64, to uint64) ([]store.CheckpointHeader, error) {
	s.mu.Lock()
	latest := s.sequence
	s.mu.Unlock()

	if from < 1 {
		from = 1
	}
	if to == 0 || to > latest {
		to = latest
	}
	if from > to {
		return nil, nil
	}

	headers := make([]store.CheckpointHeader, 0, to-from+1)
	for seq := from; seq <= to; seq++ {
		header, err := s.store.Header(seq)
		if err != nil {
			return nil, fmt.Errorf("reading checkpoint %d: %w", seq, err)
		}
		headers = append(headers, header)
	}

	return headers, nil
}

// RetrieveSummary aggregates the pool position under one lock so the
// numbers are mutually consistent.
func (s *State) RetrieveSummary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supply, err := s.book.TotalSupply()
	if err != nil {
		return Summary{}, err
	}
	participating, err := s.book.ParticipatingSupply()
	if err != nil {
		return Summary{}, err
	}
	excluded, err := s.book.TotalExcludedBalance()
	if err != nil {
		return Summary{}, err
	}
	pending, err := s.queue.PendingBase()
	if err != nil {
		return Summary{}, err
	}

	total, processed := s.queue.Counts()

	sum := Summary{
		PoolAccount:         s.pool,
		ExchangeRate:        s.book.ExchangeRate(),
		TotalShares:         s.book.TotalShares(),
		ParticipatingShares: s.book.ParticipatingShares(),
		ExcludedShares:      s.book.ExcludedSharesTally(),
		TotalSupply:         supply,
		ParticipatingSupply: participating,
		ExcludedBalance:     excluded,
		Accounts:            len(s.book.Accounts()),
		ExcludedAccounts:    len(s.book.Excluded()),
		EmissionModel:       s.engine.Model(),
		EmissionRate:        s.engine.RatePerYear(),
		MaxEmissionRate:     s.engine.MaxRate(),
		RebaseInterval:      s.engine.Interval(),
		LastRebase:          s.engine.LastRebase(),
		NextRebase:          s.engine.NextRebase(),
		WithdrawalDelay:     time.Duration(s.delay) * time.Second,
		PendingBase:         pending,
		Requests:            total,
		ProcessedRequests:   processed,
		Reserves:            s.bank.BalanceOf(s.pool),
		Checkpoint:          s.sequence,
		CheckpointHash:      s.prevHash,
	}

	return sum, nil
}

// QueryProof produces a merkle proof that the account's current record is
// part of the checkpointed account set.
func (s *State) QueryProof(accountID ledger.AccountID) (AccountProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.book.Account(accountID)
	if err != nil {
		return AccountProof{}, err
	}

	tree, err := merkle.NewTree(s.book.Accounts())
	if err != nil {
		return AccountProof{}, fmt.Errorf("building accounts tree: %w", err)
	}

	proof, order, err := tree.Proof(account)
	if err != nil {
		return AccountProof{}, fmt.Errorf("building proof: %w", err)
	}

	hexProof := make([]string, len(proof))
	for i, p := range proof {
		hexProof[i] = hexutil.Encode(p)
	}

	ap := AccountProof{
		Account: account,
		Root:    tree.RootHex(),
		Proof:   hexProof,
		Order:   order,
	}

	return ap, nil
}

// Audit cross-checks every representation of the pool's accounting against
// the others and reports where they stand.
func (s *State) Audit() (AuditReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.book.Accounts()

	var balanceSum uint256.Int
	flagged := 0
	flags := make(map[ledger.AccountID]bool, len(accounts))
	for _, account := range accounts {
		balance, err := s.book.BalanceOf(account.AccountID)
		if err != nil {
			return AuditReport{}, err
		}
		if _, overflow := balanceSum.AddOverflow(&balanceSum, &balance); overflow {
			return AuditReport{}, ledger.ErrOverflow
		}
		if account.Excluded {
			flagged++
		}
		flags[account.AccountID] = account.Excluded
	}

	registry := s.book.Excluded()
	registryMatch := len(registry) == flagged
	for _, accountID := range registry {
		if !flags[accountID] {
			registryMatch = false
		}
	}

	supply, err := s.book.TotalSupply()
	if err != nil {
		return AuditReport{}, err
	}

	var drift uint256.Int
	_, underflow := drift.SubOverflow(&supply, &balanceSum)
	conserved := !underflow
	if underflow {
		drift.Clear()
	}

	enumerated, err := s.book.TotalExcludedBalance()
	if err != nil {
		return AuditReport{}, err
	}
	tally := s.book.ExcludedSharesTally()

	pending, err := s.queue.PendingBase()
	if err != nil {
		return AuditReport{}, err
	}
	reserves := s.bank.BalanceOf(s.pool)

	report := AuditReport{
		Accounts:      len(accounts),
		Excluded:      flagged,
		TotalShares:   s.book.TotalShares(),
		TotalSupply:   supply,
		BalanceSum:    balanceSum,
		Conserved:     conserved,
		Drift:         drift,
		TallyMatch:    tally.Eq(&enumerated),
		RegistryMatch: registryMatch,
		PendingBase:   pending,
		Reserves:      reserves,
		Solvent:       !reserves.Lt(&pending),
		AccountsRoot:  accountsRoot(accounts),
	}

	return report, nil
}
