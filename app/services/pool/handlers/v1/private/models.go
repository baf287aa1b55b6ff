package private

import (
	"github.com/ardanlabs/liquidstake/business/sys/validate"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
	"github.com/ardanlabs/liquidstake/foundation/staking/state"
)

// status reports the pool's position for operators.
type status struct {
	Checkpoint     uint64 `json:"checkpoint"`
	CheckpointHash string `json:"checkpoint_hash"`
	Accounts       int    `json:"accounts"`
	TotalSupply    string `json:"total_supply"`
	PendingBase    string `json:"pending_base"`
	Reserves       string `json:"reserves"`
	ExchangeRate   string `json:"exchange_rate"`
	LastRebase     uint64 `json:"last_rebase"`
	NextRebase     uint64 `json:"next_rebase"`
}

// settlement renders the outcome of a rebase.
type settlement struct {
	Timestamp    uint64 `json:"timestamp"`
	Elapsed      uint64 `json:"elapsed_seconds"`
	Amount       string `json:"amount"`
	RateDelta    string `json:"rate_delta"`
	ExchangeRate string `json:"exchange_rate"`
}

// toSettlement converts a rebase result for the client.
func toSettlement(result rebase.Result) settlement {
	return settlement{
		Timestamp:    result.Timestamp,
		Elapsed:      result.Elapsed,
		Amount:       result.Amount.Dec(),
		RateDelta:    result.RateDelta.Dec(),
		ExchangeRate: result.ExchangeRate.Dec(),
	}
}

// audit renders the accounting cross-checks for the whole pool.
type audit struct {
	Accounts      int    `json:"accounts"`
	Excluded      int    `json:"excluded"`
	TotalShares   string `json:"total_shares"`
	TotalSupply   string `json:"total_supply"`
	BalanceSum    string `json:"balance_sum"`
	Conserved     bool   `json:"conserved"`
	Drift         string `json:"drift"`
	TallyMatch    bool   `json:"tally_match"`
	RegistryMatch bool   `json:"registry_match"`
	PendingBase   string `json:"pending_base"`
	Reserves      string `json:"reserves"`
	Solvent       bool   `json:"solvent"`
	AccountsRoot  string `json:"accounts_root"`
}

// toAudit converts the state audit report for the client.
func toAudit(report state.AuditReport) audit {
	return audit{
		Accounts:      report.Accounts,
		Excluded:      report.Excluded,
		TotalShares:   report.TotalShares.Dec(),
		TotalSupply:   report.TotalSupply.Dec(),
		BalanceSum:    report.BalanceSum.Dec(),
		Conserved:     report.Conserved,
		Drift:         report.Drift.Dec(),
		TallyMatch:    report.TallyMatch,
		RegistryMatch: report.RegistryMatch,
		PendingBase:   report.PendingBase.Dec(),
		Reserves:      report.Reserves.Dec(),
		Solvent:       report.Solvent,
		AccountsRoot:  report.AccountsRoot,
	}
}

// excluded represents one account on the exclusion registry.
type excluded struct {
	Account ledger.AccountID `json:"account"`
	Name    string           `json:"name"`
	Shares  string           `json:"shares"`
}

// =============================================================================

// AppExcluded is what an operator submits to flip an account's exclusion
// flag. The flag is a pointer because false is a meaningful value.
type AppExcluded struct {
	Account  string `json:"account" validate:"required"`
	Excluded *bool  `json:"excluded" validate:"required"`
}

// Validate checks the data in the model.
func (app AppExcluded) Validate() error {
	return validate.Check(app)
}

// AppEmissionRate is what an operator submits to change the emission rate.
type AppEmissionRate struct {
	Rate string `json:"rate" validate:"required"`
}

// Validate checks the data in the model.
func (app AppEmissionRate) Validate() error {
	return validate.Check(app)
}

// AppRebaseInterval is what an operator submits to change the minimum time
// between rebases.
type AppRebaseInterval struct {
	Seconds uint64 `json:"seconds" validate:"required,min=1"`
}

// Validate checks the data in the model.
func (app AppRebaseInterval) Validate() error {
	return validate.Check(app)
}

// AppWithdrawalDelay is what an operator submits to change the withdrawal
// delay. The seconds are a pointer because zero disables the delay.
type AppWithdrawalDelay struct {
	Seconds *uint64 `json:"seconds" validate:"required"`
}

// Validate checks the data in the model.
func (app AppWithdrawalDelay) Validate() error {
	return validate.Check(app)
}
