package public

import (
	"github.com/ardanlabs/liquidstake/business/sys/validate"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/state"
)

// info represents one account's position in the pool.
type info struct {
	Account  ledger.AccountID `json:"account"`
	Name     string           `json:"name"`
	Shares   string           `json:"shares"`
	Balance  string           `json:"balance"`
	Excluded bool             `json:"excluded"`
}

// actInfo wraps the account list with the checkpoint it was read at.
type actInfo struct {
	Checkpoint     uint64 `json:"checkpoint"`
	CheckpointHash string `json:"checkpoint_hash"`
	ExchangeRate   string `json:"exchange_rate"`
	Accounts       []info `json:"accounts"`
}

// balance represents a base asset position in the bank.
type balance struct {
	Account ledger.AccountID `json:"account"`
	Name    string           `json:"name"`
	Balance string           `json:"balance"`
}

// bankInfo wraps the bank balances with the pool's reserve position.
type bankInfo struct {
	PoolAccount ledger.AccountID `json:"pool_account"`
	Reserves    string           `json:"reserves"`
	Balances    []balance        `json:"balances"`
}

// wrappedInfo wraps the wrapped token balances with the circulation total.
type wrappedInfo struct {
	Vault        ledger.AccountID `json:"vault"`
	TotalWrapped string           `json:"total_wrapped"`
	Balances     []balance        `json:"balances"`
}

// request represents one withdrawal in an account's queue.
type request struct {
	ID          int    `json:"id"`
	BaseAmount  string `json:"base_amount"`
	Derivative  string `json:"derivative"`
	RequestedAt uint64 `json:"requested_at"`
	MaturesAt   uint64 `json:"matures_at"`
	Processed   bool   `json:"processed"`
}

// proof carries the merkle proof that an account is part of the
// checkpointed account set.
type proof struct {
	Account  ledger.AccountID `json:"account"`
	Shares   string           `json:"shares"`
	Excluded bool             `json:"excluded"`
	Root     string           `json:"root"`
	Proof    []string         `json:"proof"`
	Order    []int64          `json:"order"`
}

// summary renders the pool wide position with the big integers as
// decimal strings.
type summary struct {
	PoolAccount         ledger.AccountID `json:"pool_account"`
	ExchangeRate        string           `json:"exchange_rate"`
	TotalShares         string           `json:"total_shares"`
	ParticipatingShares string           `json:"participating_shares"`
	ExcludedShares      string           `json:"excluded_shares"`
	TotalSupply         string           `json:"total_supply"`
	ParticipatingSupply string           `json:"participating_supply"`
	ExcludedBalance     string           `json:"excluded_balance"`
	Accounts            int              `json:"accounts"`
	ExcludedAccounts    int              `json:"excluded_accounts"`
	EmissionModel       string           `json:"emission_model"`
	EmissionRate        string           `json:"emission_rate"`
	MaxEmissionRate     string           `json:"max_emission_rate"`
	RebaseInterval      uint64           `json:"rebase_interval_seconds"`
	LastRebase          uint64           `json:"last_rebase"`
	NextRebase          uint64           `json:"next_rebase"`
	WithdrawalDelay     uint64           `json:"withdrawal_delay_seconds"`
	PendingBase         string           `json:"pending_base"`
	Requests            int              `json:"requests"`
	ProcessedRequests   int              `json:"processed_requests"`
	Reserves            string           `json:"reserves"`
	Checkpoint          uint64           `json:"checkpoint"`
	CheckpointHash      string           `json:"checkpoint_hash"`
}

// toSummary converts the state summary for the client.
func toSummary(sum state.Summary) summary {
	return summary{
		PoolAccount:         sum.PoolAccount,
		ExchangeRate:        sum.ExchangeRate.Dec(),
		TotalShares:         sum.TotalShares.Dec(),
		ParticipatingShares: sum.ParticipatingShares.Dec(),
		ExcludedShares:      sum.ExcludedShares.Dec(),
		TotalSupply:         sum.TotalSupply.Dec(),
		ParticipatingSupply: sum.ParticipatingSupply.Dec(),
		ExcludedBalance:     sum.ExcludedBalance.Dec(),
		Accounts:            sum.Accounts,
		ExcludedAccounts:    sum.ExcludedAccounts,
		EmissionModel:       sum.EmissionModel,
		EmissionRate:        sum.EmissionRate.Dec(),
		MaxEmissionRate:     sum.MaxEmissionRate.Dec(),
		RebaseInterval:      uint64(sum.RebaseInterval.Seconds()),
		LastRebase:          sum.LastRebase,
		NextRebase:          sum.NextRebase,
		WithdrawalDelay:     uint64(sum.WithdrawalDelay.Seconds()),
		PendingBase:         sum.PendingBase.Dec(),
		Requests:            sum.Requests,
		ProcessedRequests:   sum.ProcessedRequests,
		Reserves:            sum.Reserves.Dec(),
		Checkpoint:          sum.Checkpoint,
		CheckpointHash:      sum.CheckpointHash,
	}
}

// =============================================================================

// AppStake is what a staker submits to deposit base asset into the pool.
// The recipient defaults to the staking account when left empty.
type AppStake struct {
	Account   string `json:"account" validate:"required"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount" validate:"required"`
}

// Validate checks the data in the model.
func (app AppStake) Validate() error {
	return validate.Check(app)
}

// AppTransfer is what a holder submits to move derivative tokens.
type AppTransfer struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

// Validate checks the data in the model.
func (app AppTransfer) Validate() error {
	return validate.Check(app)
}

// AppApprove is what a holder submits to authorize the pool to debit
// their base asset.
type AppApprove struct {
	Owner   string `json:"owner" validate:"required"`
	Spender string `json:"spender" validate:"required"`
	Amount  string `json:"amount" validate:"required"`
}

// Validate checks the data in the model.
func (app AppApprove) Validate() error {
	return validate.Check(app)
}

// AppWithdrawalRequest is what a holder submits to start the withdrawal
// delay clock.
type AppWithdrawalRequest struct {
	Account string `json:"account" validate:"required"`
	Amount  string `json:"amount" validate:"required"`
}

// Validate checks the data in the model.
func (app AppWithdrawalRequest) Validate() error {
	return validate.Check(app)
}

// AppWithdrawalProcess is what a holder submits to claim a matured
// withdrawal. The request id is a pointer because id zero is valid.
type AppWithdrawalProcess struct {
	Account   string `json:"account" validate:"required"`
	RequestID *int   `json:"request_id" validate:"required"`
}

// Validate checks the data in the model.
func (app AppWithdrawalProcess) Validate() error {
	return validate.Check(app)
}

// AppWrappedMove is what a holder submits to wrap or unwrap base asset.
type AppWrappedMove struct {
	Account string `json:"account" validate:"required"`
	Amount  string `json:"amount" validate:"required"`
}

// Validate checks the data in the model.
func (app AppWrappedMove) Validate() error {
	return validate.Check(app)
}
