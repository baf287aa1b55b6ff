// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	v1 "github.com/ardanlabs/liquidstake/business/web/v1"
	"github.com/ardanlabs/liquidstake/foundation/events"
	"github.com/ardanlabs/liquidstake/foundation/nameservice"
	"github.com/ardanlabs/liquidstake/foundation/staking/bank"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/state"
	"github.com/ardanlabs/liquidstake/foundation/staking/wrapped"
	"github.com/ardanlabs/liquidstake/foundation/web"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Handlers manages the set of staker facing endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Bank    *bank.Ledger
	Wrapped *wrapped.Ledger
	NS      *nameservice.NameService
	WS      websocket.Upgrader
	Evts    *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Summary returns the pool wide position.
func (h Handlers) Summary(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sum, err := h.State.RetrieveSummary()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toSummary(sum), http.StatusOK)
}

// Accounts returns the current derivative positions for all accounts or for
// the one specified on the route.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var accounts []ledger.Account
	switch account {
	case "":
		accounts = h.State.RetrieveAccounts()

	default:
		accountID, err := ledger.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		act, err := h.State.QueryAccount(accountID)
		if err != nil {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		accounts = []ledger.Account{act}
	}

	acts := make([]info, 0, len(accounts))
	for _, act := range accounts {
		bal, err := h.State.RetrieveBalance(act.AccountID)
		if err != nil {
			return err
		}

		acts = append(acts, info{
			Account:  act.AccountID,
			Name:     h.NS.Lookup(act.AccountID),
			Shares:   act.Shares.Dec(),
			Balance:  bal.Dec(),
			Excluded: act.Excluded,
		})
	}

	sequence, hash := h.State.RetrieveCheckpoint()
	rate := h.State.RetrieveExchangeRate()

	ai := actInfo{
		Checkpoint:     sequence,
		CheckpointHash: hash,
		ExchangeRate:   rate.Dec(),
		Accounts:       acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// Proof returns a merkle proof that the account's position is part of the
// latest checkpoint.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := ledger.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	ap, err := h.State.QueryProof(accountID)
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	prf := proof{
		Account:  ap.Account.AccountID,
		Shares:   ap.Account.Shares.Dec(),
		Excluded: ap.Account.Excluded,
		Root:     ap.Root,
		Proof:    ap.Proof,
		Order:    ap.Order,
	}

	return web.Respond(ctx, w, prf, http.StatusOK)
}

// BankBalances returns the base asset balances for all accounts or for the
// one specified on the route.
func (h Handlers) BankBalances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	balances := h.Bank.Balances()
	if account != "" {
		accountID, err := ledger.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		amount := h.Bank.BalanceOf(accountID)
		balances = map[ledger.AccountID]uint256.Int{accountID: amount}
	}

	bals := make([]balance, 0, len(balances))
	for accountID, amount := range balances {
		bals = append(bals, balance{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Balance: amount.Dec(),
		})
	}

	reserves := h.Bank.Reserves()

	bi := bankInfo{
		PoolAccount: h.Bank.Pool(),
		Reserves:    reserves.Dec(),
		Balances:    bals,
	}

	return web.Respond(ctx, w, bi, http.StatusOK)
}

// Approve records an authorization for the pool to debit the owner's
// base asset.
func (h Handlers) Approve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppApprove
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	owner, err := ledger.ToAccountID(app.Owner)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	spender, err := ledger.ToAccountID(app.Spender)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	amount, err := uint256.FromDecimal(app.Amount)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("amount %q: %w", app.Amount, err), http.StatusBadRequest)
	}

	h.Log.Infow("approve", "traceid", v.TraceID, "owner", owner, "spender", spender, "amount", app.Amount)
	h.Bank.Approve(owner, spender, *amount)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "approval recorded",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stake deposits base asset into the pool and mints derivative tokens to
// the recipient.
func (h Handlers) Stake(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppStake
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	staker, err := ledger.ToAccountID(app.Account)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	recipient := staker
	if app.Recipient != "" {
		if recipient, err = ledger.ToAccountID(app.Recipient); err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
	}

	amount, err := uint256.FromDecimal(app.Amount)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("amount %q: %w", app.Amount, err), http.StatusBadRequest)
	}

	h.Log.Infow("add stake", "traceid", v.TraceID, "account", staker, "recipient", recipient, "amount", app.Amount)
	if err := h.State.Stake(staker, recipient, *amount); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "stake accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Transfer moves derivative tokens between two accounts.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppTransfer
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	from, err := ledger.ToAccountID(app.From)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	to, err := ledger.ToAccountID(app.To)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	amount, err := uint256.FromDecimal(app.Amount)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("amount %q: %w", app.Amount, err), http.StatusBadRequest)
	}

	h.Log.Infow("add transfer", "traceid", v.TraceID, "from", from, "to", to, "amount", app.Amount)
	if err := h.State.Transfer(from, to, *amount); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transfer accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Withdrawals returns the withdrawal queue for the specified account.
func (h Handlers) Withdrawals(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := ledger.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	delay := uint64(h.State.RetrieveWithdrawalDelay() / time.Second)

	list := h.State.RetrieveRequests(accountID)
	reqs := make([]request, len(list))
	for i, req := range list {
		reqs[i] = request{
			ID:          req.ID,
			BaseAmount:  req.BaseAmount.Dec(),
			Derivative:  req.Derivative.Dec(),
			RequestedAt: req.RequestedAt,
			MaturesAt:   req.RequestedAt + delay,
			Processed:   req.Processed,
		}
	}

	return web.Respond(ctx, w, reqs, http.StatusOK)
}

// RequestWithdrawal burns derivative tokens and queues a claim on the
// base asset.
func (h Handlers) RequestWithdrawal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppWithdrawalRequest
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	accountID, err := ledger.ToAccountID(app.Account)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	amount, err := uint256.FromDecimal(app.Amount)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("amount %q: %w", app.Amount, err), http.StatusBadRequest)
	}

	h.Log.Infow("add withdrawal", "traceid", v.TraceID, "account", accountID, "amount", app.Amount)
	id, err := h.State.RequestWithdrawal(accountID, *amount)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status    string `json:"status"`
		RequestID int    `json:"request_id"`
	}{
		Status:    "withdrawal requested",
		RequestID: id,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProcessWithdrawal pays out a matured withdrawal request.
func (h Handlers) ProcessWithdrawal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppWithdrawalProcess
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	accountID, err := ledger.ToAccountID(app.Account)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("process withdrawal", "traceid", v.TraceID, "account", accountID, "request_id", *app.RequestID)
	if err := h.State.ProcessWithdrawal(accountID, *app.RequestID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, state.ErrDelayNotMet) {
			status = http.StatusTooEarly
		}
		return v1.NewRequestError(err, status)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "withdrawal processed",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
