package public

import (
	"context"
	"fmt"
	"net/http"

	v1 "github.com/ardanlabs/liquidstake/business/web/v1"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/web"
	"github.com/holiman/uint256"
)

// WrappedBalances returns the wrapped token balances for all accounts or
// for the one specified on the route.
func (h Handlers) WrappedBalances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	balances := h.Wrapped.Balances()
	if account != "" {
		accountID, err := ledger.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		amount := h.Wrapped.BalanceOf(accountID)
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

	total := h.Wrapped.TotalWrapped()

	wi := wrappedInfo{
		Vault:        h.Wrapped.Vault(),
		TotalWrapped: total.Dec(),
		Balances:     bals,
	}

	return web.Respond(ctx, w, wi, http.StatusOK)
}

// WrappedDeposit locks base asset in the vault and mints wrapped tokens.
func (h Handlers) WrappedDeposit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppWrappedMove
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

	h.Log.Infow("wrapped deposit", "traceid", v.TraceID, "account", accountID, "amount", app.Amount)
	if err := h.Wrapped.Deposit(accountID, *amount); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "deposit wrapped",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// WrappedWithdraw burns wrapped tokens and unlocks base asset from the vault.
func (h Handlers) WrappedWithdraw(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppWrappedMove
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

	h.Log.Infow("wrapped withdraw", "traceid", v.TraceID, "account", accountID, "amount", app.Amount)
	if err := h.Wrapped.Withdraw(accountID, *amount); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "withdrawal unwrapped",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// WrappedTransfer moves wrapped tokens between two accounts.
func (h Handlers) WrappedTransfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
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

	h.Log.Infow("wrapped transfer", "traceid", v.TraceID, "from", from, "to", to, "amount", app.Amount)
	if err := h.Wrapped.Transfer(from, to, *amount); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "wrapped transfer accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
