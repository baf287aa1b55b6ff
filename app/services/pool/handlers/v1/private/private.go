// Package private maintains the group of handlers for operator access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/ardanlabs/liquidstake/business/web/v1"
	"github.com/ardanlabs/liquidstake/foundation/nameservice"
	"github.com/ardanlabs/liquidstake/foundation/staking/bank"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
	"github.com/ardanlabs/liquidstake/foundation/staking/state"
	"github.com/ardanlabs/liquidstake/foundation/web"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Handlers manages the set of operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Bank  *bank.Ledger
	NS    *nameservice.NameService
}

// Status returns the current status of the pool.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sum, err := h.State.RetrieveSummary()
	if err != nil {
		return err
	}

	st := status{
		Checkpoint:     sum.Checkpoint,
		CheckpointHash: sum.CheckpointHash,
		Accounts:       sum.Accounts,
		TotalSupply:    sum.TotalSupply.Dec(),
		PendingBase:    sum.PendingBase.Dec(),
		Reserves:       sum.Reserves.Dec(),
		ExchangeRate:   sum.ExchangeRate.Dec(),
		LastRebase:     sum.LastRebase,
		NextRebase:     sum.NextRebase,
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Audit runs the accounting cross-checks and returns the report.
func (h Handlers) Audit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	report, err := h.State.Audit()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toAudit(report), http.StatusOK)
}

// Rebase settles any accrued yield immediately.
func (h Handlers) Rebase(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.Log.Infow("rebase requested", "traceid", v.TraceID)

	result, err := h.State.Rebase()
	if err != nil {
		if errors.Is(err, rebase.ErrTooSoon) {
			return v1.NewRequestError(err, http.StatusTooEarly)
		}
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, toSettlement(result), http.StatusOK)
}

// Excluded returns the accounts currently excluded from rebases.
func (h Handlers) Excluded(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ids := h.State.RetrieveExcluded()

	list := make([]excluded, 0, len(ids))
	for _, accountID := range ids {
		act, err := h.State.QueryAccount(accountID)
		if err != nil {
			return err
		}

		list = append(list, excluded{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Shares:  act.Shares.Dec(),
		})
	}

	return web.Respond(ctx, w, list, http.StatusOK)
}

// SetExcluded flips an account's exclusion flag.
func (h Handlers) SetExcluded(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppExcluded
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	accountID, err := ledger.ToAccountID(app.Account)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("set excluded", "traceid", v.TraceID, "account", accountID, "excluded", *app.Excluded)
	if err := h.State.SetExcluded(accountID, *app.Excluded); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "exclusion updated",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SetEmissionRate changes the annual emission rate. Accrued yield is settled
// at the old rate first so the change is never retroactive.
func (h Handlers) SetEmissionRate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppEmissionRate
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	rate, err := uint256.FromDecimal(app.Rate)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("rate %q: %w", app.Rate, err), http.StatusBadRequest)
	}

	h.Log.Infow("set emission rate", "traceid", v.TraceID, "rate", app.Rate)
	result, err := h.State.SetEmissionRate(*rate)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status     string     `json:"status"`
		Settlement settlement `json:"settlement"`
	}{
		Status:     "emission rate updated",
		Settlement: toSettlement(result),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SetRebaseInterval changes the minimum time between rebases.
func (h Handlers) SetRebaseInterval(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppRebaseInterval
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("set rebase interval", "traceid", v.TraceID, "seconds", app.Seconds)
	result, err := h.State.SetRebaseInterval(time.Duration(app.Seconds) * time.Second)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status     string     `json:"status"`
		Settlement settlement `json:"settlement"`
	}{
		Status:     "rebase interval updated",
		Settlement: toSettlement(result),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SetWithdrawalDelay changes how long a withdrawal request waits before it
// can be processed. Pending requests mature under the new delay.
func (h Handlers) SetWithdrawalDelay(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppWithdrawalDelay
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("set withdrawal delay", "traceid", v.TraceID, "seconds", *app.Seconds)
	if err := h.State.SetWithdrawalDelay(time.Duration(*app.Seconds) * time.Second); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "withdrawal delay updated",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Checkpoints returns the checkpoint headers for the specified range.
func (h Handlers) Checkpoints(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest, _ := h.State.RetrieveCheckpoint()

	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = fmt.Sprintf("%d", latest)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = fmt.Sprintf("%d", latest)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if from > to {
		return v1.NewRequestError(errors.New("from greater than to"), http.StatusBadRequest)
	}

	headers, err := h.State.RetrieveCheckpointHeaders(from, to)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, headers, http.StatusOK)
}
