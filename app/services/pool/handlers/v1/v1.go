// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/liquidstake/app/services/pool/handlers/v1/private"
	"github.com/ardanlabs/liquidstake/app/services/pool/handlers/v1/public"
	"github.com/ardanlabs/liquidstake/foundation/events"
	"github.com/ardanlabs/liquidstake/foundation/nameservice"
	"github.com/ardanlabs/liquidstake/foundation/staking/bank"
	"github.com/ardanlabs/liquidstake/foundation/staking/state"
	"github.com/ardanlabs/liquidstake/foundation/staking/wrapped"
	"github.com/ardanlabs/liquidstake/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Bank    *bank.Ledger
	Wrapped *wrapped.Ledger
	NS      *nameservice.NameService
	Evts    *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:     cfg.Log,
		State:   cfg.State,
		Bank:    cfg.Bank,
		Wrapped: cfg.Wrapped,
		NS:      cfg.NS,
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/summary", pbl.Summary)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/list/:account", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/proof/:account", pbl.Proof)
	app.Handle(http.MethodGet, version, "/bank/balances/list", pbl.BankBalances)
	app.Handle(http.MethodGet, version, "/bank/balances/list/:account", pbl.BankBalances)
	app.Handle(http.MethodPost, version, "/bank/approve", pbl.Approve)
	app.Handle(http.MethodPost, version, "/stake", pbl.Stake)
	app.Handle(http.MethodPost, version, "/transfer", pbl.Transfer)
	app.Handle(http.MethodGet, version, "/withdrawals/list/:account", pbl.Withdrawals)
	app.Handle(http.MethodPost, version, "/withdrawals/request", pbl.RequestWithdrawal)
	app.Handle(http.MethodPost, version, "/withdrawals/process", pbl.ProcessWithdrawal)
	app.Handle(http.MethodGet, version, "/wrapped/balances/list", pbl.WrappedBalances)
	app.Handle(http.MethodGet, version, "/wrapped/balances/list/:account", pbl.WrappedBalances)
	app.Handle(http.MethodPost, version, "/wrapped/deposit", pbl.WrappedDeposit)
	app.Handle(http.MethodPost, version, "/wrapped/withdraw", pbl.WrappedWithdraw)
	app.Handle(http.MethodPost, version, "/wrapped/transfer", pbl.WrappedTransfer)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Bank:  cfg.Bank,
		NS:    cfg.NS,
	}

	app.Handle(http.MethodGet, version, "/pool/status", prv.Status)
	app.Handle(http.MethodGet, version, "/pool/audit", prv.Audit)
	app.Handle(http.MethodPost, version, "/pool/rebase", prv.Rebase)
	app.Handle(http.MethodGet, version, "/pool/excluded/list", prv.Excluded)
	app.Handle(http.MethodPost, version, "/pool/excluded", prv.SetExcluded)
	app.Handle(http.MethodPost, version, "/pool/config/emission", prv.SetEmissionRate)
	app.Handle(http.MethodPost, version, "/pool/config/interval", prv.SetRebaseInterval)
	app.Handle(http.MethodPost, version, "/pool/config/delay", prv.SetWithdrawalDelay)
	app.Handle(http.MethodGet, version, "/pool/checkpoints/list/:from/:to", prv.Checkpoints)
}
