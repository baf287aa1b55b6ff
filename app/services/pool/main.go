package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/liquidstake/app/services/pool/handlers"
	"github.com/ardanlabs/liquidstake/foundation/events"
	"github.com/ardanlabs/liquidstake/foundation/logger"
	"github.com/ardanlabs/liquidstake/foundation/nameservice"
	"github.com/ardanlabs/liquidstake/foundation/staking/bank"
	"github.com/ardanlabs/liquidstake/foundation/staking/genesis"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/state"
	"github.com/ardanlabs/liquidstake/foundation/staking/store/bolt"
	"github.com/ardanlabs/liquidstake/foundation/staking/worker"
	"github.com/ardanlabs/liquidstake/foundation/staking/wrapped"
	"github.com/ardanlabs/conf/v3"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("POOL")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
		}
		State struct {
			GenesisPath string `conf:"default:zard/genesis.json"`
			DBPath      string `conf:"default:zard/checkpoints.db"`
		}
		NameService struct {
			Folder string `conf:"default:zard/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "POOL"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(` _      ___   ___   _   _  ___  ____     ____   _____     _     _  __ ___  _   _   ____ `)
	fmt.Println(`| |    |_ _| / _ \ | | | ||_ _||  _ \   / ___| |_   _|   / \   | |/ /|_ _|| \ | | / ___|`)
	fmt.Println(`| |     | | | | | || | | | | | | | | |  \___ \   | |    / _ \  | ' /  | | |  \| || |  _ `)
	fmt.Println(`| |___  | | | |_| || |_| | | | | |_| |   ___) |  | |   / ___ \ | . \  | | | |\  || |_| |`)
	fmt.Println(`|_____||___| \__\_\ \___/ |___||____/   |____/   |_|  /_/   \_\|_|\_\|___||_| \_| \____|`)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the file names in the zard/accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for accountID, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", accountID)
	}

	// =========================================================================
	// Staking Pool Support

	// The genesis file carries the pool account, the emission parameters and
	// the base asset balances the pool starts life with.
	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}

	log.Infow("startup", "status", "genesis loaded", "chainid", gen.ChainID, "pool", gen.PoolAccount)

	poolAccount, err := ledger.ToAccountID(gen.PoolAccount)
	if err != nil {
		return fmt.Errorf("pool account: %w", err)
	}

	// The bank tracks the base asset that backs the derivative token. The
	// genesis balances seed it so stakers have something to deposit.
	genBalances, err := gen.BalanceValues()
	if err != nil {
		return fmt.Errorf("genesis balances: %w", err)
	}

	balances := make(map[ledger.AccountID]uint256.Int, len(genBalances))
	for hex, amount := range genBalances {
		accountID, err := ledger.ToAccountID(hex)
		if err != nil {
			return fmt.Errorf("genesis balance account %q: %w", hex, err)
		}
		balances[accountID] = amount
	}

	bnk, err := bank.New(poolAccount, balances)
	if err != nil {
		return fmt.Errorf("unable to construct bank: %w", err)
	}

	// The wrapper locks base asset one to one under a vault account and
	// hands out a non-rebasing token in return.
	vaultAccount, err := ledger.ToAccountID(gen.WrappedVault)
	if err != nil {
		return fmt.Errorf("wrapped vault account: %w", err)
	}

	wrp, err := wrapped.New(bnk, vaultAccount)
	if err != nil {
		return fmt.Errorf("unable to construct wrapper: %w", err)
	}

	// Checkpoints live in a bolt database so the pool survives restarts.
	strg, err := bolt.New(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open checkpoint store: %w", err)
	}

	// The staking packages accept a function of this signature to allow the
	// application to log. For now, these raw messages are sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The state value represents the staking pool and manages the checkpoint
	// store and provides an API for application support.
	st, err := state.New(state.Config{
		Genesis:   gen,
		Store:     strg,
		Bank:      bnk,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker package implements the rebase scheduling workflow. The
	// worker will register itself with the state.
	worker.Run(st, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Bank:     bnk,
		Wrapped:  wrp,
		NS:       ns,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct the mux for the private API calls.
	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Bank:     bnk,
		NS:       ns,
	})

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
