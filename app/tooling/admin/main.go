// This program performs administrative tasks for the liquid staking pool.
// It talks to the running pool service over the private API since the
// checkpoint store is locked by the service itself.
package main

import (
	"fmt"
	"os"

	"github.com/ardanlabs/liquidstake/app/tooling/admin/commands"
	"github.com/ardanlabs/liquidstake/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
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
	url := os.Getenv("POOL_PRIVATE_URL")
	if url == "" {
		url = "http://localhost:9080"
	}

	publicURL := os.Getenv("POOL_PUBLIC_URL")
	if publicURL == "" {
		publicURL = "http://localhost:8080"
	}

	return processCommands(os.Args, url, publicURL)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, url string, publicURL string) error {
	if len(args) < 2 {
		printUsage()
		return fmt.Errorf("no command provided")
	}

	switch args[1] {
	case "status":
		if err := commands.Status(url); err != nil {
			return fmt.Errorf("getting status: %w", err)
		}
	case "audit":
		if err := commands.Audit(url); err != nil {
			return fmt.Errorf("running audit: %w", err)
		}
	case "accounts":
		if err := commands.Accounts(publicURL); err != nil {
			return fmt.Errorf("getting accounts: %w", err)
		}
	case "rebase":
		if err := commands.Rebase(url); err != nil {
			return fmt.Errorf("running rebase: %w", err)
		}
	case "excluded":
		if err := commands.Excluded(url); err != nil {
			return fmt.Errorf("getting excluded accounts: %w", err)
		}
	case "exclude":
		if err := commands.SetExcluded(url, args, true); err != nil {
			return fmt.Errorf("excluding account: %w", err)
		}
	case "include":
		if err := commands.SetExcluded(url, args, false); err != nil {
			return fmt.Errorf("including account: %w", err)
		}
	case "emission":
		if err := commands.Emission(url, args); err != nil {
			return fmt.Errorf("setting emission rate: %w", err)
		}
	case "interval":
		if err := commands.Interval(url, args); err != nil {
			return fmt.Errorf("setting rebase interval: %w", err)
		}
	case "delay":
		if err := commands.Delay(url, args); err != nil {
			return fmt.Errorf("setting withdrawal delay: %w", err)
		}
	case "checkpoints":
		if err := commands.Checkpoints(url, args); err != nil {
			return fmt.Errorf("getting checkpoints: %w", err)
		}
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[1])
	}

	return nil
}

func printUsage() {
	fmt.Println("Usage: admin <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  status                    pool position and rebase schedule")
	fmt.Println("  audit                     accounting cross-checks")
	fmt.Println("  accounts                  list every account in the pool")
	fmt.Println("  rebase                    settle accrued yield immediately")
	fmt.Println("  excluded                  list accounts excluded from rebases")
	fmt.Println("  exclude <account>         exclude an account from rebases")
	fmt.Println("  include <account>         return an account to rebase participation")
	fmt.Println("  emission <rate>           set the emission rate")
	fmt.Println("  interval <seconds>        set the minimum time between rebases")
	fmt.Println("  delay <seconds>           set the withdrawal delay")
	fmt.Println("  checkpoints [from] [to]   list checkpoint headers")
	fmt.Println()
	fmt.Println("The private API location comes from POOL_PRIVATE_URL and")
	fmt.Println("defaults to http://localhost:9080. The accounts command reads")
	fmt.Println("the public API, POOL_PUBLIC_URL, default http://localhost:8080.")
}
