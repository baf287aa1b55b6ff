package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

type withdrawal struct {
	ID          int    `json:"id"`
	BaseAmount  string `json:"base_amount"`
	Derivative  string `json:"derivative"`
	RequestedAt uint64 `json:"requested_at"`
	MaturesAt   uint64 `json:"matures_at"`
	Processed   bool   `json:"processed"`
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List your withdrawal requests",
	Run:   requestsRun,
}

func init() {
	rootCmd.AddCommand(requestsCmd)
	requestsCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
}

func requestsRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := ledger.PublicKeyToAccountID(privateKey.PublicKey)
	fmt.Println("For Account:", accountID)

	resp, err := http.Get(fmt.Sprintf("%s/v1/withdrawals/list/%s", url, accountID))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var withdrawals []withdrawal
	if err := json.NewDecoder(resp.Body).Decode(&withdrawals); err != nil {
		log.Fatal(err)
	}

	if len(withdrawals) == 0 {
		fmt.Println("no withdrawal requests")
		return
	}

	now := uint64(time.Now().UTC().Unix())
	for _, wd := range withdrawals {
		state := "pending"
		switch {
		case wd.Processed:
			state = "processed"
		case wd.MaturesAt <= now:
			state = "claimable"
		}

		fmt.Printf("ID: %d  Base: %s  Matures: %s  State: %s\n",
			wd.ID, wd.BaseAmount, time.Unix(int64(wd.MaturesAt), 0).UTC().Format(time.RFC3339), state)
	}
}
