package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var unstakeValue string

var unstakeCmd = &cobra.Command{
	Use:   "unstake",
	Short: "Request a withdrawal of base asset from the pool",
	Run:   unstakeRun,
}

func init() {
	rootCmd.AddCommand(unstakeCmd)
	unstakeCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
	unstakeCmd.Flags().StringVarP(&unstakeValue, "value", "v", "0", "Amount of base asset to withdraw.")
}

func unstakeRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := ledger.PublicKeyToAccountID(privateKey.PublicKey)

	payload := struct {
		Account string `json:"account"`
		Amount  string `json:"amount"`
	}{
		Account: string(accountID),
		Amount:  unstakeValue,
	}

	body, err := postAction(fmt.Sprintf("%s/v1/withdrawals/request", url), payload)
	if err != nil {
		log.Fatal(err)
	}

	var result struct {
		Status    string `json:"status"`
		RequestID int    `json:"request_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Status:    ", result.Status)
	fmt.Println("Request ID:", result.RequestID)
	fmt.Println("Claim with: wallet claim --id", result.RequestID)
}
