package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var claimID int

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim a matured withdrawal request",
	Run:   claimRun,
}

func init() {
	rootCmd.AddCommand(claimCmd)
	claimCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
	claimCmd.Flags().IntVarP(&claimID, "id", "i", 0, "Id of the withdrawal request to claim.")
}

func claimRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := ledger.PublicKeyToAccountID(privateKey.PublicKey)

	payload := struct {
		Account   string `json:"account"`
		RequestID int    `json:"request_id"`
	}{
		Account:   string(accountID),
		RequestID: claimID,
	}

	body, err := postAction(fmt.Sprintf("%s/v1/withdrawals/process", url), payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}
