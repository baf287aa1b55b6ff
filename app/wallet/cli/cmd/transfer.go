package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	transferTo    string
	transferValue string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Send derivative tokens to another account",
	Run:   transferRun,
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
	transferCmd.Flags().StringVarP(&transferTo, "to", "t", "", "Account receiving the tokens.")
	transferCmd.Flags().StringVarP(&transferValue, "value", "v", "0", "Amount of derivative tokens to send.")
}

func transferRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := ledger.PublicKeyToAccountID(privateKey.PublicKey)

	payload := struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
	}{
		From:   string(accountID),
		To:     transferTo,
		Amount: transferValue,
	}

	body, err := postAction(fmt.Sprintf("%s/v1/transfer", url), payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}
