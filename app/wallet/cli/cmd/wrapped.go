package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	wrapValue   string
	unwrapValue string
)

var wrapCmd = &cobra.Command{
	Use:   "wrap",
	Short: "Lock base asset for wrapped tokens",
	Run:   wrapRun,
}

var unwrapCmd = &cobra.Command{
	Use:   "unwrap",
	Short: "Redeem wrapped tokens for base asset",
	Run:   unwrapRun,
}

func init() {
	rootCmd.AddCommand(wrapCmd)
	wrapCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
	wrapCmd.Flags().StringVarP(&wrapValue, "value", "v", "0", "Amount of base asset to wrap.")

	rootCmd.AddCommand(unwrapCmd)
	unwrapCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
	unwrapCmd.Flags().StringVarP(&unwrapValue, "value", "v", "0", "Amount of wrapped tokens to redeem.")
}

func wrapRun(cmd *cobra.Command, args []string) {
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
		Amount:  wrapValue,
	}

	body, err := postAction(fmt.Sprintf("%s/v1/wrapped/deposit", url), payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}

func unwrapRun(cmd *cobra.Command, args []string) {
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
		Amount:  unwrapValue,
	}

	body, err := postAction(fmt.Sprintf("%s/v1/wrapped/withdraw", url), payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}
