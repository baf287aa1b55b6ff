package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

type bankBalance struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type bankBalances struct {
	PoolAccount string        `json:"pool_account"`
	Reserves    string        `json:"reserves"`
	Balances    []bankBalance `json:"balances"`
}

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Print your base asset balance.",
	Run:   bankRun,
}

func init() {
	rootCmd.AddCommand(bankCmd)
	bankCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
}

func bankRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := ledger.PublicKeyToAccountID(privateKey.PublicKey)
	fmt.Println("For Account:", accountID)

	resp, err := http.Get(fmt.Sprintf("%s/v1/bank/balances/list/%s", url, accountID))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	decoder := json.NewDecoder(resp.Body)
	var balances bankBalances
	if err := decoder.Decode(&balances); err != nil {
		log.Fatal(err)
	}

	if len(balances.Balances) > 0 {
		fmt.Println(balances.Balances[0].Balance)
	}
}
