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

type position struct {
	Account  string `json:"account"`
	Name     string `json:"name"`
	Shares   string `json:"shares"`
	Balance  string `json:"balance"`
	Excluded bool   `json:"excluded"`
}

type positions struct {
	Checkpoint   uint64     `json:"checkpoint"`
	ExchangeRate string     `json:"exchange_rate"`
	Accounts     []position `json:"accounts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your derivative token balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := ledger.PublicKeyToAccountID(privateKey.PublicKey)
	fmt.Println("For Account:", accountID)

	resp, err := http.Get(fmt.Sprintf("%s/v1/accounts/list/%s", url, accountID))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	decoder := json.NewDecoder(resp.Body)
	var positions positions
	if err := decoder.Decode(&positions); err != nil {
		log.Fatal(err)
	}

	if len(positions.Accounts) == 0 {
		fmt.Println("account not known to the pool")
		return
	}

	pos := positions.Accounts[0]
	fmt.Println("Balance: ", pos.Balance)
	fmt.Println("Shares:  ", pos.Shares)
	fmt.Println("Excluded:", pos.Excluded)
	fmt.Println("Rate:    ", positions.ExchangeRate)
}
