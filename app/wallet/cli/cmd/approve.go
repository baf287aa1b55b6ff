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

var (
	approveValue   string
	approveSpender string
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Authorize the pool to debit your base asset",
	Run:   approveRun,
}

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
	approveCmd.Flags().StringVarP(&approveValue, "value", "v", "0", "Amount of base asset to authorize.")
	approveCmd.Flags().StringVarP(&approveSpender, "spender", "s", "", "Account being authorized. Defaults to the pool account.")
}

func approveRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := ledger.PublicKeyToAccountID(privateKey.PublicKey)

	spender := approveSpender
	if spender == "" {
		spender, err = poolAccount()
		if err != nil {
			log.Fatal(err)
		}
	}

	payload := struct {
		Owner   string `json:"owner"`
		Spender string `json:"spender"`
		Amount  string `json:"amount"`
	}{
		Owner:   string(accountID),
		Spender: spender,
		Amount:  approveValue,
	}

	body, err := postAction(fmt.Sprintf("%s/v1/bank/approve", url), payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}

// poolAccount asks the pool service who holds the reserves so approvals
// can default to the right spender.
func poolAccount() (string, error) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/summary", url))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sum struct {
		PoolAccount string `json:"pool_account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		return "", err
	}

	return sum.PoolAccount, nil
}
