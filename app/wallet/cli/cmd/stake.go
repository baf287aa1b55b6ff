package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	stakeValue     string
	stakeRecipient string
)

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Deposit base asset into the pool for derivative tokens",
	Run:   stakeRun,
}

func init() {
	rootCmd.AddCommand(stakeCmd)
	stakeCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the pool service.")
	stakeCmd.Flags().StringVarP(&stakeValue, "value", "v", "0", "Amount of base asset to stake.")
	stakeCmd.Flags().StringVarP(&stakeRecipient, "recipient", "r", "", "Account receiving the derivative tokens. Defaults to the staker.")
}

func stakeRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := ledger.PublicKeyToAccountID(privateKey.PublicKey)

	payload := struct {
		Account   string `json:"account"`
		Recipient string `json:"recipient,omitempty"`
		Amount    string `json:"amount"`
	}{
		Account:   string(accountID),
		Recipient: stakeRecipient,
		Amount:    stakeValue,
	}

	body, err := postAction(fmt.Sprintf("%s/v1/stake", url), payload)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}
