package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

type account struct {
	Account  string `json:"account"`
	Name     string `json:"name"`
	Shares   string `json:"shares"`
	Balance  string `json:"balance"`
	Excluded bool   `json:"excluded"`
}

type accounts struct {
	Checkpoint   uint64    `json:"checkpoint"`
	ExchangeRate string    `json:"exchange_rate"`
	Accounts     []account `json:"accounts"`
}

// Accounts prints every account the pool knows about. The listing lives
// on the public API, so this command takes the public url.
func Accounts(url string) error {
	var list accounts
	if err := get(url, "/v1/accounts/list", &list); err != nil {
		return err
	}

	fmt.Println("Checkpoint:   ", list.Checkpoint)
	fmt.Println("Exchange Rate:", list.ExchangeRate)
	fmt.Println()

	if len(list.Accounts) == 0 {
		fmt.Println("no accounts in the pool")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Account", "Name", "Shares", "Balance", "Excluded")

	for _, act := range list.Accounts {
		_ = table.Append([]string{
			act.Account,
			act.Name,
			act.Shares,
			act.Balance,
			strconv.FormatBool(act.Excluded),
		})
	}

	return table.Render()
}
