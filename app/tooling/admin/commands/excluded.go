package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
)

type excluded struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Shares  string `json:"shares"`
}

// Excluded prints the accounts currently excluded from rebases.
func Excluded(url string) error {
	var list []excluded
	if err := get(url, "/v1/pool/excluded/list", &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("no excluded accounts")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Account", "Name", "Shares")

	for _, exc := range list {
		_ = table.Append([]string{exc.Account, exc.Name, exc.Shares})
	}

	return table.Render()
}

// SetExcluded flips an account's exclusion flag.
func SetExcluded(url string, args []string, flag bool) error {
	if len(args) < 3 {
		return fmt.Errorf("missing account argument")
	}

	payload := struct {
		Account  string `json:"account"`
		Excluded bool   `json:"excluded"`
	}{
		Account:  args[2],
		Excluded: flag,
	}

	body, err := post(url, "/v1/pool/excluded", payload)
	if err != nil {
		return err
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}

	fmt.Println("Status:  ", result.Status)
	fmt.Println("Account: ", payload.Account)
	fmt.Println("Excluded:", payload.Excluded)

	return nil
}
