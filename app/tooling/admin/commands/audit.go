package commands

import (
	"fmt"
)

type audit struct {
	Accounts      int    `json:"accounts"`
	Excluded      int    `json:"excluded"`
	TotalShares   string `json:"total_shares"`
	TotalSupply   string `json:"total_supply"`
	BalanceSum    string `json:"balance_sum"`
	Conserved     bool   `json:"conserved"`
	Drift         string `json:"drift"`
	TallyMatch    bool   `json:"tally_match"`
	RegistryMatch bool   `json:"registry_match"`
	PendingBase   string `json:"pending_base"`
	Reserves      string `json:"reserves"`
	Solvent       bool   `json:"solvent"`
	AccountsRoot  string `json:"accounts_root"`
}

// Audit runs the accounting cross-checks and prints the report.
func Audit(url string) error {
	var report audit
	if err := get(url, "/v1/pool/audit", &report); err != nil {
		return err
	}

	fmt.Println("Accounts:      ", report.Accounts)
	fmt.Println("Excluded:      ", report.Excluded)
	fmt.Println("Total Shares:  ", report.TotalShares)
	fmt.Println("Total Supply:  ", report.TotalSupply)
	fmt.Println("Balance Sum:   ", report.BalanceSum)
	fmt.Println("Drift:         ", report.Drift)
	fmt.Println("Pending Base:  ", report.PendingBase)
	fmt.Println("Reserves:      ", report.Reserves)
	fmt.Println("Accounts Root: ", report.AccountsRoot)
	fmt.Println()

	ok := true
	for _, check := range []struct {
		name string
		pass bool
	}{
		{"conserved", report.Conserved},
		{"tally match", report.TallyMatch},
		{"registry match", report.RegistryMatch},
		{"solvent", report.Solvent},
	} {
		mark := "PASS"
		if !check.pass {
			mark = "FAIL"
			ok = false
		}
		fmt.Printf("%-15s %s\n", check.name+":", mark)
	}

	if !ok {
		return fmt.Errorf("audit failed")
	}

	return nil
}
