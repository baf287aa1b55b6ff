package commands

import (
	"fmt"
	"time"
)

type status struct {
	Checkpoint     uint64 `json:"checkpoint"`
	CheckpointHash string `json:"checkpoint_hash"`
	Accounts       int    `json:"accounts"`
	TotalSupply    string `json:"total_supply"`
	PendingBase    string `json:"pending_base"`
	Reserves       string `json:"reserves"`
	ExchangeRate   string `json:"exchange_rate"`
	LastRebase     uint64 `json:"last_rebase"`
	NextRebase     uint64 `json:"next_rebase"`
}

// Status prints the pool's position and rebase schedule.
func Status(url string) error {
	var st status
	if err := get(url, "/v1/pool/status", &st); err != nil {
		return err
	}

	fmt.Println("Checkpoint:     ", st.Checkpoint)
	fmt.Println("Checkpoint Hash:", st.CheckpointHash)
	fmt.Println("Accounts:       ", st.Accounts)
	fmt.Println("Total Supply:   ", st.TotalSupply)
	fmt.Println("Pending Base:   ", st.PendingBase)
	fmt.Println("Reserves:       ", st.Reserves)
	fmt.Println("Exchange Rate:  ", st.ExchangeRate)
	fmt.Println("Last Rebase:    ", formatUnix(st.LastRebase))
	fmt.Println("Next Rebase:    ", formatUnix(st.NextRebase))

	return nil
}

// formatUnix renders a unix timestamp for operators. Zero means the
// event never happened.
func formatUnix(sec uint64) string {
	if sec == 0 {
		return "never"
	}

	return time.Unix(int64(sec), 0).UTC().Format(time.RFC3339)
}
