package commands

import (
	"encoding/json"
	"fmt"
)

type settlement struct {
	Timestamp    uint64 `json:"timestamp"`
	Elapsed      uint64 `json:"elapsed_seconds"`
	Amount       string `json:"amount"`
	RateDelta    string `json:"rate_delta"`
	ExchangeRate string `json:"exchange_rate"`
}

func (s settlement) print() {
	fmt.Println("Settled At:   ", formatUnix(s.Timestamp))
	fmt.Println("Elapsed:      ", s.Elapsed, "seconds")
	fmt.Println("Minted:       ", s.Amount)
	fmt.Println("Rate Delta:   ", s.RateDelta)
	fmt.Println("Exchange Rate:", s.ExchangeRate)
}

// Rebase asks the pool to settle accrued yield immediately.
func Rebase(url string) error {
	body, err := post(url, "/v1/pool/rebase", nil)
	if err != nil {
		return err
	}

	var result settlement
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}

	result.print()

	return nil
}
