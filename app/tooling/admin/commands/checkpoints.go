package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

type header struct {
	Sequence     uint64 `json:"sequence"`
	TimeStamp    uint64 `json:"timestamp"`
	Operation    string `json:"operation"`
	PrevHash     string `json:"prev_hash"`
	AccountsRoot string `json:"accounts_root"`
	ExchangeRate string `json:"exchange_rate"`
}

// Checkpoints prints the checkpoint headers for the requested range.
// Both bounds default to the latest checkpoint.
func Checkpoints(url string, args []string) error {
	from := "latest"
	if len(args) >= 3 {
		from = args[2]
	}

	to := "latest"
	if len(args) >= 4 {
		to = args[3]
	}

	resp, err := http.Get(fmt.Sprintf("%s/v1/pool/checkpoints/list/%s/%s", url, from, to))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		fmt.Println("no checkpoints in range")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var headers []header
	if err := json.Unmarshal(body, &headers); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Sequence", "Time", "Operation", "Exchange Rate", "Accounts Root")

	for _, hdr := range headers {
		_ = table.Append([]string{
			strconv.FormatUint(hdr.Sequence, 10),
			formatUnix(hdr.TimeStamp),
			hdr.Operation,
			hdr.ExchangeRate,
			hdr.AccountsRoot,
		})
	}

	return table.Render()
}
