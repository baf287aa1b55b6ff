// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/holiman/uint256"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time         `json:"date"`
	ChainID         uint16            `json:"chain_id"`                 // The chain id the pool settles against.
	PoolAccount     string            `json:"pool_account"`             // The account holding the pool's base asset reserve.
	EmissionModel   string            `json:"emission_model"`           // Yield model, apr or fixed.
	EmissionRate    string            `json:"emission_rate_per_year"`   // Annual basis points for apr, annual tokens for fixed.
	MaxEmissionRate string            `json:"max_emission_rate"`        // Ceiling the emission rate can never exceed.
	RebaseInterval  uint64            `json:"rebase_interval_seconds"`  // Minimum seconds between rebases.
	WithdrawalDelay uint64            `json:"withdrawal_delay_seconds"` // Seconds a withdrawal request waits before processing.
	WrappedVault    string            `json:"wrapped_vault"`            // The account holding base asset locked by the wrapper.
	Balances        map[string]string `json:"balances"`                 // Base asset balances at genesis.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// EmissionRateValue parses the annual emission rate.
func (g Genesis) EmissionRateValue() (uint256.Int, error) {
	rate, err := uint256.FromDecimal(g.EmissionRate)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("emission rate %q: %w", g.EmissionRate, err)
	}

	return *rate, nil
}

// MaxEmissionRateValue parses the emission rate ceiling.
func (g Genesis) MaxEmissionRateValue() (uint256.Int, error) {
	rate, err := uint256.FromDecimal(g.MaxEmissionRate)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("max emission rate %q: %w", g.MaxEmissionRate, err)
	}

	return *rate, nil
}

// BalanceValues parses the genesis balances into token amounts.
func (g Genesis) BalanceValues() (map[string]uint256.Int, error) {
	balances := make(map[string]uint256.Int, len(g.Balances))
	for account, value := range g.Balances {
		amount, err := uint256.FromDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("balance for %q: %w", account, err)
		}
		balances[account] = *amount
	}

	return balances, nil
}
