// Package emission provides the yield models that decide how many tokens a
// rebase distributes for a given elapsed window.
package emission

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// List of different emission models.
const (
	ModelAPR   = "apr"
	ModelFixed = "fixed"
)

// Map of different emission models with functions.
var models = map[string]Func{
	ModelAPR:   aprEmission,
	ModelFixed: fixedEmission,
}

// SecondsPerYear is the annualization base for both models.
const SecondsPerYear = 31_536_000

// BasisPoints is the denominator for the apr model's rate parameter.
const BasisPoints = 10_000

// ErrOverflow indicates the emission terms exceed 256 bits.
var ErrOverflow = errors.New("arithmetic overflow")

// Func defines a function that computes the token amount to distribute for
// the elapsed seconds. The meaning of ratePerYear depends on the model: the
// apr model reads it as annual basis points applied to the participating
// supply, the fixed model reads it as tokens emitted per year regardless of
// supply. Both annualize linearly and floor the result.
type Func func(participatingSupply uint256.Int, ratePerYear uint256.Int, elapsed uint64) (uint256.Int, error)

// Retrieve returns the specified emission model function.
func Retrieve(model string) (Func, error) {
	fn, exists := models[model]
	if !exists {
		return nil, fmt.Errorf("emission model %q does not exist", model)
	}
	return fn, nil
}

// =============================================================================

// aprEmission pays participatingSupply * bps * elapsed / (10000 * secondsPerYear).
func aprEmission(participatingSupply uint256.Int, ratePerYear uint256.Int, elapsed uint64) (uint256.Int, error) {
	var weight uint256.Int
	if _, overflow := weight.MulOverflow(&ratePerYear, uint256.NewInt(elapsed)); overflow {
		return uint256.Int{}, ErrOverflow
	}

	denom := uint256.NewInt(BasisPoints * SecondsPerYear)

	var amount uint256.Int
	if _, overflow := amount.MulDivOverflow(&participatingSupply, &weight, denom); overflow {
		return uint256.Int{}, ErrOverflow
	}

	return amount, nil
}

// fixedEmission pays ratePerYear * elapsed / secondsPerYear independent of
// the participating supply.
func fixedEmission(participatingSupply uint256.Int, ratePerYear uint256.Int, elapsed uint64) (uint256.Int, error) {
	var amount uint256.Int
	if _, overflow := amount.MulDivOverflow(&ratePerYear, uint256.NewInt(elapsed), uint256.NewInt(SecondsPerYear)); overflow {
		return uint256.Int{}, ErrOverflow
	}

	return amount, nil
}
