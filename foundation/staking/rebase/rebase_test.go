package rebase_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/emission"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const kennedy = ledger.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")

// =============================================================================

func Test_SettleGate(t *testing.T) {
	t.Log("Given the need to gate rebases on the configured interval.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the interval has not elapsed.", testID)
		{
			const genesis = 1_700_000_000

			book := ledger.New()
			if err := book.Mint(kennedy, *uint256.NewInt(1_000_000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mint tokens: %v", failed, testID, err)
			}

			engine := newEngine(t, testID, rebase.Config{
				Model:       emission.ModelAPR,
				RatePerYear: *uint256.NewInt(1000),
				MaxRate:     *uint256.NewInt(5000),
				Interval:    24 * time.Hour,
				LastRebase:  genesis,
			})

			if _, err := engine.Settle(genesis+3600, book, false); !errors.Is(err, rebase.ErrTooSoon) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to settle early: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to settle early.", success, testID)

			if last := engine.LastRebase(); last != genesis {
				t.Fatalf("\t%s\tTest %d:\tShould leave the rebase clock untouched, got %d.", failed, testID, last)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the rebase clock untouched.", success, testID)

			rate := book.ExchangeRate()
			if !rate.Eq(ledger.Precision) {
				t.Fatalf("\t%s\tTest %d:\tShould leave the exchange rate untouched, got %s.", failed, testID, rate.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould leave the exchange rate untouched.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the interval has elapsed.", testID)
		{
			const genesis = 1_700_000_000

			book := ledger.New()
			if err := book.Mint(kennedy, *uint256.NewInt(1_000_000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mint tokens: %v", failed, testID, err)
			}

			engine := newEngine(t, testID, rebase.Config{
				Model:       emission.ModelAPR,
				RatePerYear: *uint256.NewInt(1000),
				MaxRate:     *uint256.NewInt(5000),
				Interval:    24 * time.Hour,
				LastRebase:  genesis,
			})

			now := uint64(genesis + emission.SecondsPerYear)
			result, err := engine.Settle(now, book, false)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to settle: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to settle.", success, testID)

			if !result.Amount.Eq(uint256.NewInt(100_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould pay ten percent over a year, got %s.", failed, testID, result.Amount.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould pay ten percent over a year.", success, testID)

			if last := engine.LastRebase(); last != now {
				t.Fatalf("\t%s\tTest %d:\tShould advance the rebase clock, got %d.", failed, testID, last)
			}
			t.Logf("\t%s\tTest %d:\tShould advance the rebase clock.", success, testID)

			balance, err := book.BalanceOf(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(1_100_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould lift the staker's balance to 1100000, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould lift the staker's balance to 1100000.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the pool has no participating shares.", testID)
		{
			const genesis = 1_700_000_000

			book := ledger.New()

			engine := newEngine(t, testID, rebase.Config{
				Model:       emission.ModelFixed,
				RatePerYear: *uint256.NewInt(525_600),
				MaxRate:     *uint256.NewInt(1_000_000),
				Interval:    time.Hour,
				LastRebase:  genesis,
			})

			now := uint64(genesis + 7200)
			result, err := engine.Settle(now, book, false)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould still settle an empty pool: %v", failed, testID, err)
			}
			if !result.Amount.IsZero() {
				t.Fatalf("\t%s\tTest %d:\tShould pay nothing into an empty pool, got %s.", failed, testID, result.Amount.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould pay nothing into an empty pool.", success, testID)

			if last := engine.LastRebase(); last != now {
				t.Fatalf("\t%s\tTest %d:\tShould still advance the rebase clock, got %d.", failed, testID, last)
			}
			t.Logf("\t%s\tTest %d:\tShould still advance the rebase clock.", success, testID)
		}
	}
}

func Test_ConfigChanges(t *testing.T) {
	t.Log("Given the need to settle accrued yield before parameters change.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen raising the emission rate mid-window.", testID)
		{
			const genesis = 1_700_000_000

			book := ledger.New()
			if err := book.Mint(kennedy, *uint256.NewInt(1_000_000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mint tokens: %v", failed, testID, err)
			}

			engine := newEngine(t, testID, rebase.Config{
				Model:       emission.ModelAPR,
				RatePerYear: *uint256.NewInt(1000),
				MaxRate:     *uint256.NewInt(5000),
				Interval:    24 * time.Hour,
				LastRebase:  genesis,
			})

			// Half a year in, a rate change must settle at the old ten
			// percent before the new rate takes over.
			now := uint64(genesis + emission.SecondsPerYear/2)
			result, err := engine.SetRate(now, book, *uint256.NewInt(2000))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to change the rate: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to change the rate.", success, testID)

			if !result.Amount.Eq(uint256.NewInt(50_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould settle the half year at the old rate, got %s.", failed, testID, result.Amount.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould settle the half year at the old rate.", success, testID)

			if rate := engine.RatePerYear(); !rate.Eq(uint256.NewInt(2000)) {
				t.Fatalf("\t%s\tTest %d:\tShould carry the new rate, got %s.", failed, testID, rate.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould carry the new rate.", success, testID)

			if last := engine.LastRebase(); last != now {
				t.Fatalf("\t%s\tTest %d:\tShould advance the rebase clock on the implicit settle.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould advance the rebase clock on the implicit settle.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen pushing parameters out of bounds.", testID)
		{
			const genesis = 1_700_000_000

			book := ledger.New()

			engine := newEngine(t, testID, rebase.Config{
				Model:       emission.ModelAPR,
				RatePerYear: *uint256.NewInt(1000),
				MaxRate:     *uint256.NewInt(5000),
				Interval:    24 * time.Hour,
				LastRebase:  genesis,
			})

			if _, err := engine.SetRate(genesis+60, book, *uint256.NewInt(5001)); !errors.Is(err, rebase.ErrRateCeiling) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a rate above the ceiling: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a rate above the ceiling.", success, testID)

			if last := engine.LastRebase(); last != genesis {
				t.Fatalf("\t%s\tTest %d:\tShould not settle on a rejected change.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not settle on a rejected change.", success, testID)

			if _, err := engine.SetInterval(genesis+60, book, 30*time.Minute); !errors.Is(err, rebase.ErrInvalidInterval) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an interval below one hour: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an interval below one hour.", success, testID)

			if _, err := engine.SetInterval(genesis+60, book, 31*24*time.Hour); !errors.Is(err, rebase.ErrInvalidInterval) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an interval above thirty days: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an interval above thirty days.", success, testID)

			if _, err := rebase.New(rebase.Config{Model: emission.ModelAPR, RatePerYear: *uint256.NewInt(6000), MaxRate: *uint256.NewInt(5000), Interval: time.Hour}); !errors.Is(err, rebase.ErrRateCeiling) {
				t.Fatalf("\t%s\tTest %d:\tShould reject construction above the ceiling: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject construction above the ceiling.", success, testID)
		}
	}
}

// =============================================================================

// newEngine constructs a rebase engine or fails the test.
func newEngine(t *testing.T, testID int, cfg rebase.Config) *rebase.Engine {
	engine, err := rebase.New(cfg)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to construct the engine: %v", failed, testID, err)
	}

	return engine
}
