package state_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/bank"
	"github.com/ardanlabs/liquidstake/foundation/staking/genesis"
	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/merkle"
	"github.com/ardanlabs/liquidstake/foundation/staking/rebase"
	"github.com/ardanlabs/liquidstake/foundation/staking/state"
	"github.com/ardanlabs/liquidstake/foundation/staking/store"
	"github.com/ardanlabs/liquidstake/foundation/staking/store/memory"
	"github.com/ardanlabs/liquidstake/foundation/staking/withdraw"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Accounts used across the tests.
const (
	kennedy  = ledger.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	pavel    = ledger.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	cesar    = ledger.AccountID("0xbEE6ACE826eC76DE5B0dc99bB872b7031D4C15f9")
	baba     = ledger.AccountID("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD7")
	poolAcct = ledger.AccountID("0xFef311483Cc040e1A89fb9bb469eeb8A70935EF8")
)

// =============================================================================

func Test_StakeRoundTrip(t *testing.T) {
	t.Log("Given the need to stake the base asset and receive derivative tokens.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen staking with a standing authorization in place.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(1_000_000)})

			p.bank.Approve(kennedy, poolAcct, u(1000))

			if err := p.state.Stake(kennedy, kennedy, u(1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to stake.", success, testID)

			balance, err := p.state.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(1000)) {
				t.Fatalf("\t%s\tTest %d:\tShould hold 1000 derivative tokens, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould hold 1000 derivative tokens.", success, testID)

			if base := p.bank.BalanceOf(kennedy); !base.Eq(uint256.NewInt(999_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould have paid 1000 base tokens, got %s.", failed, testID, base.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould have paid 1000 base tokens.", success, testID)

			if reserves := p.bank.Reserves(); !reserves.Eq(uint256.NewInt(1000)) {
				t.Fatalf("\t%s\tTest %d:\tShould hold 1000 tokens in reserve, got %s.", failed, testID, reserves.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould hold 1000 tokens in reserve.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the stake request is invalid.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(1_000_000)})

			if err := p.state.Stake(kennedy, kennedy, u(0)); !errors.Is(err, ledger.ErrZeroAmount) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a zero amount: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a zero amount.", success, testID)

			if err := p.state.Stake(kennedy, poolAcct, u(100)); !errors.Is(err, state.ErrPoolAccount) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the pool as recipient: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the pool as recipient.", success, testID)

			if err := p.state.Stake(kennedy, kennedy, u(100)); !errors.Is(err, state.ErrInsufficientAllowance) {
				t.Fatalf("\t%s\tTest %d:\tShould reject staking without authorization: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject staking without authorization.", success, testID)

			p.bank.Approve(pavel, poolAcct, u(100))
			if err := p.state.Stake(pavel, pavel, u(100)); !errors.Is(err, bank.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest %d:\tShould reject staking more than the base balance: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject staking more than the base balance.", success, testID)
		}
	}
}

func Test_WithdrawLifecycle(t *testing.T) {
	t.Log("Given the need to withdraw staked tokens through the delay queue.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a request waits out a seven day delay.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(1_000_000)})

			p.bank.Approve(kennedy, poolAcct, u(1000))
			if err := p.state.Stake(kennedy, kennedy, u(1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			id, err := p.state.RequestWithdrawal(kennedy, u(400))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to request a withdrawal: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to request a withdrawal.", success, testID)

			balance, err := p.state.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(600)) {
				t.Fatalf("\t%s\tTest %d:\tShould have burned the requested tokens, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould have burned the requested tokens.", success, testID)

			if err := p.state.ProcessWithdrawal(kennedy, id); !errors.Is(err, state.ErrDelayNotMet) {
				t.Fatalf("\t%s\tTest %d:\tShould reject processing before the delay: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject processing before the delay.", success, testID)

			p.clock.advance(7 * 24 * time.Hour)

			if err := p.state.ProcessWithdrawal(kennedy, id); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to process after the delay: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to process after the delay.", success, testID)

			if base := p.bank.BalanceOf(kennedy); !base.Eq(uint256.NewInt(999_400)) {
				t.Fatalf("\t%s\tTest %d:\tShould have received 400 base tokens back, got %s.", failed, testID, base.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould have received 400 base tokens back.", success, testID)

			if err := p.state.ProcessWithdrawal(kennedy, id); !errors.Is(err, withdraw.ErrAlreadyProcessed) {
				t.Fatalf("\t%s\tTest %d:\tShould reject processing twice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject processing twice.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the request itself is invalid.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(1_000_000)})

			p.bank.Approve(kennedy, poolAcct, u(1000))
			if err := p.state.Stake(kennedy, kennedy, u(1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			if _, err := p.state.RequestWithdrawal(kennedy, u(1001)); !errors.Is(err, ledger.ErrInsufficientBalance) {
				t.Fatalf("\t%s\tTest %d:\tShould reject requesting more than the balance: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject requesting more than the balance.", success, testID)

			if err := p.state.ProcessWithdrawal(kennedy, 9); !errors.Is(err, withdraw.ErrUnknownRequest) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unknown request id: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an unknown request id.", success, testID)

			requests := p.state.RetrieveRequests(kennedy)
			if len(requests) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have no requests on file, got %d.", failed, testID, len(requests))
			}
			t.Logf("\t%s\tTest %d:\tShould have no requests on file.", success, testID)
		}
	}
}

func Test_YieldAccrual(t *testing.T) {
	t.Log("Given the need to accrue yield and redeem it against the reserve.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a year passes at a thousand basis points.", testID)
		{
			gen := testGenesis()
			gen.WithdrawalDelay = 0

			p := newPool(t, gen, map[ledger.AccountID]uint256.Int{kennedy: u(2_000_000), pavel: u(500_000)})

			p.bank.Approve(kennedy, poolAcct, u(1_000_000))
			if err := p.state.Stake(kennedy, kennedy, u(1_000_000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			if _, err := p.state.Rebase(); !errors.Is(err, rebase.ErrTooSoon) {
				t.Fatalf("\t%s\tTest %d:\tShould reject rebasing before the interval: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject rebasing before the interval.", success, testID)

			if rate := p.state.RetrieveExchangeRate(); !rate.Eq(ledger.Precision) {
				t.Fatalf("\t%s\tTest %d:\tShould leave the exchange rate at one, got %s.", failed, testID, rate.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould leave the exchange rate at one.", success, testID)

			p.clock.advance(365 * 24 * time.Hour)

			result, err := p.state.Rebase()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to rebase after a year: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to rebase after a year.", success, testID)

			if !result.Amount.Eq(uint256.NewInt(100_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould pay 100000 tokens of yield, got %s.", failed, testID, result.Amount.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould pay 100000 tokens of yield.", success, testID)

			balance, err := p.state.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(1_100_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould report a balance of 1100000, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould report a balance of 1100000.", success, testID)

			account, err := p.state.QueryAccount(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query the account: %v", failed, testID, err)
			}
			if !account.Shares.Eq(uint256.NewInt(1_000_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould hold the same shares after the rebase, got %s.", failed, testID, account.Shares.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould hold the same shares after the rebase.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the yield makes a redemption exceed the reserve.", testID)
		{
			gen := testGenesis()
			gen.WithdrawalDelay = 0

			p := newPool(t, gen, map[ledger.AccountID]uint256.Int{kennedy: u(2_000_000), pavel: u(500_000)})

			p.bank.Approve(kennedy, poolAcct, u(1_000_000))
			if err := p.state.Stake(kennedy, kennedy, u(1_000_000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			p.clock.advance(365 * 24 * time.Hour)
			if _, err := p.state.Rebase(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to rebase: %v", failed, testID, err)
			}

			id, err := p.state.RequestWithdrawal(kennedy, u(1_100_000))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to request the full balance: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to request the full balance.", success, testID)

			if err := p.state.ProcessWithdrawal(kennedy, id); !errors.Is(err, bank.ErrInsufficientReserves) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the payout while the reserve is short: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the payout while the reserve is short.", success, testID)

			requests := p.state.RetrieveRequests(kennedy)
			if len(requests) != 1 || requests[0].Processed {
				t.Fatalf("\t%s\tTest %d:\tShould keep the request claimable after the failure.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the request claimable after the failure.", success, testID)

			p.bank.Approve(pavel, poolAcct, u(200_000))
			if err := p.state.Stake(pavel, pavel, u(200_000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to replenish the reserve: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to replenish the reserve.", success, testID)

			if err := p.state.ProcessWithdrawal(kennedy, id); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to retry the payout: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to retry the payout.", success, testID)

			if base := p.bank.BalanceOf(kennedy); !base.Eq(uint256.NewInt(2_100_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould have received stake plus yield, got %s.", failed, testID, base.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould have received stake plus yield.", success, testID)
		}
	}
}

func Test_ProportionalYield(t *testing.T) {
	t.Log("Given the need to split yield across stakers by share weight.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two accounts hold a one to five position.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(1000), pavel: u(1000)})

			p.bank.Approve(kennedy, poolAcct, u(100))
			if err := p.state.Stake(kennedy, kennedy, u(100)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}
			p.bank.Approve(pavel, poolAcct, u(500))
			if err := p.state.Stake(pavel, pavel, u(500)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			p.clock.advance(365 * 24 * time.Hour)
			if _, err := p.state.Rebase(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to rebase: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to rebase.", success, testID)

			balance, err := p.state.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(110)) {
				t.Fatalf("\t%s\tTest %d:\tShould grow 100 to 110, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould grow 100 to 110.", success, testID)

			balance, err = p.state.RetrieveBalance(pavel)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(550)) {
				t.Fatalf("\t%s\tTest %d:\tShould grow 500 to 550, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould grow 500 to 550.", success, testID)

			report, err := p.state.Audit()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to audit the pool: %v", failed, testID, err)
			}
			if !report.Conserved {
				t.Fatalf("\t%s\tTest %d:\tShould never sum balances above the supply.", failed, testID)
			}
			if report.Drift.Gt(uint256.NewInt(2)) {
				t.Fatalf("\t%s\tTest %d:\tShould keep rounding drift under one token per account, got %s.", failed, testID, report.Drift.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould conserve the supply within rounding drift.", success, testID)
		}
	}
}

func Test_ExclusionBoundary(t *testing.T) {
	t.Log("Given the need to keep excluded accounts out of the yield.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen tokens cross in and out of an excluded account.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(10_000), pavel: u(10_000)})

			if err := p.state.SetExcluded(cesar, true); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to exclude an empty account: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to exclude an empty account.", success, testID)

			p.bank.Approve(kennedy, poolAcct, u(1000))
			if err := p.state.Stake(kennedy, kennedy, u(1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			if err := p.state.SetExcluded(kennedy, true); !errors.Is(err, ledger.ErrNonZeroBalance) {
				t.Fatalf("\t%s\tTest %d:\tShould reject excluding a funded account: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject excluding a funded account.", success, testID)

			if err := p.state.Transfer(kennedy, cesar, u(200)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to transfer into exclusion: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to transfer into exclusion.", success, testID)

			p.clock.advance(365 * 24 * time.Hour)
			if _, err := p.state.Rebase(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to rebase: %v", failed, testID, err)
			}

			balance, err := p.state.RetrieveBalance(cesar)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(200)) {
				t.Fatalf("\t%s\tTest %d:\tShould keep the excluded balance flat at 200, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould keep the excluded balance flat at 200.", success, testID)

			balance, err = p.state.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(880)) {
				t.Fatalf("\t%s\tTest %d:\tShould grow the participating 800 to 880, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould grow the participating 800 to 880.", success, testID)

			report, err := p.state.Audit()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to audit the pool: %v", failed, testID, err)
			}
			if !report.TallyMatch || !report.RegistryMatch {
				t.Fatalf("\t%s\tTest %d:\tShould keep the exclusion bookkeeping consistent.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the exclusion bookkeeping consistent.", success, testID)

			if err := p.state.SetExcluded(cesar, false); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to include the account again: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to include the account again.", success, testID)

			if excluded := p.state.RetrieveExcluded(); len(excluded) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have an empty exclusion registry, got %d.", failed, testID, len(excluded))
			}
			t.Logf("\t%s\tTest %d:\tShould have an empty exclusion registry.", success, testID)

			balance, err = p.state.RetrieveBalance(cesar)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(220)) {
				t.Fatalf("\t%s\tTest %d:\tShould value the returned shares at the current rate, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould value the returned shares at the current rate.", success, testID)
		}
	}
}

func Test_ConfigChanges(t *testing.T) {
	t.Log("Given the need to retune the pool without losing accrued yield.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the emission rate changes mid window.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(1_000_000)})

			p.bank.Approve(kennedy, poolAcct, u(1_000_000))
			if err := p.state.Stake(kennedy, kennedy, u(1_000_000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			p.clock.advance(4380 * time.Hour)

			result, err := p.state.SetEmissionRate(u(2000))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to change the emission rate: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to change the emission rate.", success, testID)

			if !result.Amount.Eq(uint256.NewInt(50_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould settle the old rate's half year first, got %s.", failed, testID, result.Amount.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould settle the old rate's half year first.", success, testID)

			p.clock.advance(4380 * time.Hour)

			if _, err := p.state.Rebase(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to rebase at the new rate: %v", failed, testID, err)
			}

			balance, err := p.state.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(uint256.NewInt(1_155_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould compound both windows to 1155000, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould compound both windows to 1155000.", success, testID)

			if _, err := p.state.SetEmissionRate(u(6000)); !errors.Is(err, rebase.ErrRateCeiling) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a rate above the ceiling: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a rate above the ceiling.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the schedule and delay bounds are enforced.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(10_000)})

			if _, err := p.state.SetRebaseInterval(30 * time.Minute); !errors.Is(err, rebase.ErrInvalidInterval) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an interval below one hour: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an interval below one hour.", success, testID)

			if _, err := p.state.SetRebaseInterval(31 * 24 * time.Hour); !errors.Is(err, rebase.ErrInvalidInterval) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an interval above thirty days: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an interval above thirty days.", success, testID)

			if _, err := p.state.SetRebaseInterval(2 * time.Hour); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to widen the interval: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to widen the interval.", success, testID)

			sum, err := p.state.RetrieveSummary()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the summary: %v", failed, testID, err)
			}
			if sum.RebaseInterval != 2*time.Hour {
				t.Fatalf("\t%s\tTest %d:\tShould report the new interval, got %s.", failed, testID, sum.RebaseInterval)
			}
			t.Logf("\t%s\tTest %d:\tShould report the new interval.", success, testID)

			if err := p.state.SetWithdrawalDelay(31 * 24 * time.Hour); !errors.Is(err, state.ErrInvalidDelay) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a delay above thirty days: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a delay above thirty days.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen pending requests mature under a shortened delay.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(10_000)})

			p.bank.Approve(kennedy, poolAcct, u(1000))
			if err := p.state.Stake(kennedy, kennedy, u(1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			id, err := p.state.RequestWithdrawal(kennedy, u(1000))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to request a withdrawal: %v", failed, testID, err)
			}

			if err := p.state.ProcessWithdrawal(kennedy, id); !errors.Is(err, state.ErrDelayNotMet) {
				t.Fatalf("\t%s\tTest %d:\tShould reject processing under the old delay: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject processing under the old delay.", success, testID)

			if err := p.state.SetWithdrawalDelay(0); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to drop the delay to zero: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to drop the delay to zero.", success, testID)

			if err := p.state.ProcessWithdrawal(kennedy, id); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould process the pending request under the new delay: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould process the pending request under the new delay.", success, testID)
		}
	}
}

func Test_Restart(t *testing.T) {
	t.Log("Given the need to rebuild the pool from its checkpoints.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the pool restarts after a working session.", testID)
		{
			gen := testGenesis()
			clk := &clock{now: gen.Date}

			str, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the store: %v", failed, testID, err)
			}

			bnk1, err := bank.New(poolAcct, map[ledger.AccountID]uint256.Int{kennedy: u(10_000)})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the bank: %v", failed, testID, err)
			}

			st1, err := state.New(state.Config{Genesis: gen, Store: str, Bank: bnk1, Now: clk.Now})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the state: %v", failed, testID, err)
			}

			bnk1.Approve(kennedy, poolAcct, u(2000))
			if err := st1.Stake(kennedy, kennedy, u(2000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}
			if err := st1.SetExcluded(cesar, true); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to exclude: %v", failed, testID, err)
			}
			if err := st1.Transfer(kennedy, cesar, u(500)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to transfer: %v", failed, testID, err)
			}

			clk.advance(365 * 24 * time.Hour)
			if _, err := st1.Rebase(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to rebase: %v", failed, testID, err)
			}
			if _, err := st1.RequestWithdrawal(kennedy, u(650)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to request a withdrawal: %v", failed, testID, err)
			}

			wantBalance, err := st1.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			wantRate := st1.RetrieveExchangeRate()
			wantBase := bnk1.BalanceOf(kennedy)
			wantSeq, wantHash := st1.RetrieveCheckpoint()

			if err := st1.Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shut down: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to shut down.", success, testID)

			// A brand new bank proves the checkpoint carries the money.
			bnk2, err := bank.New(poolAcct, map[ledger.AccountID]uint256.Int{kennedy: u(10_000)})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the bank: %v", failed, testID, err)
			}

			st2, err := state.New(state.Config{Genesis: gen, Store: str, Bank: bnk2, Now: clk.Now})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to restart from the checkpoints: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to restart from the checkpoints.", success, testID)

			balance, err := st2.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.Eq(&wantBalance) {
				t.Fatalf("\t%s\tTest %d:\tShould restore the balance %s, got %s.", failed, testID, wantBalance.Dec(), balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould restore the balances.", success, testID)

			if rate := st2.RetrieveExchangeRate(); !rate.Eq(&wantRate) {
				t.Fatalf("\t%s\tTest %d:\tShould restore the exchange rate %s, got %s.", failed, testID, wantRate.Dec(), rate.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould restore the exchange rate.", success, testID)

			if base := bnk2.BalanceOf(kennedy); !base.Eq(&wantBase) {
				t.Fatalf("\t%s\tTest %d:\tShould restore the bank balances, got %s.", failed, testID, base.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould restore the bank balances.", success, testID)

			seq, hash := st2.RetrieveCheckpoint()
			if seq != wantSeq || hash != wantHash {
				t.Fatalf("\t%s\tTest %d:\tShould continue the chain at checkpoint %d.", failed, testID, wantSeq)
			}
			t.Logf("\t%s\tTest %d:\tShould continue the chain at checkpoint %d.", success, testID, wantSeq)

			requests := st2.RetrieveRequests(kennedy)
			if len(requests) != 1 || requests[0].Processed {
				t.Fatalf("\t%s\tTest %d:\tShould restore the pending withdrawal request.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the pending withdrawal request.", success, testID)

			if _, err := st2.Rebase(); !errors.Is(err, rebase.ErrTooSoon) {
				t.Fatalf("\t%s\tTest %d:\tShould restore the rebase clock: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the rebase clock.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the checkpoint chain is inspected.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(10_000)})

			p.bank.Approve(kennedy, poolAcct, u(2000))
			if err := p.state.Stake(kennedy, kennedy, u(1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}
			if err := p.state.Transfer(kennedy, pavel, u(100)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to transfer: %v", failed, testID, err)
			}

			headers, err := p.state.RetrieveCheckpointHeaders(1, 0)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the headers: %v", failed, testID, err)
			}
			if len(headers) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould have three checkpoints, got %d.", failed, testID, len(headers))
			}
			t.Logf("\t%s\tTest %d:\tShould have three checkpoints.", success, testID)

			ops := []string{"genesis", "stake", "transfer"}
			for i, header := range headers {
				if header.Operation != ops[i] {
					t.Fatalf("\t%s\tTest %d:\tShould record operation %q, got %q.", failed, testID, ops[i], header.Operation)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould record the operations in order.", success, testID)

			if headers[0].PrevHash != store.ZeroHash {
				t.Fatalf("\t%s\tTest %d:\tShould anchor the chain at the zero hash.", failed, testID)
			}
			for i := 1; i < len(headers); i++ {
				if headers[i].PrevHash != headers[i-1].Hash() {
					t.Fatalf("\t%s\tTest %d:\tShould chain checkpoint %d to its parent.", failed, testID, i+1)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould chain every checkpoint to its parent.", success, testID)
		}
	}
}

func Test_SaveFailure(t *testing.T) {
	t.Log("Given the need to keep memory untouched when a checkpoint write fails.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the store rejects the write mid stake.", testID)
		{
			gen := testGenesis()
			clk := &clock{now: gen.Date}

			str, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the store: %v", failed, testID, err)
			}
			flaky := &flakyStore{Store: str}

			bnk, err := bank.New(poolAcct, map[ledger.AccountID]uint256.Int{kennedy: u(10_000)})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the bank: %v", failed, testID, err)
			}

			st, err := state.New(state.Config{Genesis: gen, Store: flaky, Bank: bnk, Now: clk.Now})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the state: %v", failed, testID, err)
			}

			bnk.Approve(kennedy, poolAcct, u(1000))
			flaky.fails = 1

			if err := st.Stake(kennedy, kennedy, u(1000)); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould report the failed checkpoint write.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report the failed checkpoint write.", success, testID)

			balance, err := st.RetrieveBalance(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the balance: %v", failed, testID, err)
			}
			if !balance.IsZero() {
				t.Fatalf("\t%s\tTest %d:\tShould leave no derivative tokens behind, got %s.", failed, testID, balance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould leave no derivative tokens behind.", success, testID)

			if base := bnk.BalanceOf(kennedy); !base.Eq(uint256.NewInt(10_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould put the debited money back, got %s.", failed, testID, base.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould put the debited money back.", success, testID)

			if allowance := bnk.AllowanceOf(kennedy, poolAcct); !allowance.Eq(uint256.NewInt(1000)) {
				t.Fatalf("\t%s\tTest %d:\tShould restore the spent authorization, got %s.", failed, testID, allowance.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould restore the spent authorization.", success, testID)

			if seq, _ := st.RetrieveCheckpoint(); seq != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould stay at the genesis checkpoint, got %d.", failed, testID, seq)
			}
			t.Logf("\t%s\tTest %d:\tShould stay at the genesis checkpoint.", success, testID)

			if err := st.Stake(kennedy, kennedy, u(1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake once the store recovers: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to stake once the store recovers.", success, testID)
		}
	}
}

func Test_CreditRetry(t *testing.T) {
	t.Log("Given the need to retry a payout after the base ledger fails.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the first credit attempt bounces.", testID)
		{
			gen := testGenesis()
			gen.WithdrawalDelay = 0
			clk := &clock{now: gen.Date}

			str, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the store: %v", failed, testID, err)
			}

			bnk, err := bank.New(poolAcct, map[ledger.AccountID]uint256.Int{kennedy: u(10_000)})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the bank: %v", failed, testID, err)
			}
			flaky := &flakyBank{Ledger: bnk, fails: 1}

			st, err := state.New(state.Config{Genesis: gen, Store: str, Bank: flaky, Now: clk.Now})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the state: %v", failed, testID, err)
			}

			bnk.Approve(kennedy, poolAcct, u(1000))
			if err := st.Stake(kennedy, kennedy, u(1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
			}

			id, err := st.RequestWithdrawal(kennedy, u(1000))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to request a withdrawal: %v", failed, testID, err)
			}

			if err := st.ProcessWithdrawal(kennedy, id); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould report the bounced credit.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report the bounced credit.", success, testID)

			requests := st.RetrieveRequests(kennedy)
			if len(requests) != 1 || requests[0].Processed {
				t.Fatalf("\t%s\tTest %d:\tShould keep the request claimable.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the request claimable.", success, testID)

			if err := st.ProcessWithdrawal(kennedy, id); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to retry the payout: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to retry the payout.", success, testID)

			if base := bnk.BalanceOf(kennedy); !base.Eq(uint256.NewInt(10_000)) {
				t.Fatalf("\t%s\tTest %d:\tShould complete the round trip, got %s.", failed, testID, base.Dec())
			}
			t.Logf("\t%s\tTest %d:\tShould complete the round trip.", success, testID)

			if err := st.ProcessWithdrawal(kennedy, id); !errors.Is(err, withdraw.ErrAlreadyProcessed) {
				t.Fatalf("\t%s\tTest %d:\tShould reject paying the request twice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject paying the request twice.", success, testID)
		}
	}
}

func Test_ProofVerification(t *testing.T) {
	t.Log("Given the need to prove an account is part of the checkpointed set.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen three accounts hold positions.", testID)
		{
			p := newPool(t, testGenesis(), map[ledger.AccountID]uint256.Int{kennedy: u(10_000), pavel: u(10_000), cesar: u(10_000)})

			for _, accountID := range []ledger.AccountID{kennedy, pavel, cesar} {
				p.bank.Approve(accountID, poolAcct, u(500))
				if err := p.state.Stake(accountID, accountID, u(500)); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to stake: %v", failed, testID, err)
				}
			}

			proof, err := p.state.QueryProof(kennedy)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build a proof: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to build a proof.", success, testID)

			root, err := hexutil.Decode(proof.Root)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould produce a hex encoded root: %v", failed, testID, err)
			}

			nodes := make([][]byte, len(proof.Proof))
			for i, hex := range proof.Proof {
				node, err := hexutil.Decode(hex)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould produce hex encoded proof nodes: %v", failed, testID, err)
				}
				nodes[i] = node
			}

			ok, err := merkle.VerifyProof(proof.Account, nodes, proof.Order, root)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to verify the proof: %v", failed, testID, err)
			}
			if !ok {
				t.Fatalf("\t%s\tTest %d:\tShould verify the account against the root.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould verify the account against the root.", success, testID)

			headers, err := p.state.RetrieveCheckpointHeaders(0, 0)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the headers: %v", failed, testID, err)
			}
			if headers[len(headers)-1].AccountsRoot != proof.Root {
				t.Fatalf("\t%s\tTest %d:\tShould match the latest checkpoint root.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould match the latest checkpoint root.", success, testID)

			if _, err := p.state.QueryProof(baba); !errors.Is(err, ledger.ErrAccountNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a proof for an unknown account: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a proof for an unknown account.", success, testID)
		}
	}
}

// =============================================================================

// pool bundles everything a test needs to drive the coordinator.
type pool struct {
	state *state.State
	bank  *bank.Ledger
	store store.Store
	clock *clock
}

func newPool(t *testing.T, gen genesis.Genesis, balances map[ledger.AccountID]uint256.Int) *pool {
	t.Helper()

	bnk, err := bank.New(poolAcct, balances)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create the bank: %v", failed, err)
	}

	str, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create the store: %v", failed, err)
	}
	clk := &clock{now: gen.Date}

	st, err := state.New(state.Config{
		Genesis: gen,
		Store:   str,
		Bank:    bnk,
		Now:     clk.Now,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create the state: %v", failed, err)
	}

	return &pool{state: st, bank: bnk, store: str, clock: clk}
}

// testGenesis returns a genesis the tests tweak per scenario.
func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:            time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		PoolAccount:     string(poolAcct),
		EmissionModel:   "apr",
		EmissionRate:    "1000",
		MaxEmissionRate: "5000",
		RebaseInterval:  3600,
		WithdrawalDelay: 604800,
	}
}

// clock hands the coordinator a controllable time source.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// flakyStore fails the next saves to exercise the unwind paths.
type flakyStore struct {
	store.Store
	fails int
}

func (f *flakyStore) Save(snap store.Snapshot) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("disk full")
	}

	return f.Store.Save(snap)
}

// flakyBank bounces the next credits to exercise the retry path.
type flakyBank struct {
	*bank.Ledger
	fails int
}

func (f *flakyBank) Credit(to ledger.AccountID, amount uint256.Int) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("bridge offline")
	}

	return f.Ledger.Credit(to, amount)
}

// u builds a uint256 value from a small number.
func u(n uint64) uint256.Int {
	return *uint256.NewInt(n)
}
