// Package store defines the persistence contract for pool checkpoints. A
// checkpoint is a full snapshot of the pool taken after every state change,
// with a header that hash-chains to the previous checkpoint so tampering
// with history is detectable.
package store

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/ardanlabs/liquidstake/foundation/staking/withdraw"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// CheckpointHeader identifies one checkpoint and chains it to its parent.
type CheckpointHeader struct {
	Sequence     uint64 `json:"sequence"`
	TimeStamp    uint64 `json:"timestamp"`
	Operation    string `json:"operation"`
	PrevHash     string `json:"prev_hash"`
	AccountsRoot string `json:"accounts_root"`
	ExchangeRate string `json:"exchange_rate"`
}

// Hash returns the unique hash for the header.
func (h CheckpointHeader) Hash() string {
	data, err := json.Marshal(h)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// =============================================================================

// Schedule captures the rebase engine configuration inside a snapshot.
type Schedule struct {
	Model           string
	RatePerYear     uint256.Int
	MaxRate         uint256.Int
	IntervalSeconds uint64
	LastRebase      uint64
}

// Snapshot is the full pool state written after every operation. The bank
// fields persist the bundled reference bank and stay empty when the pool
// runs against an external base asset ledger.
type Snapshot struct {
	Header          CheckpointHeader
	Accounts        []ledger.Account
	ExchangeRate    uint256.Int
	Requests        map[ledger.AccountID][]withdraw.Request
	Schedule        Schedule
	WithdrawalDelay uint64
	BankBalances    map[ledger.AccountID]uint256.Int
	BankAllowances  map[ledger.AccountID]map[ledger.AccountID]uint256.Int
}

// Store interface represents the behavior required to be implemented by any
// package providing support for storing and reading pool checkpoints.
type Store interface {
	Save(snap Snapshot) error
	Latest() (Snapshot, bool, error)
	Header(sequence uint64) (CheckpointHeader, error)
	Count() (uint64, error)
	Reset() error
	Close() error
}
