package ledger

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// ZeroAccountID represents the burn address. Tokens must never be minted
// or transferred to it.
const ZeroAccountID = AccountID("0x0000000000000000000000000000000000000000")

// Account represents information stored in the ledger for an individual
// account. Shares are the durable unit of ownership. For a participating
// account the spendable balance is Shares scaled by the exchange rate. For
// an excluded account the shares are the balance, one to one.
type Account struct {
	AccountID AccountID
	Shares    uint256.Int
	Excluded  bool
}

// Hash returns a unique hash for the account record. The accounts merkle
// tree is built over these hashes.
func (a Account) Hash() ([]byte, error) {
	record := struct {
		AccountID AccountID
		Shares    string
		Excluded  bool
	}{
		AccountID: a.AccountID,
		Shares:    a.Shares.Dec(),
		Excluded:  a.Excluded,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// Equals reports whether two account records carry the same position.
func (a Account) Equals(other Account) bool {
	return a.AccountID == other.AccountID && a.Shares.Eq(&other.Shares) && a.Excluded == other.Excluded
}

// =============================================================================

// AccountID represents an account id that is used to hold and move pool
// tokens and is associated with requests against the pool.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).String())
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	const addressLength = 20

	if has0xPrefix(a) {
		a = a[2:]
	}

	return len(a) == 2*addressLength && isHex(a)
}

// IsZero reports whether the account id is unset or the burn address.
func (a AccountID) IsZero() bool {
	return a == "" || a == ZeroAccountID
}

// =============================================================================

// has0xPrefix validates the account starts with a 0x.
func has0xPrefix(a AccountID) bool {
	return len(a) >= 2 && a[0] == '0' && (a[1] == 'x' || a[1] == 'X')
}

// isHex validates whether each byte is valid hexadecimal string.
func isHex(a AccountID) bool {
	if len(a)%2 != 0 {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// =============================================================================

// byAccount provides sorting support by the account id value.
type byAccount []Account

// Len returns the number of accounts in the list.
func (ba byAccount) Len() int {
	return len(ba)
}

// Less helps to sort the list by account id in ascending order to keep the
// accounts in a deterministic order for hashing and enumeration.
func (ba byAccount) Less(i, j int) bool {
	return ba[i].AccountID < ba[j].AccountID
}

// Swap moves accounts in the order of the account id value.
func (ba byAccount) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}
