package ledger

// Registry maintains the set of accounts that are excluded from exchange
// rate appreciation. The set preserves no particular order and removal is
// a swap with the final entry. The registry carries no lock of its own,
// all access is serialized by the owning ledger.
type Registry struct {
	index   map[AccountID]int
	members []AccountID
}

// NewRegistry constructs an empty exclusion registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[AccountID]int),
	}
}

// Add inserts the account into the registry. It returns false if the
// account was already a member.
func (r *Registry) Add(accountID AccountID) bool {
	if _, exists := r.index[accountID]; exists {
		return false
	}

	r.index[accountID] = len(r.members)
	r.members = append(r.members, accountID)

	return true
}

// Remove drops the account from the registry by swapping the final member
// into its slot. It returns false if the account was not a member.
func (r *Registry) Remove(accountID AccountID) bool {
	i, exists := r.index[accountID]
	if !exists {
		return false
	}

	last := len(r.members) - 1
	moved := r.members[last]

	r.members[i] = moved
	r.index[moved] = i

	r.members = r.members[:last]
	delete(r.index, accountID)

	return true
}

// Contains reports whether the account is a member of the registry.
func (r *Registry) Contains(accountID AccountID) bool {
	_, exists := r.index[accountID]
	return exists
}

// Members returns a copy of the current membership.
func (r *Registry) Members() []AccountID {
	members := make([]AccountID, len(r.members))
	copy(members, r.members)

	return members
}

// Count returns the number of excluded accounts.
func (r *Registry) Count() int {
	return len(r.members)
}

// Clone makes a deep copy of the registry.
func (r *Registry) Clone() *Registry {
	clone := Registry{
		index:   make(map[AccountID]int, len(r.index)),
		members: make([]AccountID, len(r.members)),
	}

	for accountID, i := range r.index {
		clone.index[accountID] = i
	}
	copy(clone.members, r.members)

	return &clone
}
