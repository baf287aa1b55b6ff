// Package withdraw maintains the per-account queues of delayed withdrawal
// requests. Request ids are indexes into the owning account's list, so the
// lists are append-only and entries are never removed, only marked
// processed.
package withdraw

import (
	"errors"

	"github.com/ardanlabs/liquidstake/foundation/staking/ledger"
	"github.com/holiman/uint256"
)

// Set of error variables for queue operations.
var (
	ErrUnknownRequest   = errors.New("unknown withdrawal request")
	ErrAlreadyProcessed = errors.New("withdrawal request already processed")
	ErrOverflow         = errors.New("arithmetic overflow")
)

// Request represents one withdrawal waiting out the delay. BaseAmount is
// the base asset owed on processing and Derivative records the derivative
// tokens burned when the request was created.
type Request struct {
	ID          int
	BaseAmount  uint256.Int
	Derivative  uint256.Int
	RequestedAt uint64
	Processed   bool
}

// Queue manages the withdrawal requests for all accounts. It carries no
// lock of its own, the coordinator serializes all access.
type Queue struct {
	requests map[ledger.AccountID][]Request
}

// New constructs an empty withdrawal queue.
func New() *Queue {
	return &Queue{
		requests: make(map[ledger.AccountID][]Request),
	}
}

// Add appends a request to the account's list and returns its id.
func (q *Queue) Add(accountID ledger.AccountID, request Request) int {
	request.ID = len(q.requests[accountID])
	request.Processed = false

	q.requests[accountID] = append(q.requests[accountID], request)

	return request.ID
}

// Get returns the specified request.
func (q *Queue) Get(accountID ledger.AccountID, id int) (Request, error) {
	list := q.requests[accountID]
	if id < 0 || id >= len(list) {
		return Request{}, ErrUnknownRequest
	}

	return list[id], nil
}

// MarkProcessed flips the processed flag on the specified request. The flag
// is also flipped back when a payout needs to be unwound.
func (q *Queue) MarkProcessed(accountID ledger.AccountID, id int, processed bool) error {
	list := q.requests[accountID]
	if id < 0 || id >= len(list) {
		return ErrUnknownRequest
	}

	list[id].Processed = processed

	return nil
}

// ListByAccount returns a copy of the account's requests in creation order.
func (q *Queue) ListByAccount(accountID ledger.AccountID) []Request {
	list := make([]Request, len(q.requests[accountID]))
	copy(list, q.requests[accountID])

	return list
}

// All returns a copy of every request grouped by account.
func (q *Queue) All() map[ledger.AccountID][]Request {
	all := make(map[ledger.AccountID][]Request, len(q.requests))
	for accountID, list := range q.requests {
		cp := make([]Request, len(list))
		copy(cp, list)
		all[accountID] = cp
	}

	return all
}

// Load replaces the queue content with the specified requests.
func (q *Queue) Load(requests map[ledger.AccountID][]Request) {
	q.requests = make(map[ledger.AccountID][]Request, len(requests))
	for accountID, list := range requests {
		cp := make([]Request, len(list))
		copy(cp, list)
		q.requests[accountID] = cp
	}
}

// Clone makes a deep copy of the queue.
func (q *Queue) Clone() *Queue {
	clone := New()
	clone.Load(q.requests)

	return clone
}

// PendingBase sums the base asset owed on every unprocessed request. This
// is the pool's outstanding liability.
func (q *Queue) PendingBase() (uint256.Int, error) {
	var total uint256.Int
	for _, list := range q.requests {
		for _, request := range list {
			if request.Processed {
				continue
			}
			if _, overflow := total.AddOverflow(&total, &request.BaseAmount); overflow {
				return uint256.Int{}, ErrOverflow
			}
		}
	}

	return total, nil
}

// Counts returns the total number of requests and how many have processed.
func (q *Queue) Counts() (total int, processed int) {
	for _, list := range q.requests {
		total += len(list)
		for _, request := range list {
			if request.Processed {
				processed++
			}
		}
	}

	return total, processed
}
