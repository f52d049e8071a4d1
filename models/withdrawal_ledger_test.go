package models

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	errSimAccountNotFound     = errors.New("withdrawal account not found")
	errSimRequestNotFound     = errors.New("withdrawal request not found")
	errSimInvalidTransition   = errors.New("action is not valid for the request's current status")
	errSimUnknownAction       = errors.New("unknown withdrawal action")
	errSimInsufficientBalance = errors.New("amount exceeds available balance")
)

// ledgerAccount mirrors the production update rules in memory: the
// status check and the balance movement happen under one lock, the way
// a single conditional document update commits them together. Failure
// resolution follows the same order as the repository: unknown action,
// missing account, missing request, then status mismatch.
type ledgerAccount struct {
	mu        sync.Mutex
	exists    bool
	available float64
	pending   float64
	withdrawn float64
	requests  map[string]*WithdrawalRequest
}

func newLedgerAccount(available float64) *ledgerAccount {
	return &ledgerAccount{
		exists:    true,
		available: available,
		requests:  make(map[string]*WithdrawalRequest),
	}
}

func (a *ledgerAccount) createRequest(id string, amount float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.exists {
		return errSimAccountNotFound
	}
	if a.available < amount {
		return errSimInsufficientBalance
	}
	a.available -= amount
	a.pending += amount
	a.requests[id] = &WithdrawalRequest{WithdrawalID: id, TotalAmount: amount, Status: WithdrawalStatusPending}
	return nil
}

func (a *ledgerAccount) applyAction(id, action, note string) error {
	tr, ok := WithdrawalTransitionFor(action)
	if !ok {
		return errSimUnknownAction
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.exists {
		return errSimAccountNotFound
	}
	req, ok := a.requests[id]
	if !ok {
		return errSimRequestNotFound
	}
	if !tr.Accepts(req.Status) {
		return errSimInvalidTransition
	}

	req.Status = tr.To
	if note != "" {
		req.AdminNote = note
	}
	if tr.ReleasePending {
		a.pending -= req.TotalAmount
	}
	if tr.RestoreAvailable {
		a.available += req.TotalAmount
	}
	if tr.CountTowardsPayout {
		a.withdrawn += req.TotalAmount
	}
	return nil
}

func (a *ledgerAccount) total() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.available + a.pending + a.withdrawn
}

func TestLedgerHappyPath(t *testing.T) {
	acct := newLedgerAccount(100)

	assert.NoError(t, acct.createRequest("w1", 60))
	assert.Equal(t, 40.0, acct.available)
	assert.Equal(t, 60.0, acct.pending)

	assert.NoError(t, acct.applyAction("w1", WithdrawalActionApprove, ""))
	assert.Equal(t, 60.0, acct.pending, "approve moves no money")

	assert.NoError(t, acct.applyAction("w1", WithdrawalActionComplete, ""))
	assert.Equal(t, 0.0, acct.pending)
	assert.Equal(t, 60.0, acct.withdrawn)
	assert.Equal(t, 40.0, acct.available)
}

func TestLedgerCancelRestoresBalance(t *testing.T) {
	acct := newLedgerAccount(50)

	assert.NoError(t, acct.createRequest("w1", 50))
	assert.ErrorIs(t, acct.createRequest("w2", 1), errSimInsufficientBalance, "available is exhausted")

	assert.NoError(t, acct.applyAction("w1", WithdrawalActionCancel, ""))
	assert.Equal(t, 50.0, acct.available)
	assert.Equal(t, 0.0, acct.pending)
	assert.Equal(t, 0.0, acct.withdrawn)
}

func TestLedgerRejectsOverdraw(t *testing.T) {
	acct := newLedgerAccount(30)
	assert.ErrorIs(t, acct.createRequest("w1", 31), errSimInsufficientBalance)
	assert.Equal(t, 30.0, acct.available)
	assert.Empty(t, acct.requests)
}

// Any action on a withdrawal id that was never created must fail with
// the request-not-found error and leave every balance untouched.
func TestLedgerUnknownRequestID(t *testing.T) {
	acct := newLedgerAccount(100)
	assert.NoError(t, acct.createRequest("w1", 40))

	for _, action := range []string{WithdrawalActionApprove, WithdrawalActionComplete, WithdrawalActionCancel, WithdrawalActionReturn} {
		err := acct.applyAction("no-such-id", action, "")
		assert.ErrorIs(t, err, errSimRequestNotFound, "action %q", action)
		assert.Equal(t, 60.0, acct.available, "action %q", action)
		assert.Equal(t, 40.0, acct.pending, "action %q", action)
		assert.Equal(t, 0.0, acct.withdrawn, "action %q", action)
	}

	// The existing request is still actionable afterwards
	assert.NoError(t, acct.applyAction("w1", WithdrawalActionApprove, ""))
}

// Failure resolution order: an unknown action wins over everything, a
// missing account over a missing request, a missing request over a
// status mismatch.
func TestLedgerFailureResolutionOrder(t *testing.T) {
	acct := newLedgerAccount(100)
	assert.NoError(t, acct.createRequest("w1", 40))
	assert.NoError(t, acct.applyAction("w1", WithdrawalActionApprove, ""))
	assert.NoError(t, acct.applyAction("w1", WithdrawalActionComplete, ""))

	assert.ErrorIs(t, acct.applyAction("no-such-id", "reject", ""), errSimUnknownAction)
	assert.ErrorIs(t, acct.applyAction("no-such-id", WithdrawalActionApprove, ""), errSimRequestNotFound)
	assert.ErrorIs(t, acct.applyAction("w1", WithdrawalActionApprove, ""), errSimInvalidTransition, "completed request accepts nothing")

	gone := newLedgerAccount(0)
	gone.exists = false
	assert.ErrorIs(t, gone.applyAction("w1", WithdrawalActionApprove, ""), errSimAccountNotFound)
	assert.ErrorIs(t, gone.createRequest("w1", 10), errSimAccountNotFound)
}

// The admin note is persisted exactly as given; markup and quotes
// included. Escaping belongs to whoever renders it.
func TestLedgerAdminNoteStoredVerbatim(t *testing.T) {
	acct := newLedgerAccount(100)
	assert.NoError(t, acct.createRequest("w1", 40))

	note := `Payout < $50 & "on hold"`
	assert.NoError(t, acct.applyAction("w1", WithdrawalActionApprove, note))
	assert.Equal(t, note, acct.requests["w1"].AdminNote)

	// An empty note on a later action keeps the previous one
	assert.NoError(t, acct.applyAction("w1", WithdrawalActionComplete, ""))
	assert.Equal(t, note, acct.requests["w1"].AdminNote)
}

// Two admins racing complete against cancel on the same approved
// request: exactly one must win, and the money must end up in exactly
// one place.
func TestLedgerConcurrentCompleteVsCancel(t *testing.T) {
	for i := 0; i < 200; i++ {
		acct := newLedgerAccount(100)
		assert.NoError(t, acct.createRequest("w1", 80))
		assert.NoError(t, acct.applyAction("w1", WithdrawalActionApprove, ""))

		results := make(chan error, 2)
		var wg sync.WaitGroup
		for _, action := range []string{WithdrawalActionComplete, WithdrawalActionCancel} {
			wg.Add(1)
			go func(action string) {
				defer wg.Done()
				results <- acct.applyAction("w1", action, "")
			}(action)
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
			} else {
				assert.ErrorIs(t, err, errSimInvalidTransition)
			}
		}
		assert.Equal(t, 1, wins, "exactly one action must win")
		assert.Equal(t, 0.0, acct.pending)
		assert.Equal(t, 100.0, acct.total(), "no money created or destroyed")
	}
}

// Concurrent request creation cannot overdraw the account.
func TestLedgerConcurrentCreateRequests(t *testing.T) {
	acct := newLedgerAccount(100)

	var wg sync.WaitGroup
	created := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			created <- acct.createRequest(string(rune('a'+n)), 30)
		}(i)
	}
	wg.Wait()
	close(created)

	wins := 0
	for err := range created {
		if err == nil {
			wins++
		}
	}
	assert.Equal(t, 3, wins, "only three 30s fit in 100")
	assert.Equal(t, 10.0, acct.available)
	assert.Equal(t, 90.0, acct.pending)
}
