package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithdrawalTransitionFor(t *testing.T) {
	tests := []struct {
		action string
		ok     bool
		to     string
	}{
		{WithdrawalActionApprove, true, WithdrawalStatusApproved},
		{WithdrawalActionComplete, true, WithdrawalStatusComplete},
		{WithdrawalActionCancel, true, WithdrawalStatusCancelled},
		{WithdrawalActionReturn, true, WithdrawalStatusReturned},
		{"reject", false, ""},
		{"", false, ""},
		{"Approve", false, ""}, // actions are lowercase
	}

	for _, tt := range tests {
		tr, ok := WithdrawalTransitionFor(tt.action)
		assert.Equal(t, tt.ok, ok, "action %q", tt.action)
		if ok {
			assert.Equal(t, tt.to, tr.To, "action %q", tt.action)
		}
	}
}

func TestWithdrawalTransitionAccepts(t *testing.T) {
	approve, _ := WithdrawalTransitionFor(WithdrawalActionApprove)
	assert.True(t, approve.Accepts(WithdrawalStatusPending))
	assert.False(t, approve.Accepts(WithdrawalStatusApproved))
	assert.False(t, approve.Accepts(WithdrawalStatusComplete))

	complete, _ := WithdrawalTransitionFor(WithdrawalActionComplete)
	assert.True(t, complete.Accepts(WithdrawalStatusApproved))
	assert.False(t, complete.Accepts(WithdrawalStatusPending))

	for _, action := range []string{WithdrawalActionCancel, WithdrawalActionReturn} {
		tr, _ := WithdrawalTransitionFor(action)
		assert.True(t, tr.Accepts(WithdrawalStatusPending), "action %q", action)
		assert.True(t, tr.Accepts(WithdrawalStatusApproved), "action %q", action)
		assert.False(t, tr.Accepts(WithdrawalStatusComplete), "action %q", action)
		assert.False(t, tr.Accepts(WithdrawalStatusCancelled), "action %q", action)
		assert.False(t, tr.Accepts(WithdrawalStatusReturned), "action %q", action)
	}
}

// Terminal statuses accept no further action.
func TestTerminalStatusesAreFinal(t *testing.T) {
	terminal := []string{WithdrawalStatusComplete, WithdrawalStatusCancelled, WithdrawalStatusReturned}
	actions := []string{WithdrawalActionApprove, WithdrawalActionComplete, WithdrawalActionCancel, WithdrawalActionReturn}

	for _, status := range terminal {
		for _, action := range actions {
			tr, ok := WithdrawalTransitionFor(action)
			if assert.True(t, ok) {
				assert.False(t, tr.Accepts(status), "action %q must not accept %q", action, status)
			}
		}
	}
}

// Every transition that releases pending either restores the amount to
// available or counts it toward the payout total, never both and never
// neither. Approve moves no money at all.
func TestTransitionBalanceEffects(t *testing.T) {
	approve, _ := WithdrawalTransitionFor(WithdrawalActionApprove)
	assert.False(t, approve.ReleasePending)
	assert.False(t, approve.RestoreAvailable)
	assert.False(t, approve.CountTowardsPayout)

	for _, action := range []string{WithdrawalActionComplete, WithdrawalActionCancel, WithdrawalActionReturn} {
		tr, _ := WithdrawalTransitionFor(action)
		assert.True(t, tr.ReleasePending, "action %q", action)
		assert.NotEqual(t, tr.RestoreAvailable, tr.CountTowardsPayout, "action %q", action)
	}

	complete, _ := WithdrawalTransitionFor(WithdrawalActionComplete)
	assert.True(t, complete.CountTowardsPayout)
	assert.False(t, complete.RestoreAvailable)

	cancel, _ := WithdrawalTransitionFor(WithdrawalActionCancel)
	assert.True(t, cancel.RestoreAvailable)

	ret, _ := WithdrawalTransitionFor(WithdrawalActionReturn)
	assert.True(t, ret.RestoreAvailable)
}
