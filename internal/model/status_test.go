package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to EventStatus
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusRejected, true},
		{StatusApproved, StatusApproved, true},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusRejected, false},
		{StatusPending, StatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestUserEligible(t *testing.T) {
	var missing *User
	if missing.Eligible() {
		t.Fatal("nil user must not be eligible")
	}
	if !(&User{ID: 1}).Eligible() {
		t.Fatal("unblocked user must be eligible")
	}
	if (&User{ID: 1, IsBlocked: true}).Eligible() {
		t.Fatal("blocked user must not be eligible")
	}
}
