package model

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to StartupStatus
		want     bool
	}{
		{StatusApplied, StatusApproved, true},
		{StatusApproved, StatusActive, true},
		{StatusActive, StatusExited, true},
		{StatusApplied, StatusActive, false},
		{StatusApplied, StatusExited, false},
		{StatusApproved, StatusApplied, false},
		{StatusActive, StatusApproved, false},
		{StatusExited, StatusApplied, false},
		{StatusExited, StatusExited, false},
		{StartupStatus("bogus"), StatusApproved, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []StartupStatus{StatusApplied, StatusApproved, StatusActive, StatusExited} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false, want true", s)
		}
	}
	if ValidStatus(StartupStatus("pending")) {
		t.Error("ValidStatus(pending) = true, want false")
	}
}
