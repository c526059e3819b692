package models

import "testing"

func TestParseOutcome(t *testing.T) {
	cases := []struct {
		raw  string
		want Outcome
		ok   bool
	}{
		{"SUCCESS", OutcomeSuccess, true},
		{"success", OutcomeSuccess, true},
		{" Failure ", OutcomeFailure, true},
		{"FAILURE", OutcomeFailure, true},
		{"denied", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseOutcome(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseOutcome(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseMFAUsage(t *testing.T) {
	cases := []struct {
		raw  string
		want MFAUsage
	}{
		{"false", MFANo},
		{"FALSE", MFANo},
		{"0", MFANo},
		{"no", MFANo},
		{"", MFAUnknown},
		{"na", MFAUnknown},
		{"none", MFAUnknown},
		{"NA", MFAUnknown},
		{"true", MFAYes},
		{"1", MFAYes},
		// Unrecognized non-empty text is treated as MFA present.
		{"yubikey", MFAYes},
	}
	for _, tc := range cases {
		if got := ParseMFAUsage(tc.raw); got != tc.want {
			t.Fatalf("ParseMFAUsage(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestMFAEvidence(t *testing.T) {
	if MFAYes.Evidence() != true {
		t.Fatalf("expected MFAYes to count as evidence")
	}
	if MFANo.Evidence() || MFAUnknown.Evidence() {
		t.Fatalf("negative and unknown MFA must not count as evidence")
	}
}

func TestEventTypeMatching(t *testing.T) {
	e := Event{EventType: "user.authentication.succeeded"}
	if !e.IsSuccessfulLogin() {
		t.Fatalf("expected success taxonomy match")
	}
	// Matching is case-sensitive by convention.
	e = Event{EventType: "USER.AUTHENTICATION.SUCCEEDED"}
	if e.IsSuccessfulLogin() {
		t.Fatalf("did not expect case-insensitive taxonomy match")
	}
	e = Event{EventType: "user.mfa.factor.verify"}
	if !e.IsMFAEvent() {
		t.Fatalf("expected mfa token match")
	}
}
