package analyzer

import (
	"reflect"
	"testing"
	"time"

	"authtower/pkg/models"
)

func adminLogin(actor, mfaUsed string) models.Event {
	return models.Event{
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EventType: "user.authentication.succeeded",
		Actor:     actor,
		MFAUsed:   models.ParseMFAUsage(mfaUsed),
		Outcome:   models.OutcomeSuccess,
		Role:      "Admin",
	}
}

func TestPolicyFlagsAdminSuccessWithoutMFA(t *testing.T) {
	events := []models.Event{adminLogin("root", "FALSE")}

	f := DetectAdminNoMFA(events, Config{})
	if f == nil {
		t.Fatalf("expected a policy finding")
	}
	if f.Message != "Admin success without MFA: root" {
		t.Fatalf("unexpected message: %q", f.Message)
	}
}

func TestPolicyFlagsUnknownMFAEvidence(t *testing.T) {
	for _, raw := range []string{"", "na", "none", "0", "no"} {
		if f := DetectAdminNoMFA([]models.Event{adminLogin("root", raw)}, Config{}); f == nil {
			t.Fatalf("mfaUsed=%q must count as missing evidence", raw)
		}
	}
}

// Unrecognized non-empty mfaUsed text is treated as MFA present, so it is
// never flagged. This fail-open default is a deliberate compatibility
// choice and a known design risk: a misspelled factor name suppresses the
// violation instead of raising it.
func TestPolicyUnrecognizedTextIsNotFlagged(t *testing.T) {
	if f := DetectAdminNoMFA([]models.Event{adminLogin("root", "yubikey")}, Config{}); f != nil {
		t.Fatalf("unrecognized mfaUsed text must not flag, got %+v", f)
	}
}

func TestPolicyIgnoresNonAdminAndNonLoginEvents(t *testing.T) {
	user := adminLogin("alice", "false")
	user.Role = "user"

	failed := adminLogin("bob", "false")
	failed.EventType = "user.authentication.failed"
	failed.Outcome = models.OutcomeFailure

	if f := DetectAdminNoMFA([]models.Event{user, failed}, Config{}); f != nil {
		t.Fatalf("expected no finding, got %+v", f)
	}
}

func TestPolicyRoleComparisonIsCaseInsensitive(t *testing.T) {
	e := adminLogin("root", "false")
	e.Role = "ADMIN"

	f := DetectAdminNoMFA([]models.Event{e}, Config{})
	if f == nil {
		t.Fatalf("expected case-insensitive role match")
	}
	if !reflect.DeepEqual(f.Actors, []string{"root"}) {
		t.Fatalf("actors = %v, want [root]", f.Actors)
	}
}
