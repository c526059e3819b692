package analyzer

import (
	"strings"
	"testing"
	"time"

	"authtower/pkg/models"
)

func TestRunAlertOrderIsFixed(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var events []models.Event
	// Burst: three quick failures.
	for i := 0; i < 3; i++ {
		events = append(events, failureAt("mallory", base.Add(time.Duration(i)*time.Minute)))
	}
	// Travel hop.
	events = append(events,
		loginAt("carol", "US", base.Add(10*time.Minute)),
		loginAt("carol", "JP", base.Add(20*time.Minute)),
	)
	// Admin success without MFA.
	events = append(events, adminLogin("root", "false"))

	batch := &models.Batch{Events: events}
	for i := 0; i < 10; i++ {
		report := Run(batch, nil, Config{})
		if len(report.Alerts) != 3 {
			t.Fatalf("expected 3 alerts, got %d: %v", len(report.Alerts), report.Alerts)
		}
		if !strings.HasPrefix(report.Alerts[0], "Many failures") ||
			!strings.HasPrefix(report.Alerts[1], "Country hop") ||
			!strings.HasPrefix(report.Alerts[2], "Admin success") {
			t.Fatalf("alert order not [burst, travel, policy]: %v", report.Alerts)
		}
	}
}

func TestRunWithNoFindingsHasEmptyAlertList(t *testing.T) {
	batch := &models.Batch{Events: []models.Event{loginAt("alice", "US", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))}}

	report := Run(batch, nil, Config{})
	if report.Alerts == nil {
		t.Fatalf("alerts must be an empty list, not nil")
	}
	if len(report.Alerts) != 0 {
		t.Fatalf("expected no alerts, got %v", report.Alerts)
	}
}

func TestRunEndToEndScenario(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var events []models.Event
	// Actor mallory: 3 failures in a 6-minute span from one source.
	for i := 0; i < 3; i++ {
		e := failureAt("mallory", base.Add(time.Duration(3*i)*time.Minute))
		e.SourceAddress = "10.0.0.5"
		events = append(events, e)
	}
	// Actor alice: nine ordinary successful logins.
	for i := 0; i < 9; i++ {
		e := loginAt("alice", "US", base.Add(time.Duration(10+i)*time.Minute))
		e.SourceAddress = "10.0.0.8"
		events = append(events, e)
	}
	if len(events) != 12 {
		t.Fatalf("scenario should have 12 rows, got %d", len(events))
	}

	report := Run(&models.Batch{Events: events}, nil, Config{})

	if report.Metrics.FailedLogins != 3 {
		t.Fatalf("failedLogins = %d, want 3", report.Metrics.FailedLogins)
	}
	if report.Metrics.SuccessfulLogins != 9 {
		t.Fatalf("successfulLogins = %d, want 9", report.Metrics.SuccessfulLogins)
	}
	if len(report.Alerts) != 1 || report.Alerts[0] != "Many failures in 10min window: mallory" {
		t.Fatalf("unexpected alerts: %v", report.Alerts)
	}

	found := false
	for _, row := range report.Aggregates.FailureBySourceAddress {
		if row.Key == "10.0.0.5" && row.Count == 3 {
			found = true
		}
	}
	if !found {
		t.Fatalf("failureBySourceAddress missing (10.0.0.5, 3): %v", report.Aggregates.FailureBySourceAddress)
	}
	if len(report.Events) != 12 {
		t.Fatalf("normalized events must pass through, got %d", len(report.Events))
	}
}

type staticEngine struct{}

func (staticEngine) Apply(e *models.Event) []models.RuleTag {
	if e.Outcome == models.OutcomeFailure {
		return []models.RuleTag{{ID: "r1", Name: "Repeated Denials", Severity: "low"}}
	}
	return nil
}

func TestRunAppendsRuleAlertsAfterBuiltins(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		failureAt("mallory", base),
		failureAt("mallory", base.Add(time.Minute)),
		failureAt("mallory", base.Add(2*time.Minute)),
	}

	report := Run(&models.Batch{Events: events}, staticEngine{}, Config{})
	if len(report.Alerts) != 2 {
		t.Fatalf("expected burst alert plus rule alert, got %v", report.Alerts)
	}
	if !strings.HasPrefix(report.Alerts[0], "Many failures") {
		t.Fatalf("built-in alerts must come first: %v", report.Alerts)
	}
	if !strings.Contains(report.Alerts[1], "Repeated Denials") {
		t.Fatalf("expected rule alert last: %v", report.Alerts)
	}
	if len(report.Events[0].RuleTags) != 1 {
		t.Fatalf("expected matched events to carry rule tags")
	}
}
