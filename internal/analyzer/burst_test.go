package analyzer

import (
	"reflect"
	"testing"
	"time"

	"authtower/pkg/models"
)

func failureAt(actor string, ts time.Time) models.Event {
	return models.Event{
		Timestamp:     ts,
		EventType:     "user.authentication.failed",
		Actor:         actor,
		SourceAddress: "10.0.0.5",
		Outcome:       models.OutcomeFailure,
	}
}

func TestBurstFlagsThreeFailuresInsideWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		failureAt("mallory", base),
		failureAt("mallory", base.Add(4*time.Minute)),
		failureAt("mallory", base.Add(9*time.Minute)),
	}

	f := DetectFailureBursts(events, Config{})
	if f == nil {
		t.Fatalf("expected a burst finding")
	}
	if !reflect.DeepEqual(f.Actors, []string{"mallory"}) {
		t.Fatalf("actors = %v, want [mallory]", f.Actors)
	}
	if f.Message != "Many failures in 10min window: mallory" {
		t.Fatalf("unexpected message: %q", f.Message)
	}
}

func TestBurstIgnoresSpreadOutFailures(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		failureAt("mallory", base),
		failureAt("mallory", base.Add(11*time.Minute)),
		failureAt("mallory", base.Add(22*time.Minute)),
		failureAt("mallory", base.Add(33*time.Minute)),
	}

	if f := DetectFailureBursts(events, Config{}); f != nil {
		t.Fatalf("did not expect a finding for 11-minute spacing, got %+v", f)
	}
}

func TestBurstWindowBoundaryIsInclusive(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		failureAt("mallory", base),
		failureAt("mallory", base.Add(5*time.Minute)),
		failureAt("mallory", base.Add(10*time.Minute)),
	}

	if f := DetectFailureBursts(events, Config{}); f == nil {
		t.Fatalf("expected failure exactly 10 minutes prior to count")
	}
}

func TestBurstBelowThresholdNeverFlags(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		failureAt("mallory", base),
		failureAt("mallory", base.Add(time.Second)),
	}

	if f := DetectFailureBursts(events, Config{}); f != nil {
		t.Fatalf("two failures must never trigger, got %+v", f)
	}
}

func TestBurstIsActorScoped(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// Three failures within a window, but split across two actors.
	events := []models.Event{
		failureAt("alice", base),
		failureAt("bob", base.Add(time.Minute)),
		failureAt("alice", base.Add(2*time.Minute)),
		failureAt("bob", base.Add(3*time.Minute)),
	}

	if f := DetectFailureBursts(events, Config{}); f != nil {
		t.Fatalf("window must be actor-scoped, got %+v", f)
	}
}

func TestBurstSortsAndDeduplicatesActors(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var events []models.Event
	for _, actor := range []string{"zoe", "abe"} {
		for i := 0; i < 4; i++ {
			events = append(events, failureAt(actor, base.Add(time.Duration(i)*time.Minute)))
		}
	}

	f := DetectFailureBursts(events, Config{})
	if f == nil {
		t.Fatalf("expected a finding")
	}
	if !reflect.DeepEqual(f.Actors, []string{"abe", "zoe"}) {
		t.Fatalf("actors = %v, want sorted [abe zoe]", f.Actors)
	}
}

func TestBurstIsIdempotent(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		failureAt("mallory", base),
		failureAt("mallory", base.Add(time.Minute)),
		failureAt("mallory", base.Add(2*time.Minute)),
	}

	first := DetectFailureBursts(events, Config{})
	second := DetectFailureBursts(events, Config{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("detector is not idempotent: %+v vs %+v", first, second)
	}
}
