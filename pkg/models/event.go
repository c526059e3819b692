package models

import (
	"strings"
	"time"
)

// SuccessEventType is the event-type taxonomy token for a successful
// authentication. Matching is a case-sensitive substring check, consistent
// with the provider's dotted event-type convention.
const SuccessEventType = "user.authentication.succeeded"

// MFAEventToken marks MFA-related event types (substring match).
const MFAEventToken = "mfa"

// Outcome is the normalized result of an authentication event.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// ParseOutcome normalizes free-text outcome values. Anything other than
// SUCCESS/FAILURE (case-insensitive) is invalid.
func ParseOutcome(raw string) (Outcome, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS":
		return OutcomeSuccess, true
	case "FAILURE":
		return OutcomeFailure, true
	default:
		return "", false
	}
}

// MFAUsage is the tri-state MFA evidence parsed from loosely-typed text.
type MFAUsage int

const (
	MFAUnknown MFAUsage = iota
	MFANo
	MFAYes
)

// ParseMFAUsage classifies the raw mfaUsed text. Explicit negatives map to
// MFANo, empty/na/none map to MFAUnknown, and any other non-empty text is
// treated as MFA present. The fail-open default for unrecognized text
// mirrors the upstream allow-list {"false","0","no","na","none",""}.
func ParseMFAUsage(raw string) MFAUsage {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "false", "0", "no":
		return MFANo
	case "", "na", "none":
		return MFAUnknown
	default:
		return MFAYes
	}
}

// Evidence reports whether the value counts as MFA evidence for policy
// checks. Unknown is not evidence.
func (m MFAUsage) Evidence() bool {
	return m == MFAYes
}

func (m MFAUsage) String() string {
	switch m {
	case MFAYes:
		return "yes"
	case MFANo:
		return "no"
	default:
		return "unknown"
	}
}

// Event is one normalized authentication event.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	Actor         string    `json:"actor"`
	SourceAddress string    `json:"ip"`
	Country       string    `json:"country,omitempty"`
	MFAUsed       MFAUsage  `json:"mfa_used"`
	Outcome       Outcome   `json:"outcome"`
	Role          string    `json:"role"`

	RuleTags []RuleTag `json:"rule_tags,omitempty"`
}

// IsSuccessfulLogin reports whether the event type matches the
// authentication-success taxonomy token.
func (e *Event) IsSuccessfulLogin() bool {
	return strings.Contains(e.EventType, SuccessEventType)
}

// IsMFAEvent reports whether the event type carries the MFA token.
func (e *Event) IsMFAEvent() bool {
	return strings.Contains(e.EventType, MFAEventToken)
}

// IsAdmin compares the role case-insensitively against the given
// privileged role name.
func (e *Event) IsAdmin(role string) bool {
	return strings.EqualFold(e.Role, role)
}

// Batch is an immutable, timestamp-ordered event sequence produced by one
// normalization pass. Rows dropped during normalization are accounted for
// in Skipped so they never vanish silently.
type Batch struct {
	Events  []Event     `json:"events"`
	Skipped SkippedRows `json:"skipped"`
}

// SkippedRows counts rows excluded at normalization, by reason.
type SkippedRows struct {
	BadTimestamp int `json:"bad_timestamp"`
	BadOutcome   int `json:"bad_outcome"`
}

// Total returns the number of excluded rows.
func (s SkippedRows) Total() int {
	return s.BadTimestamp + s.BadOutcome
}

// RuleTag labels an event matched by an optional detection rule.
type RuleTag struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Severity string `json:"severity,omitempty"`
}
