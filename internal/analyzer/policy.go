package analyzer

import (
	"fmt"

	"authtower/pkg/models"
)

// DetectAdminNoMFA flags actors with a successful privileged-role login
// that carries no MFA evidence. Only the explicit negative/unknown classes
// of the mfaUsed text count as missing evidence; unrecognized non-empty
// text is treated as MFA present (fail-open).
// Returns nil when no actor is flagged.
func DetectAdminNoMFA(events []models.Event, cfg Config) *Finding {
	cfg = cfg.withDefaults()

	flagged := make(map[string]struct{})
	for i := range events {
		e := &events[i]
		if !e.IsSuccessfulLogin() || !e.IsAdmin(cfg.AdminRole) {
			continue
		}
		if e.MFAUsed.Evidence() {
			continue
		}
		flagged[e.Actor] = struct{}{}
	}

	if len(flagged) == 0 {
		return nil
	}

	actors := actorList(flagged)
	return &Finding{
		Rule:    "admin_no_mfa",
		Actors:  actors,
		Message: fmt.Sprintf("Admin success without MFA: %s", joinActors(actors)),
	}
}
