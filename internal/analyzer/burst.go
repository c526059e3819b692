package analyzer

import (
	"fmt"

	"authtower/pkg/models"
)

// DetectFailureBursts flags actors with BurstThreshold or more failures
// inside a trailing BurstWindow. The window is actor-scoped and rolling:
// right-closed at the current failure, left boundary inclusive, so a
// failure exactly one window before the current one still counts.
// Events must already be in ascending timestamp order.
// Returns nil when no actor trips the threshold.
func DetectFailureBursts(events []models.Event, cfg Config) *Finding {
	cfg = cfg.withDefaults()

	// Per-actor failure timestamps, preserving the batch's sorted order.
	fails := make(map[string][]int)
	for i := range events {
		if events[i].Outcome == models.OutcomeFailure {
			fails[events[i].Actor] = append(fails[events[i].Actor], i)
		}
	}

	flagged := make(map[string]struct{})
	for actor, idxs := range fails {
		if len(idxs) < cfg.BurstThreshold {
			continue
		}
		// Two-pointer sliding window over the actor's failure sequence.
		lo := 0
		for hi := 0; hi < len(idxs); hi++ {
			cutoff := events[idxs[hi]].Timestamp.Add(-cfg.BurstWindow)
			for events[idxs[lo]].Timestamp.Before(cutoff) {
				lo++
			}
			if hi-lo+1 >= cfg.BurstThreshold {
				flagged[actor] = struct{}{}
				break
			}
		}
	}

	if len(flagged) == 0 {
		return nil
	}

	actors := actorList(flagged)
	return &Finding{
		Rule:    "failure_burst",
		Actors:  actors,
		Message: fmt.Sprintf("Many failures in %s window: %s", windowLabel(cfg.BurstWindow), joinActors(actors)),
	}
}
