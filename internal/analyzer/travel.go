package analyzer

import (
	"fmt"
	"time"

	"authtower/internal/logger"
	"authtower/pkg/models"
)

// countryHop is one improbable geographic transition.
type countryHop struct {
	Actor string
	From  string
	To    string
	At    time.Time
}

// DetectCountryHops flags actors whose successful logins jump between
// countries within TravelWindow. The check is purely pairwise: each login
// is compared only to the actor's immediately preceding login with a
// known country. It does not model travel feasibility; it is a coarse
// heuristic. Events must already be in ascending timestamp order.
// Returns nil when no actor has a hop.
func DetectCountryHops(events []models.Event, cfg Config) *Finding {
	cfg = cfg.withDefaults()

	// Per-actor successful logins with a known country, in batch order.
	logins := make(map[string][]int)
	for i := range events {
		if events[i].IsSuccessfulLogin() && events[i].Country != "" {
			logins[events[i].Actor] = append(logins[events[i].Actor], i)
		}
	}

	flagged := make(map[string]struct{})
	for actor, idxs := range logins {
		for k := 1; k < len(idxs); k++ {
			prev, cur := &events[idxs[k-1]], &events[idxs[k]]
			if cur.Timestamp.Sub(prev.Timestamp) > cfg.TravelWindow {
				continue
			}
			if cur.Country == prev.Country {
				continue
			}
			hop := countryHop{Actor: actor, From: prev.Country, To: cur.Country, At: cur.Timestamp}
			logger.Debugf("Country hop: actor=%s %s->%s at %s", hop.Actor, hop.From, hop.To, hop.At.Format(time.RFC3339))
			flagged[actor] = struct{}{}
		}
	}

	if len(flagged) == 0 {
		return nil
	}

	actors := actorList(flagged)
	return &Finding{
		Rule:    "country_hop",
		Actors:  actors,
		Message: fmt.Sprintf("Country hop within %s: %s", windowLabel(cfg.TravelWindow), joinActors(actors)),
	}
}
