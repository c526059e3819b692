package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config controls detector thresholds.
type Config struct {
	BurstWindow    time.Duration
	BurstThreshold int
	TravelWindow   time.Duration
	AdminRole      string
}

// withDefaults fills unset fields with the standard thresholds.
func (c Config) withDefaults() Config {
	if c.BurstWindow <= 0 {
		c.BurstWindow = 10 * time.Minute
	}
	if c.BurstThreshold <= 0 {
		c.BurstThreshold = 3
	}
	if c.TravelWindow <= 0 {
		c.TravelWindow = time.Hour
	}
	if c.AdminRole == "" {
		c.AdminRole = "admin"
	}
	return c
}

// Finding is one detector's output: the distinct flagged actors plus the
// human-readable alert line built from them.
type Finding struct {
	Rule    string   `json:"rule"`
	Actors  []string `json:"actors"`
	Message string   `json:"message"`
}

// actorList deduplicates and sorts actors lexicographically so alert text
// is deterministic across runs.
func actorList(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for actor := range set {
		out = append(out, actor)
	}
	sort.Strings(out)
	return out
}

func joinActors(actors []string) string {
	return strings.Join(actors, ", ")
}

// windowLabel renders a duration the way the alert text expects:
// sub-hour windows as "10min", whole hours as "1 hour"/"2 hours".
func windowLabel(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dmin", int(d.Minutes()))
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
