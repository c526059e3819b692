package stats

import (
	"sort"

	"authtower/pkg/models"
)

// topFailureSources caps the failure-by-source table; the consumer shows
// at most the ten worst offenders.
const topFailureSources = 10

// Compute derives the scalar KPIs and grouped-count tables for one batch.
// It is a pure read over the events; the batch is never mutated.
func Compute(events []models.Event) (models.Metrics, models.Aggregates) {
	var m models.Metrics
	mfaFails := 0

	for i := range events {
		e := &events[i]
		if e.IsSuccessfulLogin() {
			m.SuccessfulLogins++
		}
		if e.Outcome == models.OutcomeFailure {
			m.FailedLogins++
		}
		if e.IsMFAEvent() {
			m.MFAEvents++
			if e.Outcome == models.OutcomeFailure {
				mfaFails++
			}
		}
	}

	// Rate is defined as zero on an empty denominator, by policy.
	if m.MFAEvents > 0 {
		m.MFAFailRatePercent = float64(mfaFails) / float64(m.MFAEvents) * 100
	}

	return m, models.Aggregates{
		SuccessByCountry:       successByCountry(events),
		FailureBySourceAddress: failureBySource(events),
	}
}

// successByCountry groups SUCCESS events by country, ordered by country
// name ascending. Events with an absent country are left out of the
// table, the same treatment the country-hop scan applies. The full set is
// returned; truncation is a display decision left to the consumer.
func successByCountry(events []models.Event) []models.CountRow {
	counts := make(map[string]int)
	for i := range events {
		if events[i].Outcome == models.OutcomeSuccess && events[i].Country != "" {
			counts[events[i].Country]++
		}
	}

	rows := make([]models.CountRow, 0, len(counts))
	for country, n := range counts {
		rows = append(rows, models.CountRow{Key: country, Count: n})
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Key < rows[b].Key })
	return rows
}

// failureBySource groups FAILURE events by source address, count
// descending, truncated to the top ten. The sort is stable over
// first-encounter order so ties are deterministic.
func failureBySource(events []models.Event) []models.CountRow {
	counts := make(map[string]int)
	var order []string
	for i := range events {
		if events[i].Outcome != models.OutcomeFailure {
			continue
		}
		addr := events[i].SourceAddress
		if _, seen := counts[addr]; !seen {
			order = append(order, addr)
		}
		counts[addr]++
	}

	rows := make([]models.CountRow, 0, len(order))
	for _, addr := range order {
		rows = append(rows, models.CountRow{Key: addr, Count: counts[addr]})
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Count > rows[b].Count })

	if len(rows) > topFailureSources {
		rows = rows[:topFailureSources]
	}
	return rows
}
