package analyzer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"authtower/internal/rules"
	"authtower/internal/stats"
	"authtower/pkg/models"
)

// Run executes the metrics aggregator and all detectors over one batch
// and assembles the report. Detectors are pure reads with no shared
// state, so they run concurrently; each writes into its own slot and the
// alert list keeps the fixed precedence order [burst, travel, policy]
// regardless of completion order. Detectors with no findings contribute
// nothing. Alerts from the optional rule engine are appended after the
// built-in three, ordered by rule name.
func Run(batch *models.Batch, engine rules.Engine, cfg Config) *models.Report {
	report := &models.Report{
		GeneratedAt: time.Now().UTC(),
		Skipped:     batch.Skipped,
		Events:      batch.Events,
		Alerts:      []string{},
	}

	findings := make([]*Finding, 3)
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		report.Metrics, report.Aggregates = stats.Compute(batch.Events)
	}()
	go func() {
		defer wg.Done()
		findings[0] = DetectFailureBursts(batch.Events, cfg)
	}()
	go func() {
		defer wg.Done()
		findings[1] = DetectCountryHops(batch.Events, cfg)
	}()
	go func() {
		defer wg.Done()
		findings[2] = DetectAdminNoMFA(batch.Events, cfg)
	}()
	wg.Wait()

	for _, f := range findings {
		if f != nil {
			report.Alerts = append(report.Alerts, f.Message)
		}
	}

	if engine != nil {
		report.Alerts = append(report.Alerts, applyRules(batch.Events, engine)...)
	}

	return report
}

// applyRules tags each event with its rule matches and builds one alert
// line per matched rule.
func applyRules(events []models.Event, engine rules.Engine) []string {
	actorsByRule := make(map[string]map[string]struct{})
	for i := range events {
		tags := engine.Apply(&events[i])
		if len(tags) == 0 {
			continue
		}
		events[i].RuleTags = tags
		for _, tag := range tags {
			set := actorsByRule[tag.Name]
			if set == nil {
				set = make(map[string]struct{})
				actorsByRule[tag.Name] = set
			}
			set[events[i].Actor] = struct{}{}
		}
	}

	names := make([]string, 0, len(actorsByRule))
	for name := range actorsByRule {
		names = append(names, name)
	}
	sort.Strings(names)

	alerts := make([]string, 0, len(names))
	for _, name := range names {
		alerts = append(alerts, fmt.Sprintf("Rule match %q: %s", name, joinActors(actorList(actorsByRule[name]))))
	}
	return alerts
}
