package okta

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"authtower/internal/logger"
	"authtower/pkg/models"
)

// ExpectedColumns is the fixed input schema for Okta System Log exports.
var ExpectedColumns = []string{"timestamp", "eventType", "actor", "ip", "country", "mfaUsed", "outcome", "role"}

// Row is one raw input row keyed by column name.
type Row map[string]string

// SchemaError reports required columns missing from the input batch. The
// whole batch is rejected; no partial report is produced.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %s (expected: %s)",
		strings.Join(e.Missing, ", "), strings.Join(ExpectedColumns, ", "))
}

// CheckSchema validates the column set against the expected schema.
func CheckSchema(columns []string) error {
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[c] = struct{}{}
	}

	var missing []string
	for _, want := range ExpectedColumns {
		if _, ok := have[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// ColumnsOf returns the sorted union of keys across rows, for inputs that
// arrive as loose objects rather than a tabular file.
func ColumnsOf(rows []Row) []string {
	set := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Normalize validates the schema and converts raw rows into a
// timestamp-ordered batch. Rows whose timestamp cannot be parsed or whose
// outcome does not resolve to SUCCESS/FAILURE are excluded and counted in
// the batch's skipped-row tally instead of raising. The sort is stable, so
// ties keep their original row order and repeated runs over the same input
// produce identical batches.
func Normalize(columns []string, rows []Row) (*models.Batch, error) {
	if err := CheckSchema(columns); err != nil {
		return nil, err
	}

	batch := &models.Batch{Events: make([]models.Event, 0, len(rows))}
	for i, row := range rows {
		ts, ok := parseTimestamp(row["timestamp"])
		if !ok {
			batch.Skipped.BadTimestamp++
			logger.Warnf("Row %d: unparseable timestamp %q, excluded", i, row["timestamp"])
			continue
		}

		outcome, ok := models.ParseOutcome(row["outcome"])
		if !ok {
			batch.Skipped.BadOutcome++
			logger.Warnf("Row %d: unresolvable outcome %q, excluded", i, row["outcome"])
			continue
		}

		batch.Events = append(batch.Events, models.Event{
			Timestamp:     ts,
			EventType:     strings.TrimSpace(row["eventType"]),
			Actor:         strings.TrimSpace(row["actor"]),
			SourceAddress: strings.TrimSpace(row["ip"]),
			Country:       strings.TrimSpace(row["country"]),
			MFAUsed:       models.ParseMFAUsage(row["mfaUsed"]),
			Outcome:       outcome,
			Role:          strings.TrimSpace(row["role"]),
		})
	}

	sort.SliceStable(batch.Events, func(a, b int) bool {
		return batch.Events[a].Timestamp.Before(batch.Events[b].Timestamp)
	})

	return batch, nil
}

// parseTimestamp tries the timestamp layouts seen in identity-provider
// exports and normalizes to UTC. Zoneless layouts are interpreted as UTC
// so interval arithmetic stays consistent.
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
