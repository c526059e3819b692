package models

import "time"

// Metrics holds the scalar KPIs of one analysis run.
type Metrics struct {
	SuccessfulLogins   int     `json:"successfulLogins"`
	FailedLogins       int     `json:"failedLogins"`
	MFAEvents          int     `json:"mfaEvents"`
	MFAFailRatePercent float64 `json:"mfaFailRatePercent"`
}

// CountRow is one row of an ordered grouped-count table.
type CountRow struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Aggregates holds the grouped-count tables.
type Aggregates struct {
	SuccessByCountry       []CountRow `json:"successByCountry"`
	FailureBySourceAddress []CountRow `json:"failureBySourceAddress"`
}

// Report is the sole output artifact of an analysis run. It is created
// once, never mutated afterwards, and handed to the consumer as-is.
type Report struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Metrics     Metrics     `json:"metrics"`
	Aggregates  Aggregates  `json:"aggregates"`
	Alerts      []string    `json:"alerts"`
	Skipped     SkippedRows `json:"skipped"`
	Events      []Event     `json:"events"`
}
