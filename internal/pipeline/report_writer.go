package pipeline

import "authtower/pkg/models"

// ReportWriter persists analysis reports.
type ReportWriter interface {
	WriteReport(report *models.Report) error
	Close() error
}
