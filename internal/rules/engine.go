package rules

import "authtower/pkg/models"

// Engine applies detection rules to normalized events.
type Engine interface {
	Apply(event *models.Event) []models.RuleTag
}

// NoopEngine returns no tags.
type NoopEngine struct{}

// Apply returns an empty tag list.
func (n *NoopEngine) Apply(event *models.Event) []models.RuleTag {
	return nil
}
