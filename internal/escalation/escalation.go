// Package escalation flags open complaints that have aged past policy thresholds.
package escalation

import (
	"time"

	"civiclens/backend/internal/config"
	"civiclens/backend/internal/models"
)

// Class is the escalation level of a complaint.
type Class string

const (
	ClassNone    Class = "none"
	ClassDelayed Class = "esc-delayed"
	ClassSenior  Class = "esc-senior"
)

// Status is the derived escalation state of one complaint.
type Status struct {
	Class     Class `json:"class"`
	SinceDays int   `json:"sinceDays"`
}

// Escalated reports whether the complaint needs attention beyond normal handling.
func (s Status) Escalated() bool {
	return s.Class == ClassDelayed || s.Class == ClassSenior
}

// Detector classifies complaint age into escalation levels.
type Detector struct {
	DelayedAfterDays int
	SeniorAfterDays  int
}

// NewDetector uses the configured thresholds.
func NewDetector() *Detector {
	return &Detector{
		DelayedAfterDays: config.EscalationDelayedAfterDays,
		SeniorAfterDays:  config.EscalationSeniorAfterDays,
	}
}

// Status is pure: only Pending Review and In Progress complaints are escalated,
// by whole days elapsed since creation.
func (d *Detector) Status(c models.Complaint, now time.Time) Status {
	if !c.Status.IsPending() {
		return Status{Class: ClassNone}
	}

	days := AgeDays(c.CreatedAt, now)
	switch {
	case days >= d.SeniorAfterDays:
		return Status{Class: ClassSenior, SinceDays: days}
	case days >= d.DelayedAfterDays:
		return Status{Class: ClassDelayed, SinceDays: days}
	default:
		return Status{Class: ClassNone, SinceDays: days}
	}
}

// AgeDays returns the whole days between created and now, never negative.
func AgeDays(created, now time.Time) int {
	if now.Before(created) {
		return 0
	}
	return int(now.Sub(created) / (24 * time.Hour))
}
