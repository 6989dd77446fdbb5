package models

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusPendingReview Status = "Pending Review"
	StatusInProgress    Status = "In Progress"
	StatusResolved      Status = "Resolved"
	StatusClosed        Status = "Closed"
	StatusReopened      Status = "Reopened"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingReview, StatusInProgress, StatusResolved, StatusClosed, StatusReopened:
		return true
	}
	return false
}

// IsPending reports whether the complaint is still waiting for or receiving work.
func (s Status) IsPending() bool {
	return s == StatusPendingReview || s == StatusInProgress
}

// IsResolved reports whether the complaint has been resolved (and possibly verified).
func (s Status) IsResolved() bool {
	return s == StatusResolved || s == StatusClosed
}

// Urgency is the three-level priority assigned by the classifier.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// Valid reports whether u is Low, Medium or High.
func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

// Classification is the classifier output attached to a complaint at creation.
type Classification struct {
	Type       string  `json:"type"`
	Department string  `json:"department"`
	Urgency    Urgency `json:"urgency"`
	Icon       string  `json:"icon"`
}

// HistoryEntry records one lifecycle state and when it was entered.
type HistoryEntry struct {
	Status    Status    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Verification is written by the external verification collaborator after resolution.
type Verification struct {
	Status       string `json:"status" bson:"status"`
	IsSuspicious bool   `json:"isSuspicious" bson:"isSuspicious"`
}

// Complaint is one citizen-submitted issue report and its full lifecycle record.
type Complaint struct {
	ID                  string         `json:"id" bson:"id"`
	Type                string         `json:"type" bson:"type"`
	Department          string         `json:"department" bson:"department"`
	Urgency             Urgency        `json:"urgency" bson:"urgency"`
	Icon                string         `json:"icon" bson:"icon"`
	Description         string         `json:"description" bson:"description"`
	ImageName           *string        `json:"imageName,omitempty" bson:"imageName,omitempty"`
	ResolutionImageName *string        `json:"resolutionImageName,omitempty" bson:"resolutionImageName,omitempty"`
	Ward                string         `json:"ward" bson:"ward"`
	Status              Status         `json:"status" bson:"status"`
	History             []HistoryEntry `json:"history" bson:"history"`
	CreatedAt           time.Time      `json:"createdAt" bson:"createdAt"`
	ResolvedAt          *time.Time     `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	ReopenCount         int            `json:"reopenCount" bson:"reopenCount"`
	ResolutionNotes     *string        `json:"resolutionNotes,omitempty" bson:"resolutionNotes,omitempty"`
	Verification        *Verification  `json:"verification,omitempty" bson:"verification,omitempty"`
}

// Classification returns the classifier tuple stored on the complaint.
func (c *Complaint) Classification() Classification {
	return Classification{Type: c.Type, Department: c.Department, Urgency: c.Urgency, Icon: c.Icon}
}

// LastTransitionAt returns the timestamp of the most recent history entry.
func (c *Complaint) LastTransitionAt() time.Time {
	if len(c.History) == 0 {
		return c.CreatedAt
	}
	return c.History[len(c.History)-1].Timestamp
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (c Complaint) Clone() Complaint {
	out := c
	out.History = append([]HistoryEntry(nil), c.History...)
	out.ImageName = cloneString(c.ImageName)
	out.ResolutionImageName = cloneString(c.ResolutionImageName)
	out.ResolutionNotes = cloneString(c.ResolutionNotes)
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		out.ResolvedAt = &t
	}
	if c.Verification != nil {
		v := *c.Verification
		out.Verification = &v
	}
	return out
}

var ErrInvalidComplaint = errors.New("invalid complaint record")

// Validate checks the structural invariants of a complaint record.
func (c *Complaint) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidComplaint)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: %s has unknown status %q", ErrInvalidComplaint, c.ID, c.Status)
	}
	if !c.Urgency.Valid() {
		return fmt.Errorf("%w: %s has unknown urgency %q", ErrInvalidComplaint, c.ID, c.Urgency)
	}
	if len(c.History) == 0 {
		return fmt.Errorf("%w: %s has empty history", ErrInvalidComplaint, c.ID)
	}
	if first := c.History[0]; first.Status != StatusPendingReview || !first.Timestamp.Equal(c.CreatedAt) {
		return fmt.Errorf("%w: %s history does not start at submission", ErrInvalidComplaint, c.ID)
	}
	if last := c.History[len(c.History)-1]; last.Status != c.Status {
		return fmt.Errorf("%w: %s status %q disagrees with history %q", ErrInvalidComplaint, c.ID, c.Status, last.Status)
	}

	resolved, reopened := 0, 0
	for i, h := range c.History {
		if i > 0 && h.Timestamp.Before(c.History[i-1].Timestamp) {
			return fmt.Errorf("%w: %s history is out of order", ErrInvalidComplaint, c.ID)
		}
		switch h.Status {
		case StatusResolved:
			resolved++
		case StatusReopened:
			reopened++
		}
	}
	if (resolved > 0) != (c.ResolvedAt != nil) {
		return fmt.Errorf("%w: %s resolvedAt disagrees with history", ErrInvalidComplaint, c.ID)
	}
	if reopened != c.ReopenCount {
		return fmt.Errorf("%w: %s reopenCount %d, history has %d", ErrInvalidComplaint, c.ID, c.ReopenCount, reopened)
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
