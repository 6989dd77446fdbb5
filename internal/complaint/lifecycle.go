package complaint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civiclens/backend/internal/models"

	"go.uber.org/zap"
)

// Action is an officer or system command applied to a complaint.
type Action string

const (
	ActionAcknowledge Action = "acknowledge"
	ActionResolve     Action = "resolve"
	ActionReopen      Action = "reopen"
	ActionResume      Action = "resume"
	ActionClose       Action = "close"
)

type transition struct {
	from []models.Status
	to   models.Status
}

func (t transition) allows(s models.Status) bool {
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}

var transitions = map[Action]transition{
	ActionAcknowledge: {from: []models.Status{models.StatusPendingReview}, to: models.StatusInProgress},
	ActionResolve:     {from: []models.Status{models.StatusInProgress}, to: models.StatusResolved},
	ActionReopen:      {from: []models.Status{models.StatusResolved, models.StatusClosed}, to: models.StatusReopened},
	ActionResume:      {from: []models.Status{models.StatusReopened}, to: models.StatusInProgress},
	ActionClose:       {from: []models.Status{models.StatusResolved}, to: models.StatusClosed},
}

// actionOrder fixes the order AllowedActions reports actions in.
var actionOrder = []Action{ActionAcknowledge, ActionResolve, ActionClose, ActionReopen, ActionResume}

// ParseAction maps a case-insensitive action name to an Action.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return a, nil
}

// AllowedActions lists the actions that are legal from status s.
func AllowedActions(s models.Status) []Action {
	var out []Action
	for _, a := range actionOrder {
		if transitions[a].allows(s) {
			out = append(out, a)
		}
	}
	return out
}

// TransitionRequest is one lifecycle command.
type TransitionRequest struct {
	Action              Action
	ResolutionImageName string
	ResolutionNotes     string
}

// Lifecycle validates and applies status transitions through the Store.
type Lifecycle struct {
	store  *Store
	logger *zap.Logger
}

func NewLifecycle(store *Store, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{store: store, logger: logger}
}

// Transition applies req to the complaint with the given id. On any error the
// complaint is left untouched and no history entry is written.
func (l *Lifecycle) Transition(ctx context.Context, id string, req TransitionRequest) (models.Complaint, error) {
	t, ok := transitions[req.Action]
	if !ok {
		return models.Complaint{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	updated, err := l.store.Update(ctx, id, func(c *models.Complaint) error {
		if !t.allows(c.Status) {
			return fmt.Errorf("%w: cannot %s a complaint in %q", ErrInvalidTransition, req.Action, c.Status)
		}
		if req.Action == ActionResolve && strings.TrimSpace(req.ResolutionImageName) == "" {
			return ErrResolutionImageRequired
		}
		at := l.store.Now()
		if last := c.LastTransitionAt(); at.Before(last) {
			at = last
		}
		apply(c, t.to, at, req)
		return nil
	})
	if err != nil {
		return models.Complaint{}, err
	}

	l.logger.Info("Complaint transitioned",
		zap.String("complaint_id", id),
		zap.String("action", string(req.Action)),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

func apply(c *models.Complaint, to models.Status, at time.Time, req TransitionRequest) {
	c.Status = to
	c.History = append(c.History, models.HistoryEntry{Status: to, Timestamp: at})

	switch to {
	case models.StatusResolved:
		resolvedAt := at
		c.ResolvedAt = &resolvedAt
		image := req.ResolutionImageName
		c.ResolutionImageName = &image
		if req.ResolutionNotes != "" {
			notes := req.ResolutionNotes
			c.ResolutionNotes = &notes
		}
	case models.StatusReopened:
		c.ReopenCount++
	}
}

// RecordVerification stores the verification collaborator's verdict on a
// resolved or closed complaint. It does not change status or history.
func (l *Lifecycle) RecordVerification(ctx context.Context, id string, v models.Verification) (models.Complaint, error) {
	return l.store.Update(ctx, id, func(c *models.Complaint) error {
		if !c.Status.IsResolved() {
			return fmt.Errorf("%w: cannot verify a complaint in %q", ErrInvalidTransition, c.Status)
		}
		verdict := v
		c.Verification = &verdict
		return nil
	})
}
