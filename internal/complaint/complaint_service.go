// Package complaint provides the core logic for handling citizen complaints:
// the write-through complaint store, the lifecycle state machine and the
// consumer-facing service used by the API, the Telegram bot and the admin CLI.
package complaint

import (
	"context"
	"errors"
	"sort"
	"strings"

	"civiclens/backend/internal/analysis"
	"civiclens/backend/internal/escalation"
	"civiclens/backend/internal/metrics"
	"civiclens/backend/internal/models"
	"civiclens/backend/internal/telemetry"

	"go.uber.org/zap"
)

// Classifier turns complaint text into a classification.
type Classifier interface {
	Classify(ctx context.Context, text string) analysis.Result
}

// Service handles the business logic for complaints.
type Service struct {
	Store      *Store
	Lifecycle  *Lifecycle
	Classifier Classifier
	Escalation *escalation.Detector
	Logger     *zap.Logger
}

// NewService creates a new complaint service.
func NewService(store *Store, classifier Classifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:      store,
		Lifecycle:  NewLifecycle(store, logger),
		Classifier: classifier,
		Escalation: escalation.NewDetector(),
		Logger:     logger,
	}
}

// Submit classifies the text and records a new complaint.
func (s *Service) Submit(ctx context.Context, text, ward, imageName string) (models.Complaint, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Complaint{}, ErrEmptyDescription
	}

	result := s.Classifier.Classify(ctx, text)
	c, err := s.Store.Create(ctx, result.Classification, SubmissionMeta{
		Description: text,
		Ward:        strings.TrimSpace(ward),
		ImageName:   strings.TrimSpace(imageName),
	})
	if err != nil {
		return models.Complaint{}, err
	}

	telemetry.ObserveSubmission(result.Source, string(c.Urgency))
	s.Logger.Info("Complaint submitted",
		zap.String("complaint_id", c.ID),
		zap.String("type", c.Type),
		zap.String("urgency", string(c.Urgency)),
		zap.String("source", result.Source),
	)
	return c, nil
}

// Transition applies a lifecycle command.
func (s *Service) Transition(ctx context.Context, id string, req TransitionRequest) (models.Complaint, error) {
	c, err := s.Lifecycle.Transition(ctx, id, req)
	telemetry.ObserveTransition(string(req.Action), transitionResult(err))
	if err != nil {
		s.Logger.Warn("Complaint transition rejected",
			zap.String("complaint_id", id),
			zap.String("action", string(req.Action)),
			zap.Error(err),
		)
	}
	return c, err
}

// RecordVerification accepts the verification collaborator's verdict.
func (s *Service) RecordVerification(ctx context.Context, id string, v models.Verification) (models.Complaint, error) {
	return s.Lifecycle.RecordVerification(ctx, id, v)
}

// Get returns one complaint.
func (s *Service) Get(id string) (models.Complaint, error) {
	return s.Store.FindByID(id)
}

// List returns every complaint, most recently created first.
func (s *Service) List() []models.Complaint {
	return s.Store.All()
}

// ListForOfficerView orders complaints High urgency first, then newest first.
func (s *Service) ListForOfficerView() []models.Complaint {
	out := s.Store.All()
	SortForOfficer(out)
	return out
}

// SortForOfficer sorts in place: High urgency first, then by creation time descending.
func SortForOfficer(complaints []models.Complaint) {
	sort.SliceStable(complaints, func(i, j int) bool {
		hi := complaints[i].Urgency == models.UrgencyHigh
		hj := complaints[j].Urgency == models.UrgencyHigh
		if hi != hj {
			return hi
		}
		return complaints[i].CreatedAt.After(complaints[j].CreatedAt)
	})
}

// DashboardSnapshot recomputes the dashboard metrics from the current collection.
func (s *Service) DashboardSnapshot() metrics.Snapshot {
	snap := metrics.Compute(s.Store.All(), s.Escalation, s.Store.Now())
	telemetry.ObserveDashboard(snap.WPI.Score, snap.EscalatedCount)
	return snap
}

// Escalated is an open complaint past an escalation threshold.
type Escalated struct {
	Complaint  models.Complaint  `json:"complaint"`
	Escalation escalation.Status `json:"escalation"`
}

// Escalations lists open escalated complaints, oldest first.
func (s *Service) Escalations() []Escalated {
	now := s.Store.Now()
	out := []Escalated{}
	for _, c := range s.Store.All() {
		if st := s.Escalation.Status(c, now); st.Escalated() {
			out = append(out, Escalated{Complaint: c, Escalation: st})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Complaint.CreatedAt.Before(out[j].Complaint.CreatedAt)
	})
	return out
}

// EscalationFor returns the escalation status of one complaint as of now.
func (s *Service) EscalationFor(c models.Complaint) escalation.Status {
	return s.Escalation.Status(c, s.Store.Now())
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	default:
		return "rejected"
	}
}
