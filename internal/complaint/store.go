package complaint

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"civiclens/backend/internal/models"
	"civiclens/backend/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmissionMeta carries the citizen-provided fields of a new complaint.
type SubmissionMeta struct {
	Description string
	Ward        string
	ImageName   string
}

// Store is the in-memory, most-recent-first complaint collection. Every
// mutation is written through to the persistence collaborator before it
// becomes visible; a failed write leaves the collection unchanged.
type Store struct {
	mu         sync.RWMutex
	complaints []models.Complaint
	index      map[string]int

	storage storage.Storage
	logger  *zap.Logger
	clock   func() time.Time
	newID   func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) { s.clock = clock }
}

// WithIDGenerator overrides complaint id generation.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates an empty store backed by st. Call Load to hydrate it.
func NewStore(st storage.Storage, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		index:   make(map[string]int),
		storage: st,
		logger:  logger,
		clock:   defaultClock,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timestamps are kept at millisecond precision so every backend round-trips them exactly.
func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.clock()
}

// Load replaces the in-memory collection with the persisted snapshot.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}

	seen := make(map[string]struct{}, len(loaded))
	for i := range loaded {
		if err := loaded[i].Validate(); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if _, dup := seen[loaded[i].ID]; dup {
			return fmt.Errorf("load snapshot: duplicate complaint id %s", loaded[i].ID)
		}
		seen[loaded[i].ID] = struct{}{}
	}
	sortNewestFirst(loaded)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.complaints = loaded
	s.reindex()
	s.logger.Info("Complaint store loaded", zap.Int("complaints", len(loaded)))
	return nil
}

// Persist flushes the whole collection to storage.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.storage.Save(ctx, s.complaints); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Create builds a new complaint from a classification, prepends it and persists.
func (s *Store) Create(ctx context.Context, cls models.Classification, meta SubmissionMeta) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	// Keep createdAt monotonic so most-recent-first survives a reload.
	if len(s.complaints) > 0 && now.Before(s.complaints[0].CreatedAt) {
		now = s.complaints[0].CreatedAt
	}
	c := models.Complaint{
		ID:          s.newID(),
		Type:        cls.Type,
		Department:  cls.Department,
		Urgency:     cls.Urgency,
		Icon:        cls.Icon,
		Description: meta.Description,
		Ward:        meta.Ward,
		Status:      models.StatusPendingReview,
		History:     []models.HistoryEntry{{Status: models.StatusPendingReview, Timestamp: now}},
		CreatedAt:   now,
	}
	if meta.ImageName != "" {
		name := meta.ImageName
		c.ImageName = &name
	}
	if _, exists := s.index[c.ID]; exists {
		return models.Complaint{}, fmt.Errorf("complaint id %s already exists", c.ID)
	}

	next := make([]models.Complaint, 0, len(s.complaints)+1)
	next = append(next, c)
	next = append(next, s.complaints...)

	if err := s.storage.Save(ctx, next); err != nil {
		s.logger.Error("Failed to persist new complaint", zap.String("complaint_id", c.ID), zap.Error(err))
		return models.Complaint{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.complaints = next
	s.reindex()
	return c.Clone(), nil
}

// All returns copies of every complaint, most recently created first.
func (s *Store) All() []models.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Complaint, len(s.complaints))
	for i, c := range s.complaints {
		out[i] = c.Clone()
	}
	return out
}

// Len returns the number of complaints.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.complaints)
}

// FindByID returns a copy of the complaint with the given id.
func (s *Store) FindByID(id string) (models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Complaint{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.complaints[i].Clone(), nil
}

// Update applies fn to a copy of the complaint and persists the result.
// If fn or the write fails, nothing changes. Updates are serialized.
func (s *Store) Update(ctx context.Context, id string, fn func(c *models.Complaint) error) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return models.Complaint{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	working := s.complaints[i].Clone()
	if err := fn(&working); err != nil {
		return models.Complaint{}, err
	}

	next := make([]models.Complaint, len(s.complaints))
	copy(next, s.complaints)
	next[i] = working

	if err := s.storage.Save(ctx, next); err != nil {
		s.logger.Error("Failed to persist complaint update, rolled back", zap.String("complaint_id", id), zap.Error(err))
		return models.Complaint{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.complaints = next
	return working.Clone(), nil
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.complaints))
	for i, c := range s.complaints {
		s.index[c.ID] = i
	}
}

func sortNewestFirst(complaints []models.Complaint) {
	sort.SliceStable(complaints, func(i, j int) bool {
		return complaints[i].CreatedAt.After(complaints[j].CreatedAt)
	})
}
