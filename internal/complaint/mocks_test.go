package complaint_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"civiclens/backend/internal/analysis"
	"civiclens/backend/internal/complaint"
	"civiclens/backend/internal/models"
	"civiclens/backend/internal/storage"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Load(ctx context.Context) ([]models.Complaint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockStorage) Save(ctx context.Context, complaints []models.Complaint) error {
	args := m.Called(ctx, complaints)
	return args.Error(0)
}

// flakyStorage wraps a MemoryStore and fails saves while failing is set.
type flakyStorage struct {
	*storage.MemoryStore
	mu      sync.Mutex
	failing bool
	saves   int
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{MemoryStore: storage.NewMemoryStore()}
}

func (f *flakyStorage) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *flakyStorage) Save(ctx context.Context, complaints []models.Complaint) error {
	f.mu.Lock()
	failing := f.failing
	f.saves++
	f.mu.Unlock()
	if failing {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, complaints)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("CL-%04d", n)
	}
}

type fixture struct {
	clock   *fakeClock
	storage *flakyStorage
	store   *complaint.Store
	service *complaint.Service
}

func newFixture() *fixture {
	clock := newFakeClock()
	st := newFlakyStorage()
	store := complaint.NewStore(st, zap.NewNop(), complaint.WithClock(clock.Now), complaint.WithIDGenerator(sequentialIDs()))
	svc := complaint.NewService(store, analysis.NewClassifier(nil, 0, zap.NewNop()), zap.NewNop())
	return &fixture{clock: clock, storage: st, store: store, service: svc}
}
