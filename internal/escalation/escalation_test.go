package escalation_test

import (
	"testing"
	"time"

	"civiclens/backend/internal/escalation"
	"civiclens/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func aged(age time.Duration, status models.Status) models.Complaint {
	return models.Complaint{ID: "c", Status: status, CreatedAt: now.Add(-age)}
}

func TestDetector_Thresholds(t *testing.T) {
	d := escalation.NewDetector()
	day := 24 * time.Hour

	tests := []struct {
		age   time.Duration
		class escalation.Class
		days  int
	}{
		{0, escalation.ClassNone, 0},
		{3*day - time.Minute, escalation.ClassNone, 2},
		{3 * day, escalation.ClassDelayed, 3},
		{6*day + 23*time.Hour, escalation.ClassDelayed, 6},
		{7 * day, escalation.ClassSenior, 7},
		{30 * day, escalation.ClassSenior, 30},
	}

	for _, tt := range tests {
		got := d.Status(aged(tt.age, models.StatusPendingReview), now)
		assert.Equal(t, tt.class, got.Class, "age %s", tt.age)
		assert.Equal(t, tt.days, got.SinceDays, "age %s", tt.age)
	}
}

func TestDetector_OnlyOpenComplaints(t *testing.T) {
	d := escalation.NewDetector()
	old := 10 * 24 * time.Hour

	assert.Equal(t, escalation.ClassSenior, d.Status(aged(old, models.StatusInProgress), now).Class)
	for _, s := range []models.Status{models.StatusResolved, models.StatusClosed, models.StatusReopened} {
		got := d.Status(aged(old, s), now)
		assert.Equal(t, escalation.ClassNone, got.Class, s)
		assert.False(t, got.Escalated())
	}
}

func TestDetector_Idempotent(t *testing.T) {
	d := escalation.NewDetector()
	c := aged(4*24*time.Hour, models.StatusPendingReview)

	first := d.Status(c, now)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, d.Status(c, now))
	}
	assert.True(t, first.Escalated())
}

func TestAgeDays_FutureCreation(t *testing.T) {
	assert.Equal(t, 0, escalation.AgeDays(now.Add(time.Hour), now))
}
