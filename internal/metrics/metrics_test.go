package metrics_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"civiclens/backend/internal/escalation"
	"civiclens/backend/internal/metrics"
	"civiclens/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type opt func(c *models.Complaint)

func resolvedAfter(d time.Duration) opt {
	return func(c *models.Complaint) {
		t := c.CreatedAt.Add(d)
		c.ResolvedAt = &t
	}
}

func suspicious() opt {
	return func(c *models.Complaint) {
		c.Verification = &models.Verification{Status: "Mismatch", IsSuspicious: true}
	}
}

func reopened(n int) opt {
	return func(c *models.Complaint) { c.ReopenCount = n }
}

func complaint(id, category string, status models.Status, age time.Duration, opts ...opt) models.Complaint {
	c := models.Complaint{ID: id, Type: category, Status: status, CreatedAt: now.Add(-age)}
	for _, o := range opts {
		o(&c)
	}
	return c
}

func TestCompute_Empty(t *testing.T) {
	snap := metrics.Compute(nil, escalation.NewDetector(), now)

	assert.Equal(t, 0, snap.Total)
	assert.Equal(t, 100, snap.WPI.Score)
	assert.Equal(t, 100.0, snap.WPI.FastResolution)
	assert.Equal(t, 100.0, snap.WPI.VerifiedRate)
	assert.Equal(t, 100.0, snap.WPI.LowReopen)
	assert.Equal(t, 100.0, snap.WPI.LowEscalation)
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.RecentActivity)
}

func TestCompute_Counts(t *testing.T) {
	complaints := []models.Complaint{
		complaint("1", "Road & Traffic", models.StatusPendingReview, time.Hour),
		complaint("2", "Road & Traffic", models.StatusInProgress, 4*day),
		complaint("3", "Sanitation", models.StatusResolved, 5*day, resolvedAfter(2*day), suspicious()),
		complaint("4", "Water Supply", models.StatusClosed, 9*day, resolvedAfter(4*day), reopened(1)),
		complaint("5", "Sanitation", models.StatusReopened, 8*day, resolvedAfter(day), reopened(1)),
	}

	snap := metrics.Compute(complaints, escalation.NewDetector(), now)

	assert.Equal(t, metrics.Counts{Total: 5, Pending: 2, Resolved: 2, Suspicious: 1, Reopened: 2}, snap.Counts)
	assert.Equal(t, 3.0, snap.AvgResolutionDays)
	assert.Equal(t, 1, snap.EscalatedCount)

	// fast = 100-30 = 70, verified = 50, reopen rate 100% -> 0, esc rate 50% -> 50
	// 0.4*70 + 0.3*50 + 0.2*0 + 0.1*50 = 28 + 15 + 0 + 5 = 48
	assert.Equal(t, 48, snap.WPI.Score)
	assert.Equal(t, 70.0, snap.WPI.FastResolution)
	assert.Equal(t, 50.0, snap.WPI.VerifiedRate)
	assert.Equal(t, 0.0, snap.WPI.LowReopen)
	assert.Equal(t, 50.0, snap.WPI.LowEscalation)
}

func TestAverageResolutionDays_NearZeroIsDeterministic(t *testing.T) {
	complaints := []models.Complaint{
		complaint("1", "A", models.StatusResolved, day, resolvedAfter(time.Minute)),
		complaint("2", "A", models.StatusResolved, day, resolvedAfter(time.Minute)),
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, metrics.AverageResolutionDays(complaints))
	}
}

func TestAverageResolutionDays_IgnoresUnresolved(t *testing.T) {
	complaints := []models.Complaint{
		complaint("1", "A", models.StatusResolved, 10*day, resolvedAfter(36*time.Hour)),
		// Reopened keeps its resolvedAt but is not currently resolved.
		complaint("2", "A", models.StatusReopened, 10*day, resolvedAfter(8*day)),
		// Resolved status but no timestamp is skipped.
		complaint("3", "A", models.StatusResolved, 10*day),
	}

	assert.Equal(t, 1.5, metrics.AverageResolutionDays(complaints))
}

func TestComputeWPI_AlwaysInRange(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		c := metrics.Counts{
			Total:      r.Intn(50) + 1,
			Pending:    r.Intn(50),
			Resolved:   r.Intn(50),
			Suspicious: r.Intn(60),
			Reopened:   r.Intn(200),
		}
		w := metrics.ComputeWPI(c, r.Float64()*40, r.Intn(60))

		require.GreaterOrEqual(t, w.Score, 0, "%+v", c)
		require.LessOrEqual(t, w.Score, 100, "%+v", c)
	}
}

func TestComputeWPI_Perfect(t *testing.T) {
	w := metrics.ComputeWPI(metrics.Counts{Total: 3, Resolved: 3}, 0, 0)
	assert.Equal(t, 100, w.Score)
}

func TestCategoryDistribution(t *testing.T) {
	complaints := []models.Complaint{
		complaint("1", "Water Supply", models.StatusPendingReview, 0),
		complaint("2", "Sanitation", models.StatusPendingReview, 0),
		complaint("3", "Road & Traffic", models.StatusPendingReview, 0),
		complaint("4", "Road & Traffic", models.StatusPendingReview, 0),
		complaint("5", "Sanitation", models.StatusPendingReview, 0),
		complaint("6", "General Issue", models.StatusPendingReview, 0),
	}

	shares := metrics.CategoryDistribution(complaints)

	require.Len(t, shares, 4)
	// Sanitation and Road tie at 2; Sanitation was seen first.
	assert.Equal(t, "Sanitation", shares[0].Category)
	assert.Equal(t, "Road & Traffic", shares[1].Category)
	assert.Equal(t, "Water Supply", shares[2].Category)
	assert.Equal(t, "General Issue", shares[3].Category)

	sum := 0.0
	for _, s := range shares {
		sum += s.Percentage
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
	assert.True(t, math.Abs(shares[0].Percentage-100.0/3) < 1e-9)
}

func TestRecentActivity(t *testing.T) {
	var complaints []models.Complaint
	statuses := []models.Status{models.StatusResolved, models.StatusClosed, models.StatusReopened, models.StatusPendingReview, models.StatusInProgress}
	for i := 0; i < 10; i++ {
		s := statuses[i%len(statuses)]
		complaints = append(complaints, complaint(string(rune('a'+i)), "A", s, time.Duration(i)*time.Hour))
	}
	// Shuffle the input order: the feed sorts by creation time itself.
	complaints[0], complaints[9] = complaints[9], complaints[0]

	feed := metrics.RecentActivity(complaints, 5)

	require.Len(t, feed, 5)
	for i, c := range feed {
		assert.Contains(t, []models.Status{models.StatusResolved, models.StatusClosed, models.StatusReopened}, c.Status)
		if i > 0 {
			assert.False(t, c.CreatedAt.After(feed[i-1].CreatedAt))
		}
	}
	assert.Equal(t, "a", feed[0].ID)
}
