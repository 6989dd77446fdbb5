// Package metrics derives dashboard statistics and the Ward Performance Index
// from a snapshot of the complaint collection. Everything here is pure.
package metrics

import (
	"math"
	"sort"
	"time"

	"civiclens/backend/internal/config"
	"civiclens/backend/internal/escalation"
	"civiclens/backend/internal/models"
)

// Counts are the headline dashboard numbers.
type Counts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Resolved   int `json:"resolved"`
	Suspicious int `json:"suspicious"`
	Reopened   int `json:"reopened"`
}

// WPI is the Ward Performance Index and the sub-scores it is built from.
type WPI struct {
	Score          int     `json:"score"`
	FastResolution float64 `json:"fastResolutionScore"`
	VerifiedRate   float64 `json:"verifiedRate"`
	LowReopen      float64 `json:"lowReopenScore"`
	LowEscalation  float64 `json:"lowEscalationScore"`
}

// CategoryShare is one row of the category distribution.
type CategoryShare struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Snapshot is everything the supervising dashboard shows.
type Snapshot struct {
	Counts
	AvgResolutionDays float64            `json:"avgResolutionDays"`
	EscalatedCount    int                `json:"escalatedCount"`
	WPI               WPI                `json:"wpi"`
	Categories        []CategoryShare    `json:"categories"`
	RecentActivity    []models.Complaint `json:"recentActivity"`
	GeneratedAt       time.Time          `json:"generatedAt"`
}

// Compute builds a Snapshot for complaints as of now.
func Compute(complaints []models.Complaint, detector *escalation.Detector, now time.Time) Snapshot {
	counts := CountComplaints(complaints)
	avg := AverageResolutionDays(complaints)
	escalated := CountEscalated(complaints, detector, now)

	return Snapshot{
		Counts:            counts,
		AvgResolutionDays: avg,
		EscalatedCount:    escalated,
		WPI:               ComputeWPI(counts, avg, escalated),
		Categories:        CategoryDistribution(complaints),
		RecentActivity:    RecentActivity(complaints, config.RecentActivityLimit),
		GeneratedAt:       now,
	}
}

// CountComplaints tallies the headline counts.
func CountComplaints(complaints []models.Complaint) Counts {
	c := Counts{Total: len(complaints)}
	for _, cp := range complaints {
		switch {
		case cp.Status.IsPending():
			c.Pending++
		case cp.Status.IsResolved():
			c.Resolved++
		}
		if cp.Verification != nil && cp.Verification.IsSuspicious {
			c.Suspicious++
		}
		c.Reopened += cp.ReopenCount
	}
	return c
}

// AverageResolutionDays is the mean resolvedAt-createdAt over resolved or
// closed complaints, rounded to one decimal. Differences under
// config.MinMeasurableResolutionDays count as zero.
func AverageResolutionDays(complaints []models.Complaint) float64 {
	total, n := 0.0, 0
	for _, c := range complaints {
		if !c.Status.IsResolved() || c.ResolvedAt == nil {
			continue
		}
		days := c.ResolvedAt.Sub(c.CreatedAt).Hours() / 24
		if days < config.MinMeasurableResolutionDays {
			days = 0
		}
		total += days
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(total/float64(n)*10) / 10
}

// CountEscalated counts complaints the detector marks as delayed or senior.
func CountEscalated(complaints []models.Complaint, detector *escalation.Detector, now time.Time) int {
	n := 0
	for _, c := range complaints {
		if detector.Status(c, now).Escalated() {
			n++
		}
	}
	return n
}

// ComputeWPI combines the sub-scores into the 0-100 index. With no complaints
// every sub-score is 100.
func ComputeWPI(c Counts, avgResolutionDays float64, escalated int) WPI {
	if c.Total == 0 {
		return WPI{Score: 100, FastResolution: 100, VerifiedRate: 100, LowReopen: 100, LowEscalation: 100}
	}

	fast := clamp(100 - avgResolutionDays*config.WPIResolutionDayPenalty)

	verified := 100.0
	reopenRate := 0.0
	if c.Resolved > 0 {
		verified = clamp(float64(c.Resolved-c.Suspicious) / float64(c.Resolved) * 100)
		reopenRate = float64(c.Reopened) / float64(c.Resolved) * 100
	}
	lowReopen := clamp(100 - reopenRate)

	escRate := 0.0
	if c.Pending > 0 {
		escRate = float64(escalated) / float64(c.Pending) * 100
	}
	lowEsc := clamp(100 - escRate)

	score := math.Round(config.WPIFastResolutionWeight*fast +
		config.WPIVerifiedWeight*verified +
		config.WPILowReopenWeight*lowReopen +
		config.WPILowEscalationWeight*lowEsc)

	return WPI{
		Score:          int(score),
		FastResolution: fast,
		VerifiedRate:   verified,
		LowReopen:      lowReopen,
		LowEscalation:  lowEsc,
	}
}

// CategoryDistribution counts complaints per category, largest first; ties
// keep the order in which categories were first seen.
func CategoryDistribution(complaints []models.Complaint) []CategoryShare {
	if len(complaints) == 0 {
		return []CategoryShare{}
	}

	var shares []CategoryShare
	pos := make(map[string]int)
	for _, c := range complaints {
		i, ok := pos[c.Type]
		if !ok {
			i = len(shares)
			pos[c.Type] = i
			shares = append(shares, CategoryShare{Category: c.Type})
		}
		shares[i].Count++
	}

	total := float64(len(complaints))
	for i := range shares {
		shares[i].Percentage = float64(shares[i].Count) / total * 100
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Count > shares[j].Count
	})
	return shares
}

// RecentActivity returns up to limit Resolved, Closed or Reopened complaints,
// newest first by creation time.
func RecentActivity(complaints []models.Complaint, limit int) []models.Complaint {
	out := []models.Complaint{}
	for _, c := range complaints {
		if c.Status.IsResolved() || c.Status == models.StatusReopened {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
