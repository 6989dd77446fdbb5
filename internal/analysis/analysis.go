// Package analysis classifies complaint text into a category, responsible
// department, urgency and icon. A remote classifier is tried first when one is
// configured; the local keyword rule engine is always the fallback.
package analysis

import (
	"strings"

	"civiclens/backend/internal/models"
)

// CategoryRule maps a keyword set to a category.
type CategoryRule struct {
	Category   string
	Department string
	Icon       string
	Keywords   []string
}

// CategoryRules is evaluated in order; the first rule with any keyword match wins.
var CategoryRules = []CategoryRule{
	{Category: "Road & Traffic", Department: "Transportation Dept", Icon: "🚦",
		Keywords: []string{"pothole", "road", "street", "traffic", "signal"}},
	{Category: "Sanitation", Department: "Waste Management", Icon: "🗑️",
		Keywords: []string{"garbage", "trash", "waste", "bin", "smell"}},
	{Category: "Water Supply", Department: "Water Board", Icon: "💧",
		Keywords: []string{"water", "leak", "pipe", "flood", "drain"}},
	{Category: "Power & Lighting", Department: "Electric Department", Icon: "💡",
		Keywords: []string{"light", "pole", "electric", "power", "dark"}},
}

// GeneralRule is used when no category rule matches.
var GeneralRule = CategoryRule{Category: "General Issue", Department: "Civic Support", Icon: "📢"}

// HighRiskKeywords drive urgency scoring.
var HighRiskKeywords = []string{
	"accident", "danger", "broken", "urgent", "severe", "hazard", "electric", "fire", "exposed",
}

// mediumHints raise a complaint without risk words to Medium.
var mediumHints = []string{"delay", "problem"}

// ClassifyLocal runs the keyword rule engine. It is pure and never fails.
func ClassifyLocal(text string) models.Classification {
	lower := strings.ToLower(text)
	rule := MatchCategory(lower)
	return models.Classification{
		Type:       rule.Category,
		Department: rule.Department,
		Urgency:    ScoreUrgency(lower),
		Icon:       rule.Icon,
	}
}

// MatchCategory returns the first rule whose keywords appear in text.
func MatchCategory(text string) CategoryRule {
	lower := strings.ToLower(text)
	for _, rule := range CategoryRules {
		if containsAny(lower, rule.Keywords) {
			return rule
		}
	}
	return GeneralRule
}

// RiskCount returns how many high-risk keywords appear in text.
func RiskCount(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, word := range HighRiskKeywords {
		if strings.Contains(lower, word) {
			count++
		}
	}
	return count
}

// ScoreUrgency derives urgency from the high-risk keyword count.
func ScoreUrgency(text string) models.Urgency {
	switch n := RiskCount(text); {
	case n >= 2:
		return models.UrgencyHigh
	case n == 1:
		return models.UrgencyMedium
	}
	if containsAny(strings.ToLower(text), mediumHints) {
		return models.UrgencyMedium
	}
	return models.UrgencyLow
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
