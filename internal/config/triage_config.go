package config

import "time"

const (
	// Escalation (age of an open complaint since submission, in whole days)
	EscalationDelayedAfterDays = 3
	EscalationSeniorAfterDays  = 7

	// Resolution time below this many days is not meaningfully measurable
	MinMeasurableResolutionDays = 0.1

	// Ward Performance Index weights
	WPIFastResolutionWeight = 0.4
	WPIVerifiedWeight       = 0.3
	WPILowReopenWeight      = 0.2
	WPILowEscalationWeight  = 0.1
	WPIResolutionDayPenalty = 10

	// Dashboard
	RecentActivityLimit = 5

	// Persistence
	SnapshotCollection    = "civicLens_complaints"
	SnapshotSchemaVersion = 1

	// Classifier
	DefaultClassifierTimeout = 2 * time.Second

	// Submission rate limiting
	DefaultSubmissionRateLimit = 20
	SubmissionRateWindow       = 24 * time.Hour
	SubmissionRateKeyPrefix    = "submissions"
)
