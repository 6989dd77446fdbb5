package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civiclens/backend/internal/config"
	"civiclens/backend/internal/models"

	"go.uber.org/zap"
)

// ErrClassificationUnavailable is returned by remote classifiers that could not
// produce a usable result. The Classifier recovers from it locally.
var ErrClassificationUnavailable = errors.New("classification unavailable")

// Classification sources reported in Result.Source.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// RemoteClassifier is an external classification service.
type RemoteClassifier interface {
	Classify(ctx context.Context, text string) (models.Classification, error)
}

// Result is a classification and where it came from.
type Result struct {
	models.Classification
	Source string
}

// Classifier tries the remote service first and falls back to ClassifyLocal.
type Classifier struct {
	Remote  RemoteClassifier
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClassifier creates a Classifier. remote may be nil, in which case only
// the local rule engine is used.
func NewClassifier(remote RemoteClassifier, timeout time.Duration, logger *zap.Logger) *Classifier {
	if timeout <= 0 {
		timeout = config.DefaultClassifierTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{Remote: remote, Timeout: timeout, Logger: logger}
}

// Classify never fails: any remote error, timeout or cancellation yields the
// local rule engine result.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	if c.Remote != nil {
		result, err := c.classifyRemote(ctx, text)
		if err == nil {
			return Result{Classification: result, Source: SourceRemote}
		}
		c.Logger.Warn("Remote classification failed, using local rules", zap.Error(err))
	}
	return Result{Classification: ClassifyLocal(text), Source: SourceLocal}
}

func (c *Classifier) classifyRemote(ctx context.Context, text string) (models.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	type outcome struct {
		result models.Classification
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := c.Remote.Classify(ctx, text)
		done <- outcome{result: r, err: err}
	}()

	select {
	case <-ctx.Done():
		return models.Classification{}, fmt.Errorf("%w: %w", ErrClassificationUnavailable, ctx.Err())
	case o := <-done:
		if o.err != nil {
			if errors.Is(o.err, ErrClassificationUnavailable) {
				return models.Classification{}, o.err
			}
			return models.Classification{}, fmt.Errorf("%w: %w", ErrClassificationUnavailable, o.err)
		}
		if err := validateRemote(o.result); err != nil {
			return models.Classification{}, err
		}
		return o.result, nil
	}
}

func validateRemote(r models.Classification) error {
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("%w: remote result has no type", ErrClassificationUnavailable)
	}
	if !r.Urgency.Valid() {
		return fmt.Errorf("%w: remote result has urgency %q", ErrClassificationUnavailable, r.Urgency)
	}
	return nil
}
