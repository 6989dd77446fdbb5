package analysis

import (
	"context"
	"fmt"

	"civiclens/backend/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Type       string `json:"type"`
	Department string `json:"department"`
	Dept       string `json:"dept"`
	Urgency    string `json:"urgency"`
	Icon       string `json:"icon"`
}

// HTTPRemoteClassifier calls an external classification service over HTTP.
type HTTPRemoteClassifier struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPRemoteClassifier creates a client for the service at baseURL.
// Retries are disabled: a failed call falls back to local rules instead.
func NewHTTPRemoteClassifier(baseURL string, logger *zap.Logger) *HTTPRemoteClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPRemoteClassifier{httpClient: client, logger: logger}
}

// Classify posts the raw text to /classify.
func (c *HTTPRemoteClassifier) Classify(ctx context.Context, text string) (models.Classification, error) {
	var response classifyResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(classifyRequest{Text: text}).
		SetResult(&response).
		Post("/classify")
	if err != nil {
		return models.Classification{}, fmt.Errorf("%w: %w", ErrClassificationUnavailable, err)
	}
	if resp.IsError() {
		c.logger.Debug("Classifier service rejected request", zap.Int("status_code", resp.StatusCode()))
		return models.Classification{}, fmt.Errorf("%w: status %d", ErrClassificationUnavailable, resp.StatusCode())
	}

	dept := response.Department
	if dept == "" {
		dept = response.Dept
	}
	return models.Classification{
		Type:       response.Type,
		Department: dept,
		Urgency:    models.Urgency(response.Urgency),
		Icon:       response.Icon,
	}, nil
}
