package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
)

// Categorizer assigns a category label to free-text complaints.
type Categorizer interface {
	Categorize(ctx context.Context, description string) string
}

// ModelCategorizer calls the external classification model over HTTP. Any
// failure degrades to the fallback category; complaint submission never
// blocks on the model.
type ModelCategorizer struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewModelCategorizer builds a categorizer for the configured model endpoint.
func NewModelCategorizer(url string, timeout time.Duration, logger *zap.Logger) *ModelCategorizer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelCategorizer{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type categorizeRequest struct {
	Complaint string `json:"complaint"`
}

type categorizeResponse struct {
	Label string `json:"label"`
}

// Categorize returns the model's label when it is in the allow-list, the
// fallback category otherwise.
func (c *ModelCategorizer) Categorize(ctx context.Context, description string) string {
	if c.url == "" {
		return models.ComplaintCategoryFallback
	}

	payload, err := json.Marshal(categorizeRequest{Complaint: description})
	if err != nil {
		return models.ComplaintCategoryFallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return models.ComplaintCategoryFallback
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("categorizer request failed", zap.Error(err))
		return models.ComplaintCategoryFallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("categorizer returned non-200", zap.Int("status", resp.StatusCode))
		return models.ComplaintCategoryFallback
	}

	var decoded categorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn("categorizer response decode failed", zap.Error(err))
		return models.ComplaintCategoryFallback
	}

	if !models.IsComplaintCategory(decoded.Label) {
		c.logger.Warn("categorizer returned unknown label", zap.String("label", decoded.Label))
		return models.ComplaintCategoryFallback
	}

	return decoded.Label
}

var _ Categorizer = (*ModelCategorizer)(nil)
