// Package classifier talks to the external service that categorizes a new
// complaint and scores its urgency. Nothing here computes a score itself.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Result is what the classification service returns for a complaint.
type Result struct {
	Category      string  `json:"category"`
	Severity      string  `json:"severity"`
	PriorityScore float64 `json:"priorityScore"`
}

type Classifier interface {
	Classify(ctx context.Context, description, imageURL string) (Result, error)
}

// Fallback is used when no classification service is configured, and when
// the configured one fails.
var Fallback = Result{Category: "Uncategorized", Severity: "low", PriorityScore: 0}

type Static struct {
	Result Result
}

func (s Static) Classify(context.Context, string, string) (Result, error) {
	return s.Result, nil
}

// HTTP posts {description, imageUrl} to a classification endpoint.
type HTTP struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewHTTP(url string, timeout time.Duration, logger *zap.Logger) *HTTP {
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Classify never fails the complaint: an unreachable or misbehaving service
// yields Fallback and a warning.
func (h *HTTP) Classify(ctx context.Context, description, imageURL string) (Result, error) {
	res, err := h.classify(ctx, description, imageURL)
	if err != nil {
		h.logger.Warn("classification failed, using fallback", zap.Error(err))
		return Fallback, nil
	}
	return res, nil
}

func (h *HTTP) classify(ctx context.Context, description, imageURL string) (Result, error) {
	body, err := json.Marshal(map[string]string{
		"description": description,
		"imageUrl":    imageURL,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("classifier returned %s", resp.Status)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode classifier response: %w", err)
	}
	return res, nil
}
