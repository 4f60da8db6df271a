package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"discord-modbot/models"
)

// HTTPClient talks to a model server exposing POST /classify.
type HTTPClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ Classifier = (*HTTPClient)(nil)

// NewHTTPClient creates a reusable HTTP classifier client.
func NewHTTPClient(endpoint, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type httpClassifyRequest struct {
	Text string `json:"text"`
}

type httpClassifyResponse struct {
	Label      string  `json:"label"`
	LabelID    *int    `json:"label_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Classify sends the text for inference.
func (c *HTTPClient) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	body, err := json.Marshal(httpClassifyRequest{Text: text})
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/classify", bytes.NewReader(body))
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ClassificationResult{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out httpClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("decode response: %w", err)
	}

	label := out.Label
	if label == "" && out.LabelID != nil {
		label = fmt.Sprintf("LABEL_%d", *out.LabelID)
	}
	return models.ClassificationResult{Label: label, Confidence: out.Confidence}, nil
}
