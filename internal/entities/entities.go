package entities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/types"
)

// Extractor returns the named entities found in text, one per mention, in
// document order.
type Extractor interface {
	Entities(ctx context.Context, text string) ([]types.Entity, error)
}

// HTTPClient calls a spaCy-style NER endpoint:
// POST {"text": "..."} -> {"entities": [{"text": "...", "label": "PERSON"}]}
type HTTPClient struct {
	URL          string
	HTTP         *http.Client
	MaxRetryTime time.Duration

	log *logrus.Entry
}

func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		URL:          url,
		HTTP:         &http.Client{Timeout: 12 * time.Second},
		MaxRetryTime: 20 * time.Second,
		log:          logger.New().Component("ner-client"),
	}
}

type nerResponse struct {
	Entities []types.Entity `json:"entities"`
}

func (c *HTTPClient) Entities(ctx context.Context, text string) ([]types.Entity, error) {
	if c.URL == "" {
		return nil, &types.ServiceFailure{Service: "ner", Err: fmt.Errorf("NER_URL not configured")}
	}
	data, _ := json.Marshal(map[string]string{"text": text})

	var out []types.Entity
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).Warn("ner request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("ner server error: status=%d body=%s", resp.StatusCode, string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("ner request rejected: status=%d body=%s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}

		var parsed nerResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			lastErr = fmt.Errorf("decode ner response: %w", err)
			return backoff.Permanent(lastErr)
		}
		out = parsed.Entities
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.MaxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, &types.ServiceFailure{Service: "ner", Err: lastErr}
	}
	return out, nil
}
