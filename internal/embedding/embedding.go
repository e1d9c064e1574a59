package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/types"
)

// Service maps texts to fixed-length vectors. Implementations must be
// deterministic for identical input within a session.
type Service interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// HTTPClient talks to an OpenAI-compatible /embeddings endpoint.
type HTTPClient struct {
	URL          string
	Model        string
	APIKey       string
	HTTP         *http.Client
	MaxRetryTime time.Duration

	log *logrus.Entry
}

func NewHTTPClient(url, model, apiKey string) *HTTPClient {
	return &HTTPClient{
		URL:          url,
		Model:        model,
		APIKey:       apiKey,
		HTTP:         &http.Client{Timeout: 25 * time.Second},
		MaxRetryTime: 45 * time.Second,
		log:          logger.New().Component("embedding-client"),
	}
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// vectors orders the response by index and checks it matches the request.
func (r embeddingResponse) vectors(want int) ([][]float32, error) {
	if len(r.Data) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(r.Data))
	}
	sort.SliceStable(r.Data, func(i, j int) bool { return r.Data[i].Index < r.Data[j].Index })
	out := make([][]float32, want)
	dims := -1
	for i, d := range r.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		if dims >= 0 && len(d.Embedding) != dims {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(d.Embedding), dims)
		}
		dims = len(d.Embedding)
		out[i] = d.Embedding
	}
	return out, nil
}

func (c *HTTPClient) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.URL == "" {
		return nil, &types.ServiceFailure{Service: "embedding", Err: fmt.Errorf("EMBEDDING_URL not configured")}
	}

	data, err := json.Marshal(map[string]any{
		"model": c.Model,
		"input": texts,
	})
	if err != nil {
		return nil, &types.ServiceFailure{Service: "embedding", Err: err}
	}

	var out [][]float32
	var lastErr error

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).Warn("embedding request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("embedding server error: status=%d body=%s", resp.StatusCode, string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			// Permanent: don't retry on client errors
			lastErr = fmt.Errorf("embedding request rejected: status=%d body=%s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}

		var parsed embeddingResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			lastErr = fmt.Errorf("decode embedding response: %w", err)
			return backoff.Permanent(lastErr)
		}
		vecs, err := parsed.vectors(len(texts))
		if err != nil {
			lastErr = fmt.Errorf("malformed embedding response: %w", err)
			return backoff.Permanent(lastErr)
		}
		out = vecs
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.MaxRetryTime

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, &types.ServiceFailure{Service: "embedding", Err: lastErr}
	}

	c.log.WithField("texts", len(texts)).Debug("embedded batch")
	return out, nil
}
