package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/types"
)

// HTTPDriver talks to a browser automation service:
//
//	POST {base}/conversations        script JSON -> job
//	GET  {base}/status?jobId=...     job status
//	GET  {result_url}                ConversationResult JSON
type HTTPDriver struct {
	BaseURL      string
	HTTP         *http.Client
	PollInterval time.Duration
	MaxRetryTime time.Duration
	log          *logrus.Entry
}

type JobResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		JobID     string `json:"JobId"`
		Status    string `json:"Status"`
		ResultURL string `json:"ResultURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

func NewHTTPDriver(baseURL string) *HTTPDriver {
	return &HTTPDriver{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTP:         &http.Client{Timeout: 12 * time.Second},
		PollInterval: 1500 * time.Millisecond,
		MaxRetryTime: 12 * time.Second,
		log:          logger.New().Component("transcription.http"),
	}
}

func (d *HTTPDriver) Name() string { return "http" }

func (d *HTTPDriver) Run(ctx context.Context, script types.Script) (types.ConversationResult, error) {
	log := d.log.WithField("case_type", script.CaseType)

	jobID, resultURL, err := d.publish(ctx, script)
	if err != nil {
		return types.ConversationResult{}, err
	}
	if resultURL == "" {
		resultURL, err = d.poll(ctx, jobID)
		if err != nil {
			return types.ConversationResult{}, err
		}
	}
	log.WithField("result_url", resultURL).Info("conversation captured, downloading result")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.resolve(resultURL), nil)
	if err != nil {
		return types.ConversationResult{}, err
	}
	var res types.ConversationResult
	if err := d.doJSON(ctx, req, nil, &res); err != nil {
		return types.ConversationResult{}, fmt.Errorf("download result: %w", err)
	}
	return res, nil
}

func (d *HTTPDriver) publish(ctx context.Context, script types.Script) (string, string, error) {
	body, err := json.Marshal(script)
	if err != nil {
		return "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/conversations", nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp JobResponse
	if err := d.doJSON(ctx, req, body, &resp); err != nil {
		return "", "", fmt.Errorf("publish conversation: %w", err)
	}
	if resp.Code != http.StatusOK {
		return "", "", fmt.Errorf("publish conversation: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.ResultURL != "" && strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.ResultURL, nil
	}
	if resp.Data.JobID == "" {
		return "", "", fmt.Errorf("publish conversation: no job id in response")
	}
	return resp.Data.JobID, "", nil
}

// poll waits for the job until ctx ends.
func (d *HTTPDriver) poll(ctx context.Context, jobID string) (string, error) {
	u, err := url.Parse(d.BaseURL + "/status")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("jobId", jobID)
	u.RawQuery = q.Encode()

	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return "", err
		}
		var s JobResponse
		if err := d.doJSON(ctx, req, nil, &s); err != nil {
			d.log.WithError(err).WithField("job_id", jobID).Warn("status check failed")
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.ResultURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("conversation job failed: %s", s.Reason)
		}
	}
}

func (d *HTTPDriver) resolve(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return d.BaseURL + "/" + strings.TrimLeft(ref, "/")
}

// doJSON sends req (with body, if any) and decodes the response into target.
// 5xx and transport errors are retried; 4xx is permanent.
func (d *HTTPDriver) doJSON(ctx context.Context, req *http.Request, body []byte, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = d.MaxRetryTime
	var lastErr error
	op := func() error {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}
		resp, err := d.HTTP.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, string(raw))
			return lastErr
		case resp.StatusCode >= 400:
			lastErr = fmt.Errorf("client error %d: %s", resp.StatusCode, string(raw))
			return backoff.Permanent(lastErr)
		}
		if len(raw) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(raw, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(raw))
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
