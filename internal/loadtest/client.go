package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/donorflow/internal/app"
)

// ErrRejected is returned when the server answers with backpressure.
var ErrRejected = errors.New("run rejected by backpressure")

// client wraps http.Client for the runs API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	// Any 200 is healthy; the body is the metrics exposition.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *client) submit(ctx context.Context, r app.Request) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/runs", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
	case http.StatusTooManyRequests:
		return "", ErrRejected
	default:
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("submit failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	var ack struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	return ack.RunID, nil
}

func (c *client) run(ctx context.Context, id string) (app.Run, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/runs/"+id, http.NoBody)
	if err != nil {
		return app.Run{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return app.Run{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return app.Run{}, fmt.Errorf("get run %s failed with status %d", id, resp.StatusCode)
	}
	var run app.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return app.Run{}, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return run, nil
}

// wait polls until the run leaves the queued and running states.
func (c *client) wait(ctx context.Context, id string, every time.Duration) (app.Run, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		run, err := c.run(ctx, id)
		if err != nil {
			return app.Run{}, err
		}
		if run.Status == app.StatusSucceeded || run.Status == app.StatusFailed {
			return run, nil
		}
		select {
		case <-ctx.Done():
			return app.Run{}, fmt.Errorf("run %s still %s: %w", id, run.Status, ctx.Err())
		case <-ticker.C:
		}
	}
}
