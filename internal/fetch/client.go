package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"docharvest/internal/config"
	"docharvest/internal/util"
)

// Client wraps an http.Client with bounded retry and backoff. All provider
// fetchers go through it so one bad source cannot block a run indefinitely.
type Client struct {
	http     *http.Client
	retryMax int
	backoff  time.Duration
	log      *slog.Logger
}

func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSecs) * time.Second},
		retryMax: cfg.RetryMax,
		backoff:  time.Duration(cfg.RetryBackoffMillis) * time.Millisecond,
		log:      logger,
	}
}

// get issues the request, retrying transient failures with doubling backoff.
// The caller owns the response body on success.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			c.log.Info("retrying request", "url", url, "attempt", attempt)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 400 {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = &statusError{code: resp.StatusCode, url: url}
		} else {
			return resp, nil
		}
		if Classify(lastErr) == ErrorPermanent {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Download streams url to dest through a temp file in the destination
// directory, renaming into place only when the transfer completes. A failed
// or interrupted transfer removes the temp file and leaves dest untouched,
// which keeps the size-based idempotence check on the next run valid.
func (c *Client) Download(ctx context.Context, url, dest string) (int64, string, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if err := util.EnsureDir(filepath.Dir(dest)); err != nil {
		return 0, "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "download-*.tmp")
	if err != nil {
		return 0, "", fmt.Errorf("create temp download: %w", err)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, "", fmt.Errorf("stream %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, "", fmt.Errorf("close temp download: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, "", fmt.Errorf("rename temp download: %w", err)
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
