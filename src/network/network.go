package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"chart-bridge/src/logger"
	"chart-bridge/src/models"
)

// -----------------------------------------------------------------------------

type AsyncNetworkManager struct {
	Config *models.MConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	return &AsyncNetworkManager{
		Config: cfg,
		Logger: log,
		Client: &http.Client{
			Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
	}
}

// -----------------------------------------------------------------------------

// PostJSON sends a single JSON request. No transport-level retries: the
// credential exchange must issue exactly one call per attempt, so retry
// policy stays with the caller.
func (nm *AsyncNetworkManager) PostJSON(ctx context.Context, urlStr string, body interface{}, headers map[string]string) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	nm.applyHeaders(req, headers)

	resp, err := nm.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, respBody, nil
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and exponential backoff.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string, headers map[string]string) (int, []byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return 0, nil, err
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	finalUrl := reqUrl.String()

	maxRetries := nm.Config.Network.MaxRetries
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(i*i) * time.Second): // Exponential backoff
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalUrl, nil)
		if err != nil {
			return 0, nil, err
		}
		nm.applyHeaders(req, headers)

		resp, err := nm.Client.Do(req)
		if err != nil {
			lastErr = err
			nm.Logger.Info("Request failed (attempt %d/%d): %v", i+1, maxRetries+1, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		// 5xx is worth retrying; everything else is the caller's to classify.
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("bad status: %d", resp.StatusCode)
			nm.Logger.Info("Bad status %d", resp.StatusCode)
			continue
		}

		return resp.StatusCode, body, nil
	}

	return 0, nil, fmt.Errorf("max retries exceeded: %v", lastErr)
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) applyHeaders(req *http.Request, headers map[string]string) {
	if nm.Config.Network.UserAgent != "" {
		req.Header.Set("User-Agent", nm.Config.Network.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
