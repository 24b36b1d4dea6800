package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thermoters/jobd/internal/util"
)

const maxResponseBytes = 32 << 20 // plots are base64 PNGs, allow a few MB

// Client calls the brickplot prediction service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a predictor client. The timeout bounds the whole
// request including the rendering step.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Predict(ctx context.Context, seq string, opts Options) (*Result, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"sequence": seq,
		"options":  opts,
	})
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictor request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("predictor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predictor returned %d: %s", resp.StatusCode, util.TruncateLog(string(body), 256))
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("predictor returned malformed payload: %w", err)
	}
	if result.Image == "" && result.Analysis == "" {
		return nil, errors.New("predictor returned empty payload")
	}
	return &result, nil
}
