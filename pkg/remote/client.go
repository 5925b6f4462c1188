package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/wan2gp/wanctl/pkg/models"
)

const (
	connectTimeout = 10 * time.Second
	requestTimeout = 30 * time.Second
)

// Client manages communication with the wan2gp server. It performs no
// retries of its own; retry policy belongs to the orchestrator so that
// user-visible state reflects every attempt.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client bound to a raw host[:port] address. The
// address is normalized up front so that a malformed one fails here,
// before any network call.
func NewClient(addr string) (*Client, error) {
	base, err := NormalizeBaseURL(addr)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		},
	}, nil
}

// BaseURL returns the normalized base address, with trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

type submitResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status,omitempty"`
}

type assetsResponse struct {
	JobID  string         `json:"jobId"`
	Assets []models.Asset `json:"assets"`
}

type retryResponse struct {
	JobID string `json:"jobId"`
}

// Submit creates a new generation job and returns its server-assigned id
func (c *Client) Submit(ctx context.Context, payload models.GenerationPayload) (string, error) {
	var result submitResponse
	if err := c.do(ctx, "POST", "jobs", payload, &result); err != nil {
		return "", err
	}
	if result.JobID == "" {
		return "", &Error{Kind: ErrMalformedResponse, Message: "submit response is missing jobId"}
	}
	return result.JobID, nil
}

// Status fetches the current status of a job. It does a single GET and
// never waits; the poll loop lives in the orchestrator.
func (c *Client) Status(ctx context.Context, jobID string) (models.JobStatus, error) {
	var result models.JobStatus
	if err := c.do(ctx, "GET", "jobs/"+jobID, nil, &result); err != nil {
		return models.JobStatus{}, err
	}
	return result, nil
}

// Assets lists the outputs of a completed job
func (c *Client) Assets(ctx context.Context, jobID string) ([]models.Asset, error) {
	var result assetsResponse
	if err := c.do(ctx, "GET", "jobs/"+jobID+"/assets", nil, &result); err != nil {
		return nil, err
	}
	return result.Assets, nil
}

// Cancel asks the server to stop a job. The server is the source of
// truth for whether work actually halts.
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	return c.do(ctx, "POST", "jobs/"+jobID+"/cancel", nil, nil)
}

// Retry asks the server to re-run a prior job. The returned id may be
// new or the same; callers treat it as a fresh job to poll.
func (c *Client) Retry(ctx context.Context, jobID string) (string, error) {
	var result retryResponse
	if err := c.do(ctx, "POST", "jobs/"+jobID+"/retry", nil, &result); err != nil {
		return "", err
	}
	if result.JobID == "" {
		return "", &Error{Kind: ErrMalformedResponse, Message: "retry response is missing jobId"}
	}
	return result.JobID, nil
}

// do runs one request and maps every failure surface into the taxonomy
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: ErrMalformedResponse, Message: fmt.Sprintf("failed to encode request: %v", err), cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: ErrUnreachableHost, Message: fmt.Sprintf("failed to create request: %v", err), cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Kind: ErrHTTP, Code: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: ErrMalformedResponse, Message: fmt.Sprintf("malformed server response: %v", err), cause: err}
	}
	return nil
}

// Download fetches the full byte content of an asset URL with a plain
// GET. A non-2xx response or an empty body is an asset download error.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, &Error{Kind: ErrAssetDownload, Message: fmt.Sprintf("failed to create download request: %v", err), cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrAssetDownload, Message: fmt.Sprintf("asset download failed: %v", err), cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: ErrAssetDownload, Message: fmt.Sprintf("asset download failed: HTTP %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrAssetDownload, Message: fmt.Sprintf("asset download failed: %v", err), cause: err}
	}
	if len(data) == 0 {
		return nil, &Error{Kind: ErrAssetDownload, Message: "asset response body is empty"}
	}
	return data, nil
}
