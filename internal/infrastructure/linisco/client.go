package linisco

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

	"linisco-sync-layer/internal/domain"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds every upstream request
	DefaultTimeout = 10 * time.Second

	userAgent    = "linisco-sync-layer/1.0"
	maxBodyBytes = 16 << 20
)

// Client talks to the Linisco POS API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new upstream client. A zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Data  *struct {
		Token string `json:"token"`
	} `json:"data,omitempty"`
}

// Login exchanges store credentials for a bearer token
func (c *Client) Login(ctx context.Context, storeID, email, password string) (string, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Store-Id", storeID)

	status, body, err := c.do(ctx, "login", req)
	if err != nil {
		return "", err
	}
	if unavailable(status) {
		return "", &domain.ConnectivityError{Op: "login", Status: status}
	}
	if !successful(status) {
		return "", &domain.AuthError{StoreID: storeID, Status: status, Err: fmt.Errorf("login rejected: %s", snippet(body))}
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &domain.AuthError{StoreID: storeID, Status: status, Err: fmt.Errorf("failed to decode login response: %w", err)}
	}
	token := resp.Token
	if token == "" && resp.Data != nil {
		token = resp.Data.Token
	}
	if token == "" {
		return "", &domain.AuthError{StoreID: storeID, Status: status, Err: fmt.Errorf("login response carried no token")}
	}

	c.logger.Debug().Str("storeId", storeID).Msg("Upstream login succeeded")
	return token, nil
}

// get reads one endpoint and returns the status and raw body of a successful response.
// Unreachable upstreams yield a *domain.ConnectivityError, anything else a *domain.FetchError.
func (c *Client) get(ctx context.Context, endpoint domain.Endpoint, store domain.Store, token string, r domain.Range) (int, []byte, error) {
	query := url.Values{}
	query.Set("from_date", r.FromParam())
	query.Set("to_date", r.ToParam())
	query.Set("store_id", store.StoreID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+string(endpoint)+"?"+query.Encode(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Store-Id", store.StoreID)
	req.Header.Set("X-User-Email", store.Email)

	status, body, err := c.do(ctx, string(endpoint), req)
	if err != nil {
		return 0, nil, err
	}
	if unavailable(status) {
		return status, nil, &domain.ConnectivityError{Op: string(endpoint), Status: status}
	}
	if !successful(status) {
		return status, nil, &domain.FetchError{
			Endpoint: endpoint,
			StoreID:  store.StoreID,
			Status:   status,
			Err:      fmt.Errorf("unexpected response: %s", snippet(body)),
		}
	}
	return status, body, nil
}

// do executes the request and reads the body. Transport failures become connectivity
// errors unless the caller's own context ended first.
func (c *Client) do(ctx context.Context, op string, req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return 0, nil, &domain.ConnectivityError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return 0, nil, &domain.ConnectivityError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return resp.StatusCode, body, nil
}
