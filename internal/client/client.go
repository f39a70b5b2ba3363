// Package client is the device-side HTTP client for the household sync API.
// It speaks the server's JSON contract and maps transport failures to
// errors the sync pass can act on; it holds no sync logic of its own.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kindredhq/hearth/internal/wire"
)

const defaultRequestTimeout = 30 * time.Second

var (
	// ErrUnauthorized indicates the server rejected the device's credentials.
	ErrUnauthorized = errors.New("client: unauthorized")
	// ErrMissingBaseURL indicates the client was built without a server URL.
	ErrMissingBaseURL = errors.New("client: base url is required")
	// ErrNotAuthenticated indicates a sync call before Authenticate.
	ErrNotAuthenticated = errors.New("client: device token missing, authenticate first")
)

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to one household server on behalf of one device.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	token   string
}

func New(cfg Config) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if trimmed == "" {
		return nil, ErrMissingBaseURL
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("client: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: trimmed, http: httpClient, logger: logger}, nil
}

// SetToken installs a previously issued device token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the currently held device token.
func (c *Client) Token() string {
	return c.token
}

type authRequest struct {
	AccountID string `json:"account_id"`
	DeviceID  string `json:"device_id"`
	JoinCode  string `json:"join_code"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticate enrolls the device with the household join code and installs
// the issued bearer token on the client.
func (c *Client) Authenticate(ctx context.Context, accountID, deviceID, joinCode string) (int64, error) {
	var response authResponse
	err := c.postJSON(ctx, "/auth/device", authRequest{
		AccountID: accountID,
		DeviceID:  deviceID,
		JoinCode:  joinCode,
	}, &response, false)
	if err != nil {
		return 0, err
	}
	c.token = response.AccessToken
	return response.ExpiresIn, nil
}

// PushOperation is one envelope sent to the server during a push.
type PushOperation struct {
	RecordID          string          `json:"record_id"`
	Operation         string          `json:"operation"`
	ClientTimeSeconds int64           `json:"client_time_s"`
	CreatedAtSeconds  int64           `json:"created_at_s,omitempty"`
	UpdatedAtSeconds  int64           `json:"updated_at_s"`
	Payload           json.RawMessage `json:"payload,omitempty"`
}

// PushResult is the server's verdict on one pushed operation.
type PushResult struct {
	RecordID         string          `json:"record_id"`
	Accepted         bool            `json:"accepted"`
	Version          int64           `json:"version"`
	UpdatedAtSeconds int64           `json:"updated_at_s"`
	IsDeleted        bool            `json:"is_deleted"`
	Payload          json.RawMessage `json:"payload"`
}

type pushRequest struct {
	Operations []PushOperation `json:"operations"`
}

type pushResponse struct {
	Results []PushResult `json:"results"`
}

// Push sends the outstanding operations of one collection.
func (c *Client) Push(ctx context.Context, entityType wire.EntityType, operations []PushOperation) ([]PushResult, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}
	var response pushResponse
	path := fmt.Sprintf("/sync/%s/push", entityType)
	if err := c.postJSON(ctx, path, pushRequest{Operations: operations}, &response, true); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// PullRecord is one authoritative server record, deletion markers included.
type PullRecord struct {
	RecordID         string          `json:"record_id"`
	UpdatedAtSeconds int64           `json:"updated_at_s"`
	IsDeleted        bool            `json:"is_deleted"`
	Payload          json.RawMessage `json:"payload"`
}

type pullResponse struct {
	Records []PullRecord `json:"records"`
}

// Pull fetches the authoritative snapshot of one collection.
func (c *Client) Pull(ctx context.Context, entityType wire.EntityType) ([]PullRecord, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}
	path := fmt.Sprintf("/sync/%s/pull", entityType)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)

	var response pullResponse
	if err := c.do(request, &response); err != nil {
		return nil, err
	}
	return response.Records, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any, authorized bool) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("client: encode request: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if authorized {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	response, err := c.http.Do(request)
	if err != nil {
		// Context cancellation is not a transport failure; callers tell the
		// two apart to keep cancelled passes silent.
		if ctxErr := request.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("client: %s %s: %w", request.Method, request.URL.Path, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if response.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("client: %s %s: status %d: %s",
			request.Method, request.URL.Path, response.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
