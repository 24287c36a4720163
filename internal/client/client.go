// Package client implements the HTTP transport to the remote pipeline API:
// the credential exchange, record creation and attachment uploads.
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

	"github.com/google/uuid"
	"github.com/pipeline-entry/internal/config"
	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/service"
	"github.com/rs/zerolog"
)

// ErrRequestFailed is matched by every error the client returns
var ErrRequestFailed = errors.New("request failed")

// errUndecodable marks a 2xx response whose body could not be decoded
var errUndecodable = errors.New("decode response")

// maxErrorBody bounds how much of a failed response is kept for diagnostics
const maxErrorBody = 512

// RequestError describes a failed call to the remote API
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

// Unwrap returns the underlying cause, if any
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is makes every RequestError match ErrRequestFailed
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Client talks to the remote pipeline API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     service.TokenSource
	log        zerolog.Logger

	maxUploadSize     int64
	photoMaxDimension int
}

// Verify interface compliance
var (
	_ service.Authenticator = (*Client)(nil)
	_ service.Submitter     = (*Client)(nil)
)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource sets where the bearer token is read from
func WithTokenSource(ts service.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// New creates a client for the configured base URL
func New(apiCfg config.APIConfig, uploadCfg config.UploadConfig, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:           strings.TrimRight(apiCfg.BaseURL, "/"),
		httpClient:        &http.Client{Timeout: apiCfg.Timeout},
		log:               log.With().Str("component", "client").Logger(),
		maxUploadSize:     uploadCfg.MaxUploadSize,
		photoMaxDimension: uploadCfg.PhotoMaxDimension,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource sets the bearer token source after construction. The session
// store depends on the client, so the token source is usually wired last.
func (c *Client) SetTokenSource(ts service.TokenSource) {
	c.tokens = ts
}

// BaseURL returns the API root the client sends requests to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate exchanges form-encoded credentials for a role
func (c *Client) Authenticate(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	const op = "login"

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/login/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp models.LoginResponse
	if err := c.do(req, op, &resp); err != nil {
		if !errors.Is(err, errUndecodable) {
			return nil, err
		}
		// any 2xx is a successful login, whatever the body says
		c.log.Warn().Err(err).Str("username", username).Msg("Login body not understood, continuing without role")
		return &models.LoginResponse{}, nil
	}
	return &resp, nil
}

// CreateRecord posts the record and returns the identifier the backend
// assigned to it
func (c *Client) CreateRecord(ctx context.Context, payload *models.PipelinePayload) (*models.CreateRecordResponse, error) {
	const op = "create record"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestError{Op: op, Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/pipelines/", bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.CreateRecordResponse
	if err := c.do(req, op, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, &RequestError{Op: op, Err: errors.New("response carried no id")}
	}

	c.log.Debug().Str("record_id", resp.ID.String()).Msg("Pipeline record created")
	return &resp, nil
}

// GetRecord fetches a created record with its attachments
func (c *Client) GetRecord(ctx context.Context, id string) (*models.PipelineRecord, error) {
	op := "get record " + id

	req, err := c.newRequest(ctx, http.MethodGet, "/pipelines/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	var record models.PipelineRecord
	if err := c.do(req, op, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// do sends the request, treats any non-2xx status as a failure and decodes
// the body into out when out is not nil
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	start := time.Now()
	requestID := req.Header.Get("X-Request-ID")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Str("request_id", requestID).Msg("Request failed")
		return &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", errUndecodable, err)}
	}
	return nil
}
