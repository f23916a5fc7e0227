// Package client talks to the conversion server: it uploads text files,
// checks job status, lists voices and fetches the finished audio.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// API endpoints.
const (
	uploadEndpoint = "upload"
	statusEndpoint = "status"
	voicesEndpoint = "voices"
)

// Multipart form fields expected by the upload endpoint.
const (
	fieldFile  = "file"
	fieldVoice = "voice"
)

// HTTP headers.
const (
	headerAccept      = "Accept"
	headerContentType = "Content-Type"
	headerUserAgent   = "User-Agent"
	contentTypeJSON   = "application/json"
)

// Job statuses reported by the status endpoint.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "knoxify"
	maxErrorBody     = 64 << 10
)

// ErrMissingJobID is returned when the upload endpoint accepts a file but
// does not hand back a job id to poll.
var ErrMissingJobID = errors.New("server response did not include a job id")

// UploadResponse is the body returned by a successful upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

// JobStatus is the body returned by the status endpoint.
type JobStatus struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	Voice       string `json:"voice,omitempty"`
	Filename    string `json:"filename,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

type voicesResponse struct {
	Voices []string `json:"voices"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIError is returned for any non-2xx response. Message holds the server's
// error field and is empty when the server did not provide one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps the number of requests per second. Zero or less means
// no limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: defaultTimeout},
		limiter:   rate.NewLimiter(rate.Inf, 1),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Upload sends the file and the chosen voice to the upload endpoint and
// returns the id of the job the server created.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, voice string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile(fieldFile, filename)
	if err != nil {
		return "", fmt.Errorf("unable to build upload: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("unable to read file: %w", err)
	}
	if err := mw.WriteField(fieldVoice, voice); err != nil {
		return "", fmt.Errorf("unable to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("unable to build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL.JoinPath(uploadEndpoint).String(), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set(headerContentType, mw.FormDataContentType())

	var out UploadResponse
	if err := c.doJSON(req, &out); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", ErrMissingJobID
	}
	return out.JobID, nil
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL.JoinPath(statusEndpoint, url.PathEscape(jobID)).String(), nil)
	if err != nil {
		return JobStatus{}, err
	}

	var out JobStatus
	if err := c.doJSON(req, &out); err != nil {
		return JobStatus{}, err
	}
	return out, nil
}

// Voices lists the voice ids the server accepts.
func (c *Client) Voices(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL.JoinPath(voicesEndpoint).String(), nil)
	if err != nil {
		return nil, err
	}

	var out voicesResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Voices, nil
}

// ResolveURL resolves a download URL, which the server usually reports as a
// path, against the server address.
func (c *Client) ResolveURL(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid download url %q: %w", ref, err)
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

// Download fetches the audio behind a download URL. Redirects, such as the
// server handing out a presigned storage link, are followed.
func (c *Client) Download(ctx context.Context, ref string) ([]byte, error) {
	target, err := c.ResolveURL(ref)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Del(headerAccept)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read audio: %w", err)
	}
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set(headerAccept, contentTypeJSON)
	req.Header.Set(headerUserAgent, c.userAgent)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return c.http.Do(req) //nolint:wrapcheck
}

// doJSON performs the request and decodes a 2xx JSON body into v. Non-2xx
// responses become an *APIError.
func (c *Client) doJSON(req *http.Request, v any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid response from server: %w", err)
	}
	return nil
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var er errorResponse
	if json.Unmarshal(body, &er) == nil {
		apiErr.Message = er.Error
	}
	return apiErr
}
