// Package service is the HTTP client for the document backend: OCR,
// question answering, upload, and run retrieval.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/csheth/docview/internal/pages"
)

const (
	defaultTimeout  = 2 * time.Minute
	requestIDHeader = "X-Request-ID"
	errorBodyLimit  = 512
)

// ErrNoBaseURL is returned when the client is built without a backend URL.
var ErrNoBaseURL = errors.New("service base url is required")

// Config describes how to reach the backend. It is passed explicitly to
// every component that talks to the service.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Status, e.Body)
}

// Client talks to the backend. It keeps no mutable state and is safe for
// concurrent use.
type Client struct {
	base   *url.URL
	client *http.Client
	log    *slog.Logger
}

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		base:   base,
		client: pickHTTPClient(cfg.HTTPClient, cfg.Timeout),
		log:    log,
	}, nil
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string { return c.base.String() }

// OCR uploads a document and returns its page texts.
func (c *Client) OCR(ctx context.Context, filename string, r io.Reader) (pages.Collection, error) {
	body, contentType, err := multipartFile(filename, r)
	if err != nil {
		return nil, err
	}
	var resp pages.OCRResponse
	if err := c.do(ctx, "ocr", "/ocr", "", body, contentType, &resp); err != nil {
		return nil, err
	}
	if resp.Pages == nil {
		return pages.Collection{}, nil
	}
	return resp.Pages, nil
}

// OCRFile is OCR for a file on disk.
func (c *Client) OCRFile(ctx context.Context, path string) (pages.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.OCR(ctx, filepath.Base(path), f)
}

// CurrentOCR fetches the page texts of the backend's current run.
func (c *Client) CurrentOCR(ctx context.Context) (pages.Collection, error) {
	var resp pages.OCRResponse
	if err := c.do(ctx, "fetch ocr data", "/ocr", "", nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Pages == nil {
		return pages.Collection{}, nil
	}
	return resp.Pages, nil
}

// Ask sends a question with the page texts in order.
func (c *Client) Ask(ctx context.Context, question string, contents []string) (QnAResponse, error) {
	if contents == nil {
		contents = []string{}
	}
	buf, err := json.Marshal(contents)
	if err != nil {
		return nil, err
	}
	// Spaces are sent as %20 rather than "+".
	query := "question=" + strings.ReplaceAll(url.QueryEscape(question), "+", "%20")
	var resp QnAResponse
	if err := c.do(ctx, "get answer", "/qna", query, bytes.NewReader(buf), "application/json", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Upload stores a document and returns the URL it can be downloaded from.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	body, contentType, err := multipartFile(filename, r)
	if err != nil {
		return "", err
	}
	var resp downloadResponse
	if err := c.do(ctx, "upload file", "/upload", "", body, contentType, &resp); err != nil {
		return "", err
	}
	return resp.DownloadURL, nil
}

// Download asks the backend where the current run's PDF lives.
func (c *Client) Download(ctx context.Context) (string, error) {
	var resp downloadResponse
	if err := c.do(ctx, "download pdf", "/download", "", nil, "", &resp); err != nil {
		return "", err
	}
	if resp.DownloadURL == "" {
		return "", errors.New("download pdf: response has no download_url")
	}
	return resp.DownloadURL, nil
}

// Runs lists the backend's runs as id → label.
func (c *Client) Runs(ctx context.Context) (map[string]string, error) {
	var resp runsResponse
	if err := c.do(ctx, "fetch runs", "/runs", "", nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Runs == nil {
		resp.Runs = map[string]string{}
	}
	return resp.Runs, nil
}

// FetchFile streams the resource at rawURL into w. Relative URLs resolve
// against the base URL.
func (c *Client) FetchFile(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	target, err := c.base.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parse download url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.send(req, "fetch pdf file")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

type downloadResponse struct {
	DownloadURL string `json:"download_url"`
}

type runsResponse struct {
	Runs map[string]string `json:"runs"`
}

func (c *Client) do(ctx context.Context, op, path, rawQuery string, body io.Reader, contentType string, out any) error {
	target := c.base.JoinPath(path)
	target.RawQuery = rawQuery
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.send(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// send executes req and turns non-2xx statuses into *StatusError. The
// caller owns the returned body.
func (c *Client) send(req *http.Request, op string) (*http.Response, error) {
	id := uuid.New().String()
	req.Header.Set(requestIDHeader, id)
	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("service request failed",
			"op", op,
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", id,
			"error", err,
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.log.Info("service request",
		"op", op,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", id,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	return resp, nil
}

func multipartFile(filename string, r io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
