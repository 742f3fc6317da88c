package atelier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"doodletale/internal/auth"
	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

// Config controls the Atelier API connection.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the single HTTP boundary to the Atelier API. It builds JSON and
// multipart requests, attaches the bearer token when one is set, enforces one
// overall timeout per call, and normalizes failures into the domain error
// taxonomy. There is no automatic retry; callers decide when to try again.
type Client struct {
	cfg        Config
	authCtx    *auth.Context
	httpClient *http.Client
	log        *zap.Logger
}

var (
	_ ports.CatalogSource     = (*Client)(nil)
	_ ports.TutorialGenerator = (*Client)(nil)
	_ ports.EditService       = (*Client)(nil)
	_ ports.StoryService      = (*Client)(nil)
)

func NewClient(cfg Config, authCtx *auth.Context, log *zap.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.doodletale.app"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if authCtx == nil {
		authCtx = auth.NewContext()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		authCtx:    authCtx,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf, "application/json")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// binaryPart is one file attachment on a multipart request.
type binaryPart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// postMultipart assembles string fields plus binary parts and posts them.
// An attached image part supersedes any image_url field; the two are never
// sent together for the same logical image.
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, parts []binaryPart, out any) error {
	for _, part := range parts {
		if part.field == "image" {
			delete(fields, "image_url")
			break
		}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	for _, part := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, part.field, part.filename))
		header.Set("Content-Type", part.contentType)
		dst, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create part %s: %w", part.field, err)
		}
		if _, err := dst.Write(part.data); err != nil {
			return fmt.Errorf("write part %s: %w", part.field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf, writer.FormDataContentType())
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.authCtx.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes the request and decodes a success body into out. Transport
// failures become NetworkError or TimeoutError, non-2xx statuses become
// APIError, and a success body that fails to decode becomes
// MalformedResponseError.
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := classifyTransportErr(err)
		c.log.Warn("request failed before a response arrived",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(classified),
		)
		return classified
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportErr(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &domain.APIError{
			StatusCode: resp.StatusCode,
			Message:    errorDetail(raw, resp.Status),
		}
		c.log.Warn("server rejected request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.MalformedResponseError{Err: err}
	}
	return nil
}

// classifyTransportErr splits failures that produced no response into
// timeouts and network errors. url.Error wrapping is peeled off so callers
// see the root cause through Unwrap.
func classifyTransportErr(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.TimeoutError{Err: err}
	}
	return &domain.NetworkError{Err: err}
}

// errorDetail pulls the server's {"detail": ...} message out of an error
// body, falling back to the HTTP reason phrase.
func errorDetail(raw []byte, status string) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && strings.TrimSpace(body.Detail) != "" {
		return strings.TrimSpace(body.Detail)
	}
	if idx := strings.IndexByte(status, ' '); idx >= 0 {
		return status[idx+1:]
	}
	return status
}
