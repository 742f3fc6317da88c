package atelier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"doodletale/internal/auth"
	"doodletale/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *auth.Context) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	authCtx := auth.NewContext()
	client := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second}, authCtx, zaptest.NewLogger(t))
	return client, authCtx
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{}, nil, nil)
	if c.cfg.BaseURL != "https://api.doodletale.app" {
		t.Fatalf("unexpected base url: %q", c.cfg.BaseURL)
	}
	if c.cfg.Timeout != 120*time.Second {
		t.Fatalf("unexpected timeout: %v", c.cfg.Timeout)
	}
}

func TestClientMapsDetailErrorBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"boom"}`))
	}))

	_, err := client.FetchCatalog(context.Background())
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 404 || apiErr.Message != "boom" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestClientFallsBackToReasonPhrase(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("<html>gateway melted</html>"))
	}))

	_, err := client.FetchCatalog(context.Background())
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 503 || apiErr.Message != "Service Unavailable" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestClientMalformedSuccessBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not json"))
	}))

	_, err := client.FetchCatalog(context.Background())
	var malformed *domain.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestClientReportsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: baseURL, Timeout: time.Second}, auth.NewContext(), zaptest.NewLogger(t))
	_, err := client.FetchCatalog(context.Background())
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestClientReportsTimeout(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.FetchCatalog(context.Background())
	if !domain.IsTimeout(err) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestClientAttachesBearerTokenWhenSet(t *testing.T) {
	t.Parallel()

	var gotAuth, gotRequestID string
	client, authCtx := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"categories":[]}`))
	}))

	if _, err := client.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("anonymous fetch failed: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("anonymous request must not carry Authorization, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("expected an X-Request-ID header")
	}

	authCtx.SetToken("secret-token")
	if _, err := client.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("authenticated fetch failed: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("Authorization: want %q, got %q", "Bearer secret-token", gotAuth)
	}
}

func TestPostMultipartDropsImageURLWhenImagePartAttached(t *testing.T) {
	t.Parallel()

	var sawImageURL bool
	var imageParts int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		_, sawImageURL = r.MultipartForm.Value["image_url"]
		imageParts = len(r.MultipartForm.File["image"])
		w.Write([]byte(`{}`))
	}))

	fields := map[string]string{
		"image_url": "https://cdn.example.com/old.png",
		"language":  "en",
	}
	parts := []binaryPart{{field: "image", filename: "new.png", contentType: "image/png", data: []byte{0x89, 'P', 'N', 'G'}}}
	var out struct{}
	if err := client.postMultipart(context.Background(), "/v1/edits", fields, parts, &out); err != nil {
		t.Fatalf("postMultipart failed: %v", err)
	}

	if sawImageURL {
		t.Fatalf("image_url field must be dropped when an image part is attached")
	}
	if imageParts != 1 {
		t.Fatalf("image parts: want 1, got %d", imageParts)
	}
}

func TestClassifyTransportErr(t *testing.T) {
	t.Parallel()

	if !domain.IsTimeout(classifyTransportErr(context.DeadlineExceeded)) {
		t.Fatalf("deadline exceeded should classify as timeout")
	}

	var netErr *domain.NetworkError
	if !errors.As(classifyTransportErr(errors.New("connection refused")), &netErr) {
		t.Fatalf("plain transport failure should classify as network error")
	}
}

func TestErrorDetail(t *testing.T) {
	t.Parallel()

	if got := errorDetail([]byte(`{"detail":" boom "}`), "404 Not Found"); got != "boom" {
		t.Fatalf("detail extraction: want %q, got %q", "boom", got)
	}
	if got := errorDetail([]byte("<oops>"), "502 Bad Gateway"); got != "Bad Gateway" {
		t.Fatalf("reason phrase fallback: want %q, got %q", "Bad Gateway", got)
	}
	if got := errorDetail([]byte(`{"detail":""}`), "500 Internal Server Error"); got != "Internal Server Error" {
		t.Fatalf("empty detail fallback: want %q, got %q", "Internal Server Error", got)
	}
}
