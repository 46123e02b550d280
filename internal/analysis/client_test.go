package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yildizm/snapzoo/internal/config"
)

func testServerConfig(url string) *config.ServerConfig {
	cfg := config.DefaultConfig().Server
	cfg.Endpoint = url
	cfg.RetryBackoff = time.Millisecond
	cfg.Timeout = 5 * time.Second
	return &cfg
}

func TestClientAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/analyze/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		if string(data) != "image-bytes" {
			t.Errorf("unexpected payload %q", data)
		}
		if header.Filename != "fox.png" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("unexpected part content type %q", ct)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"animal":           "a fox",
			"confidence":       0.82,
			"friendly_message": "Foxes are clever.",
			"top3_predictions": [][]any{{"a fox", 0.82}, {"a dog", 0.1}},
		})
	}))
	defer server.Close()

	cfg := testServerConfig(server.URL)
	cfg.Token = "secret"
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	result, err := client.Analyze(context.Background(), Upload{Name: "fox.png", ContentType: "image/png", Data: []byte("image-bytes")})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !result.Success {
		t.Error("success should be inferred from animal")
	}
	if result.Label != "fox" || result.RawLabel != "a fox" {
		t.Errorf("unexpected label %q / %q", result.Label, result.RawLabel)
	}
	if result.Confidence != 0.82 || !result.HasConfidence {
		t.Errorf("unexpected confidence %v", result.Confidence)
	}
	if len(result.Predictions) != 2 || result.Predictions[1].Label != "a dog" {
		t.Errorf("unexpected predictions %+v", result.Predictions)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "animal": "cat", "confidence": 0.9}`))
	}))
	defer server.Close()

	client, err := NewClient(testServerConfig(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	result, err := client.Analyze(context.Background(), Upload{Data: []byte("x")})
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if result.Label != "cat" {
		t.Errorf("unexpected label %q", result.Label)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantType   ErrorType
		wantDetail string
		wantCalls  int32
	}{
		{"bad request with detail", http.StatusBadRequest, `{"detail": "not an image"}`, ErrTypeStatus, "not an image", 1},
		{"server error exhausts retries", http.StatusInternalServerError, `oops`, ErrTypeStatus, "oops", 3},
		{"rate limited", http.StatusTooManyRequests, `{"error": "slow down"}`, ErrTypeRateLimit, "slow down", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(testServerConfig(server.URL))
			if err != nil {
				t.Fatal(err)
			}

			_, err = client.Analyze(context.Background(), Upload{Data: []byte("x")})
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransportError, got %T: %v", err, err)
			}
			if te.Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, te.Type)
			}
			if te.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, te.StatusCode)
			}
			if te.Detail != tt.wantDetail {
				t.Errorf("expected detail %q, got %q", tt.wantDetail, te.Detail)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls.Load())
			}
			if Describe(err) != tt.wantDetail {
				t.Errorf("unexpected description %q", Describe(err))
			}
		})
	}
}

func TestClientDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client, err := NewClient(testServerConfig(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Analyze(context.Background(), Upload{Data: []byte("x")})
	if !errors.Is(err, &TransportError{Type: ErrTypeDecode}) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(testServerConfig(url))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Analyze(context.Background(), Upload{Data: []byte("x")})
	if !errors.Is(err, &TransportError{Type: ErrTypeNetwork}) {
		t.Errorf("expected network error, got %v", err)
	}
	if !IsRetryableError(err) {
		t.Error("network errors should be retryable")
	}
}

func TestClientHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(testServerConfig(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Analyze(ctx, Upload{Data: []byte("x")})
	if !errors.Is(err, &TransportError{Type: ErrTypeTimeout}) {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestClientSendsCookiesBack(t *testing.T) {
	var sawCookie atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil && c.Value == "abc" {
			sawCookie.Store(true)
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte(`{"success": false}`))
	}))
	defer server.Close()

	client, err := NewClient(testServerConfig(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := client.Analyze(context.Background(), Upload{Data: []byte("x")}); err != nil {
			t.Fatal(err)
		}
	}
	if !sawCookie.Load() {
		t.Error("session cookie was not sent back")
	}
}
