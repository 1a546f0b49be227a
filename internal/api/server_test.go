package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adhikary97/imsgbot/internal/relay"
)

func testStatus() relay.Status {
	return relay.Status{
		Watermark:     1234,
		Processed:     7,
		Replied:       3,
		Conversations: 2,
		Model:         "base",
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(8765, testStatus)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestRelayStatusEndpoint(t *testing.T) {
	srv := NewServer(8765, testStatus)

	req := httptest.NewRequest("GET", "/api/v1/relay/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body relay.Status
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Watermark != 1234 {
		t.Errorf("expected watermark 1234, got %d", body.Watermark)
	}
	if body.Model != "base" {
		t.Errorf("expected model base, got %q", body.Model)
	}
	if body.Conversations != 2 {
		t.Errorf("expected 2 conversations, got %d", body.Conversations)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := NewServer(8765, testStatus)

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
