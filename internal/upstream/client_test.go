package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoSendsJSONAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["name"] != "test" {
			t.Errorf("unexpected payload: %v", body)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	data, err := client.Do(context.Background(), http.MethodPost, "/things", map[string]string{"name": "test"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", data)
	}
}

func TestDoDecodesErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"User not found"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.Do(context.Background(), http.MethodGet, "/things/1", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "User not found" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	if Message(err, "fallback") != "User not found" {
		t.Fatalf("Message should surface the upstream text")
	}
}

func TestDoNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.Do(context.Background(), http.MethodGet, "/", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "" {
		t.Fatalf("expected empty message for non-JSON body, got %q", apiErr.Message)
	}
	if Message(err, "fallback") != "fallback" {
		t.Fatalf("Message should fall back for empty upstream text")
	}
}

func TestDoCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.Do(ctx, http.MethodGet, "/", nil)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(&APIError{StatusCode: http.StatusTooManyRequests}) {
		t.Fatal("429 should report rate limited")
	}
	if IsRateLimited(&APIError{StatusCode: http.StatusUnauthorized}) {
		t.Fatal("401 should not report rate limited")
	}
	if IsRateLimited(errors.New("plain")) {
		t.Fatal("plain errors should not report rate limited")
	}
}
