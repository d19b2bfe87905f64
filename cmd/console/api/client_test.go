package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/simsaas/simsaas/cmd/console/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return New(&config.Config{BaseURL: mustParse(t, ts.URL), HTTPTimeout: time.Second})
}

func TestPingHealthy(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","uptime":1000,"checks":{"database":"ok","queue":"ok"}}`))
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestPingDegraded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","uptime":1000}`))
	})

	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error for non-healthy status")
	}
}

func TestErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"bad_request","message":"Resolution must be between 1 and 10","fields":{"resolution":"Resolution must be between 1 and 10"}}`))
	})

	_, err := client.Meshes().Create(context.Background(), 1, 11)
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *Error
	if !asError(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Fields["resolution"] == "" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if IsNotFound(err) {
		t.Fatal("bad request reported as not found")
	}
}

func TestNotFoundWithoutEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Geometries().Get(context.Background(), 5)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}
