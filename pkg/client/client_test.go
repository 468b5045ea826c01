package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fruitsalade/breadbox/pkg/models"
	"github.com/fruitsalade/breadbox/pkg/protocol"
	"github.com/fruitsalade/breadbox/pkg/retry"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	c := New(Config{
		BaseURL: ts.URL,
		RetryConfig: retry.Config{
			MaxAttempts: 3,
			InitialWait: time.Millisecond,
			MaxWait:     time.Millisecond,
		},
	})
	return c, ts
}

func writeSnapshot(w http.ResponseWriter, snap models.FileManagerSnapshot) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func TestSetPath_Success(t *testing.T) {
	var gotBody protocol.SetPathRequest
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/state/path" {
			t.Errorf("path = %q, want /api/v1/state/path", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		snap := models.DefaultFileManagerSnapshot()
		snap.CurrentPath = gotBody.Path
		writeSnapshot(w, snap)
	}))
	defer ts.Close()

	snap, err := c.SetPath(context.Background(), "/music")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.Path != "/music" {
		t.Errorf("request path = %q, want /music", gotBody.Path)
	}
	if snap.CurrentPath != "/music" {
		t.Errorf("snapshot path = %q, want /music", snap.CurrentPath)
	}
}

func TestServerError_Retry(t *testing.T) {
	var attempts atomic.Int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeSnapshot(w, models.DefaultFileManagerSnapshot())
	}))
	defer ts.Close()

	_, err := c.State(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts.Load() < 3 {
		t.Errorf("expected at least 3 attempts, got %d", attempts.Load())
	}
}

func TestBadRequest_NotRetried(t *testing.T) {
	var attempts atomic.Int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "path required", Code: 400})
	}))
	defer ts.Close()

	_, err := c.SetPath(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt (no retries), got %d", attempts.Load())
	}
	if !c.IsOnline() {
		t.Error("client should remain online after a 400 response")
	}
}

func TestAuthTokenApplied(t *testing.T) {
	var gotAuth string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeSnapshot(w, models.DefaultFileManagerSnapshot())
	}))
	defer ts.Close()

	c.SetAuthToken("tok-123")
	if _, err := c.State(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
}

func TestLoginStoresToken(t *testing.T) {
	var gotAuth string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/token":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(protocol.TokenResponse{Token: "issued-token", DeviceID: "dev-1"})
		default:
			gotAuth = r.Header.Get("Authorization")
			writeSnapshot(w, models.DefaultFileManagerSnapshot())
		}
	}))
	defer ts.Close()

	resp, err := c.Login(context.Background(), "api-key", "laptop")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token != "issued-token" {
		t.Errorf("token = %q, want issued-token", resp.Token)
	}

	if _, err := c.State(context.Background()); err != nil {
		t.Fatalf("state: %v", err)
	}
	if gotAuth != "Bearer issued-token" {
		t.Errorf("Authorization = %q, want Bearer issued-token", gotAuth)
	}
}

func TestOfflineAfterNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := New(Config{
		BaseURL: ts.URL,
		RetryConfig: retry.Config{
			MaxAttempts: 1,
			InitialWait: time.Millisecond,
			MaxWait:     time.Millisecond,
		},
	})
	ts.Close()

	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping to a closed server to fail")
	}
	if c.IsOnline() {
		t.Error("client should be offline after a network error")
	}
}

func TestSSESubscribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ev := protocol.ChangeEvent{Type: "mutation", Store: "file-manager", Op: "set_current_path", Timestamp: 42}
		data, _ := json.Marshal(ev)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
		flusher.Flush()

		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sse := NewSSEClient(ts.URL, nil)
	events, _ := sse.Subscribe(ctx)

	select {
	case ev := <-events:
		if ev.Op != "set_current_path" {
			t.Errorf("op = %q, want set_current_path", ev.Op)
		}
		if ev.Store != "file-manager" {
			t.Errorf("store = %q, want file-manager", ev.Store)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
