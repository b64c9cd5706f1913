package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/hotspot/internal/model"
)

const rowsJSON = `[
	{"id":"c-1","name":"Pasar Baru","description":null,"latitude":-6.9141,"longitude":107.603,
	 "category":"mall","peak_hours":["11:00-14:00"],"is_safe_zone":null,"is_preset":false,
	 "verified":true,"upvotes":12},
	{"id":"c-2","name":"Unnamed corner","latitude":-6.92,"longitude":107.61,
	 "category":null,"peak_hours":null,"is_safe_zone":false,"is_preset":null,
	 "verified":null,"upvotes":null},
	{"id":"c-3","name":"Bad coords","latitude":-96,"longitude":107.6,"category":"mall"},
	{"id":"c-4","name":"Bad category","latitude":-6.9,"longitude":107.6,"category":"karaoke"},
	{"id":"campus-itb","name":"ITB mirror","latitude":-6.8915,"longitude":107.6107,
	 "category":"campus","is_preset":true}
]`

func TestFetchMapsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/hotspots" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("order"); got != "upvotes.desc" {
			t.Errorf("order = %q", got)
		}
		if got := r.Header.Get("apikey"); got != "anon" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer anon" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(rowsJSON))
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL + "/", APIKey: "anon"})
	points, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 valid rows, got %d", len(points))
	}

	first := points[0]
	if first.Category != model.CategoryMall || !first.IsSafeZone || !first.Verified || first.Upvotes != 12 {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.Provenance != model.ProvenanceRemote || first.IsPreset() {
		t.Errorf("first row should be a community record: %+v", first)
	}

	second := points[1]
	if second.Category != model.CategoryGeneral {
		t.Errorf("null category should default to general, got %q", second.Category)
	}
	if second.IsSafeZone || second.Verified || second.Upvotes != 0 {
		t.Errorf("unexpected null handling: %+v", second)
	}

	if !points[2].IsPreset() {
		t.Error("row flagged is_preset should report IsPreset")
	}
}

func TestFetchNotConfigured(t *testing.T) {
	c := NewClient(Options{})
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrNotConfigured) || !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrNotConfigured wrapping ErrTransport, got %v", err)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":"c-1","name":"A","latitude":-6.9,"longitude":107.6,"category":"office"}]`))
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL, RetryDelay: time.Millisecond})
	points, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(points) != 1 || calls.Load() != 2 {
		t.Errorf("expected one retry and one record, calls=%d points=%d", calls.Load(), len(points))
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL, RetryDelay: time.Millisecond})
	points, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
	if points != nil {
		t.Errorf("expected no records on failure, got %d", len(points))
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestFetchTruncatedBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"c-1","name":"A","latitude":-6.9`))
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL, RetryDelay: time.Millisecond})
	points, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
	if len(points) != 0 {
		t.Errorf("partial result leaked: %d records", len(points))
	}
}
