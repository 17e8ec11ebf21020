package vision

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const analyzeBody = `{
	"description": {"captions": [{"text": "a flowchart with boxes and arrows"}]},
	"color": {"dominantColors": ["White", "Blue"], "accentColor": "1F6FB2", "isBWImg": false},
	"objects": [{"object": "rectangle"}, {"object": "arrow"}],
	"tags": [{"name": "diagram"}, {"name": "text"}, {"name": "screenshot"}],
	"categories": [{"name": "abstract_"}]
}`

const readDoneBody = `{
	"status": "succeeded",
	"analyzeResult": {"readResults": [{"lines": [{"text": "Buffer"}, {"text": "Clip"}]}]}
}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "test-key")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	c.pollInterval = 0
	return c, srv
}

func TestDescribeAssemblesSections(t *testing.T) {
	var polls int
	mux := http.NewServeMux()
	c, srv := newTestClient(t, mux)

	mux.HandleFunc("/vision/v3.2/analyze", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "test-key" {
			t.Errorf("subscription key = %q", got)
		}
		w.Write([]byte(analyzeBody))
	})
	mux.HandleFunc("/vision/v3.2/read/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Operation-Location", srv.URL+"/vision/v3.2/read/analyzeResults/op-1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/vision/v3.2/read/analyzeResults/op-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 3 {
			w.Write([]byte(`{"status": "running"}`))
			return
		}
		w.Write([]byte(readDoneBody))
	})

	image := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	got, err := c.Describe(context.Background(), image, "image/png")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}

	for _, want := range []string{
		"Main Caption: a flowchart with boxes and arrows",
		"Colors: Dominant colors: White, Blue | Accent color: 1F6FB2",
		"Key objects/shapes: rectangle, arrow",
		"Tags: diagram, text, screenshot",
		"Categories: abstract_",
		"Text in image: Buffer | Clip",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("description missing %q:\n%s", want, got)
		}
	}
	if polls != 3 {
		t.Errorf("polls = %d, want 3", polls)
	}
}

func TestDescribeOCRFailureDegrades(t *testing.T) {
	mux := http.NewServeMux()
	c, _ := newTestClient(t, mux)

	mux.HandleFunc("/vision/v3.2/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(analyzeBody))
	})
	mux.HandleFunc("/vision/v3.2/read/analyze", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "read unavailable", http.StatusInternalServerError)
	})

	image := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	got, err := c.Describe(context.Background(), image, "image/png")
	if err != nil {
		t.Fatalf("Describe() error = %v, want OCR-less success", err)
	}
	if strings.Contains(got, "Text in image") {
		t.Errorf("description should not have a text section: %s", got)
	}
	if !strings.Contains(got, "Main Caption") {
		t.Errorf("description missing caption: %s", got)
	}
}

func TestDescribeAnalyzeFailureIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	c, _ := newTestClient(t, mux)
	mux.HandleFunc("/vision/v3.2/analyze", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	image := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	if _, err := c.Describe(context.Background(), image, "image/png"); err == nil {
		t.Error("expected error when analyze fails")
	}
}

func TestDescribeRejectsBadBase64(t *testing.T) {
	c, _ := newTestClient(t, http.NewServeMux())
	if _, err := c.Describe(context.Background(), "not base64!!!", "image/png"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "key"); err == nil {
		t.Error("expected error for empty endpoint")
	}
	if _, err := NewClient("https://example.com", ""); err == nil {
		t.Error("expected error for empty key")
	}
}
