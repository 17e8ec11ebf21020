package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHuggingFaceGeneratedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hf-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`[{"generated_text": "SELECT 1"}]`))
	}))
	defer srv.Close()

	h, err := NewHuggingFace("hf-key", "zephyr")
	if err != nil {
		t.Fatalf("NewHuggingFace() error = %v", err)
	}
	h.baseURL = srv.URL

	got, err := h.Query(context.Background(), Request{Prompt: "count cities"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "SELECT 1" {
		t.Errorf("Query() = %q, want %q", got, "SELECT 1")
	}
}

func TestHuggingFaceUnexpectedShapeStringified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"something": "else"}`))
	}))
	defer srv.Close()

	h, _ := NewHuggingFace("hf-key", "zephyr")
	h.baseURL = srv.URL

	got, err := h.Query(context.Background(), Request{Prompt: "count cities"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != `{"something": "else"}` {
		t.Errorf("Query() = %q, want the raw body", got)
	}
}

func TestHuggingFaceRequiresKey(t *testing.T) {
	if _, err := NewHuggingFace("", "zephyr"); !errors.Is(err, ErrMisconfigured) {
		t.Errorf("error = %v, want ErrMisconfigured", err)
	}
}

func TestHuggingFaceRejectsImages(t *testing.T) {
	h, _ := NewHuggingFace("hf-key", "zephyr")
	_, err := h.Query(context.Background(), Request{
		Prompt: "describe",
		Images: []Image{{MediaType: "image/png", Data: "aGk="}},
	})
	if !errors.Is(err, ErrRejected) {
		t.Errorf("error = %v, want ErrRejected", err)
	}
}
