package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_GetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"current_index": 4}`)
	}))
	defer srv.Close()

	var out struct {
		CurrentIndex int `json:"current_index"`
	}
	if err := NewClient(srv.URL+"/").Get(context.Background(), "/api/stats", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.CurrentIndex != 4 {
		t.Errorf("expected 4, got %d", out.CurrentIndex)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"page not found: index 9","code":"NOT_FOUND"}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Post(context.Background(), "/api/goto", map[string]int{"index": 9}, nil)
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if se.Status != http.StatusNotFound || se.Code != "NOT_FOUND" {
		t.Errorf("unexpected error %+v", se)
	}
}

func TestClient_GetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	data, mime, err := NewClient(srv.URL).GetBytes(context.Background(), "/api/pages/0/image")
	if err != nil {
		t.Fatalf("GetBytes: %v", err)
	}
	if mime != "image/png" || len(data) != 4 {
		t.Errorf("got %q %d bytes", mime, len(data))
	}
}

func TestClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: page_loaded\ndata: {\"index\":1}\n\n")
		fmt.Fprint(w, "event: page_unloaded\ndata: {\"index\":0}\n\n")
	}))
	defer srv.Close()

	var events []string
	err := NewClient(srv.URL).Stream(context.Background(), "/api/events", func(event string, data []byte) error {
		events = append(events, event+" "+string(data))
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	want := []string{`page_loaded {"index":1}`, `page_unloaded {"index":0}`}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("expected %v, got %v", want, events)
	}
}
