package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pickemlab/confidence-pool/internal/usecase"
)

func TestDecodeResultRequests_SingleObject(t *testing.T) {
	h := &Handler{}
	body := []byte(`{"game_id":"g1","home_score":21,"away_score":17,"status":"final"}`)

	requests, err := h.decodeResultRequests(body)
	if err != nil {
		t.Fatalf("decode single: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	if requests[0].GameID != "g1" || requests[0].HomeScore != 21 {
		t.Fatalf("unexpected request: %+v", requests[0])
	}
}

func TestDecodeResultRequests_Array(t *testing.T) {
	h := &Handler{}
	body := []byte(`[{"game_id":"g1","status":"final"},{"game_id":"g2","status":"in_progress"}]`)

	requests, err := h.decodeResultRequests(body)
	if err != nil {
		t.Fatalf("decode array: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[1].GameID != "g2" {
		t.Fatalf("unexpected second request: %+v", requests[1])
	}
}

func TestDecodeResultRequests_Invalid(t *testing.T) {
	h := &Handler{}

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "empty array", body: "[]"},
		{name: "bad json", body: "{nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.decodeResultRequests([]byte(tt.body))
			if !errors.Is(err, usecase.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestWeekPathValue(t *testing.T) {
	mux := http.NewServeMux()
	var gotWeek int
	var gotErr error
	mux.HandleFunc("GET /weeks/{week}", func(w http.ResponseWriter, r *http.Request) {
		gotWeek, gotErr = weekPathValue(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/weeks/7", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if gotErr != nil || gotWeek != 7 {
		t.Fatalf("week=%d err=%v, want 7/nil", gotWeek, gotErr)
	}

	req = httptest.NewRequest(http.MethodGet, "/weeks/zero", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if !errors.Is(gotErr, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-numeric week, got %v", gotErr)
	}

	req = httptest.NewRequest(http.MethodGet, "/weeks/-2", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if !errors.Is(gotErr, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative week, got %v", gotErr)
	}
}
