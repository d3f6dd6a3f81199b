package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"wedding-appgen/internal/generator"
	"wedding-appgen/internal/models"
)

type fakeGenerator struct {
	dir   string
	err   error
	calls int
	last  *models.GenerationRequest
	// lost makes the returned archive path point at nothing.
	lost bool
}

func (f *fakeGenerator) Generate(_ context.Context, r *models.GenerationRequest) (*generator.Result, error) {
	f.calls++
	f.last = r
	if f.err != nil {
		return nil, f.err
	}
	path := filepath.Join(f.dir, "req-1.zip")
	if f.lost {
		return &generator.Result{RequestID: "req-1", ArchivePath: path}, nil
	}
	if err := os.WriteFile(path, []byte("PK-fake-archive"), 0o644); err != nil {
		return nil, err
	}
	return &generator.Result{RequestID: "req-1", ArchivePath: path}, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeNotifier) NotifyReady(_ context.Context, phone, couple, app, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, strings.Join([]string{phone, couple, app, requestID}, "|"))
	return f.err
}

type fakeLedger struct {
	mu      sync.Mutex
	updates []string
	ctxErr  error
}

func (f *fakeLedger) UpdateStatus(ctx context.Context, id string, status models.Status, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id+"|"+string(status)+"|"+errText)
	f.ctxErr = ctx.Err()
	return nil
}

const validBody = `{
  "brideName": "Amy",
  "groomName": "Sam",
  "weddingDate": "2025-06-01",
  "weddingLocation": "Rose Garden",
  "appName": "Amy & Sam",
  "weddingEvents": [{"name": "Ceremony"}]
}`

func newTestHandler(gen Generator, n Notifier) *GenerateHandler {
	return newLedgerHandler(gen, n, nil)
}

func newLedgerHandler(gen Generator, n Notifier, ledger Ledger) *GenerateHandler {
	return NewGenerateHandler(gen, n, ledger, &Config{
		AllowedOrigin: "http://localhost:3000",
		MaxBodyBytes:  1 << 16,
	}, zerolog.Nop())
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/generate-app", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v: %s", err, w.Body.String())
	}
	return resp
}

func TestGenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{dir: t.TempDir()}
	h := newTestHandler(gen, nil)

	w := post(h.Routes(), validBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="wedding_app.zip"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if w.Body.String() != "PK-fake-archive" {
		t.Errorf("body = %q", w.Body.String())
	}
	if _, err := os.Stat(filepath.Join(gen.dir, "req-1.zip")); !errors.Is(err, os.ErrNotExist) {
		t.Error("archive not deleted after delivery")
	}
	if gen.last == nil || len(gen.last.WeddingEvents) != 1 || gen.last.WeddingEvents[0].Name != "Ceremony" {
		t.Errorf("request not decoded: %+v", gen.last)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid_json", `{"brideName":`, http.StatusBadRequest, "invalid_json"},
		{"missing_required", `{"brideName":"Amy"}`, http.StatusBadRequest, "validation"},
		{"missing_app_name", `{"brideName":"Amy","groomName":"Sam","weddingDate":"2025-06-01","weddingLocation":"x"}`, http.StatusBadRequest, "validation"},
		{"too_large", `{"brideName":"` + strings.Repeat("a", 1<<17) + `"}`, http.StatusRequestEntityTooLarge, "request_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{dir: t.TempDir()}
			w := post(newTestHandler(gen, nil).Routes(), tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Code != tt.code || resp.Error == "" {
				t.Errorf("error body = %+v, want code %q", resp, tt.code)
			}
			if gen.calls != 0 {
				t.Error("generator called for a rejected request")
			}
		})
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"integrity", &generator.IntegrityError{File: "lib/main.dart", Message: "broken"}, http.StatusInternalServerError, "template_integrity"},
		{"io", fmt.Errorf("%w: disk full", generator.ErrIO), http.StatusServiceUnavailable, "io"},
		{"validation", &generator.ValidationErrors{Errors: []generator.ValidationError{{Field: "weddingDate", Message: "bad"}}}, http.StatusBadRequest, "validation"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{dir: t.TempDir(), err: tt.err}
			w := post(newTestHandler(gen, nil).Routes(), validBody)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if resp := decodeError(t, w); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestGenerateRecordsDeliveryFailure(t *testing.T) {
	t.Run("archive_missing", func(t *testing.T) {
		ledger := &fakeLedger{}
		n := &fakeNotifier{}
		h := newLedgerHandler(&fakeGenerator{dir: t.TempDir(), lost: true}, n, ledger)
		body := strings.Replace(validBody, `"appName"`, `"notifyPhone": "0501234567", "appName"`, 1)

		w := post(h.Routes(), body)
		h.Wait()
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", w.Code)
		}
		if resp := decodeError(t, w); resp.Code != "io" {
			t.Errorf("code = %q, want io", resp.Code)
		}
		if len(ledger.updates) != 1 || !strings.HasPrefix(ledger.updates[0], "req-1|failed|delivery: ") {
			t.Errorf("ledger updates = %v", ledger.updates)
		}
		if ledger.ctxErr != nil {
			t.Errorf("ledger updated with a dead context: %v", ledger.ctxErr)
		}
		if len(n.calls) != 0 {
			t.Errorf("notified about an undelivered app: %v", n.calls)
		}
	})

	t.Run("delivered", func(t *testing.T) {
		ledger := &fakeLedger{}
		h := newLedgerHandler(&fakeGenerator{dir: t.TempDir()}, nil, ledger)
		if w := post(h.Routes(), validBody); w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if len(ledger.updates) != 0 {
			t.Errorf("ledger updated for a delivered app: %v", ledger.updates)
		}
	})
}

func TestGenerateNotifies(t *testing.T) {
	t.Run("sends_when_phone_set", func(t *testing.T) {
		n := &fakeNotifier{}
		h := newTestHandler(&fakeGenerator{dir: t.TempDir()}, n)
		body := strings.Replace(validBody, `"appName"`, `"notifyPhone": "0501234567", "appName"`, 1)

		if w := post(h.Routes(), body); w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		h.Wait()
		if len(n.calls) != 1 || n.calls[0] != "0501234567|Amy & Sam|Amy & Sam|req-1" {
			t.Errorf("notifier calls = %v", n.calls)
		}
	})

	t.Run("skips_without_phone", func(t *testing.T) {
		n := &fakeNotifier{}
		h := newTestHandler(&fakeGenerator{dir: t.TempDir()}, n)
		post(h.Routes(), validBody)
		h.Wait()
		if len(n.calls) != 0 {
			t.Errorf("notifier called without a phone: %v", n.calls)
		}
	})

	t.Run("failure_does_not_fail_delivery", func(t *testing.T) {
		n := &fakeNotifier{err: errors.New("not on WhatsApp")}
		h := newTestHandler(&fakeGenerator{dir: t.TempDir()}, n)
		body := strings.Replace(validBody, `"appName"`, `"notifyPhone": "123", "appName"`, 1)
		if w := post(h.Routes(), body); w.Code != http.StatusOK {
			t.Errorf("status = %d", w.Code)
		}
		h.Wait()
	})
}

func TestHealthAndCORS(t *testing.T) {
	h := newTestHandler(&fakeGenerator{dir: t.TempDir()}, nil).Routes()

	t.Run("healthz", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
			t.Errorf("healthz = %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/generate-app", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		h.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Allow-Origin = %q", got)
		}
	})

	t.Run("wrong_method", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/generate-app", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", w.Code)
		}
	})
}
