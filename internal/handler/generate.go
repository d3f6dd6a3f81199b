package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-appgen/internal/generator"
	"wedding-appgen/internal/models"
)

const (
	archiveFilename = "wedding_app.zip"
	notifyTimeout   = 30 * time.Second
)

// Generator builds one app archive per request.
type Generator interface {
	Generate(ctx context.Context, r *models.GenerationRequest) (*generator.Result, error)
}

// Notifier tells the couple their app is ready.
type Notifier interface {
	NotifyReady(ctx context.Context, phoneNumber, coupleName, appName, requestID string) error
}

// Ledger corrects the recorded outcome of a generation.
type Ledger interface {
	UpdateStatus(ctx context.Context, id string, status models.Status, errText string) error
}

type Config struct {
	AllowedOrigin string
	MaxBodyBytes  int64
}

// GenerateHandler serves the questionnaire submission endpoint
type GenerateHandler struct {
	generator Generator
	notifier  Notifier
	ledger    Ledger
	config    *Config
	log       zerolog.Logger

	wg sync.WaitGroup
}

// NewGenerateHandler creates a new generate handler. notifier and ledger may
// be nil.
func NewGenerateHandler(gen Generator, notifier Notifier, ledger Ledger, cfg *Config, log zerolog.Logger) *GenerateHandler {
	return &GenerateHandler{
		generator: gen,
		notifier:  notifier,
		ledger:    ledger,
		config:    cfg,
		log:       log.With().Str("component", "HTTP").Logger(),
	}
}

// Routes returns the HTTP routes wrapped in CORS and request logging.
func (h *GenerateHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate-app", h.handleGenerate)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return h.logging(h.cors(mux))
}

// Wait blocks until pending notifications have been sent.
func (h *GenerateHandler) Wait() {
	h.wg.Wait()
}

func (h *GenerateHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := generator.ValidateSubmission(&req); err != nil {
		h.writeGenerateError(w, err)
		return
	}

	res, err := h.generator.Generate(r.Context(), &req)
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}
	defer func() {
		if err := os.Remove(res.ArchivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.log.Warn().Err(err).Str("path", res.ArchivePath).Msg("Failed to remove delivered archive")
		}
	}()

	if err := h.streamArchive(w, res.ArchivePath); err != nil {
		h.log.Error().Err(err).Str("request_id", res.RequestID).Msg("Failed to deliver archive")
		h.recordDeliveryFailure(r.Context(), res.RequestID, err)
		return
	}
	h.log.Info().Str("request_id", res.RequestID).Msg("Archive delivered")

	if h.notifier != nil && strings.TrimSpace(req.NotifyPhone) != "" {
		h.notify(r.Context(), &req, res.RequestID)
	}
}

func (h *GenerateHandler) streamArchive(w http.ResponseWriter, path string) error {
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "io", "archive is not available")
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "io", "archive is not available")
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archiveFilename))
	w.Header().Set("Content-Length", fmt.Sprint(info.Size()))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to stream archive: %w", err)
	}
	return nil
}

// recordDeliveryFailure marks a generated job as failed when its archive
// never reached the client.
func (h *GenerateHandler) recordDeliveryFailure(ctx context.Context, requestID string, cause error) {
	if h.ledger == nil {
		return
	}
	err := h.ledger.UpdateStatus(context.WithoutCancel(ctx), requestID, models.StatusFailed, "delivery: "+cause.Error())
	if err != nil {
		h.log.Warn().Err(err).Str("request_id", requestID).Msg("Failed to record delivery failure")
	}
}

// notify sends the "app ready" message in the background; a failure is
// only logged.
func (h *GenerateHandler) notify(ctx context.Context, req *models.GenerationRequest, requestID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	phone, couple, app := req.NotifyPhone, req.CoupleName(), req.AppName

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		if err := h.notifier.NotifyReady(ctx, phone, couple, app, requestID); err != nil {
			h.log.Warn().Err(err).Str("request_id", requestID).Msg("Failed to send ready notification")
			return
		}
		h.log.Info().Str("request_id", requestID).Msg("Ready notification sent")
	}()
}

func (h *GenerateHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *GenerateHandler) writeGenerateError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("code", code).Msg("Generation failed")
	} else {
		h.log.Info().Err(err).Str("code", code).Msg("Request rejected")
	}
	writeError(w, status, code, err.Error())
}

// errorStatus maps generator failures to HTTP status codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, generator.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, generator.ErrTemplateIntegrity):
		return http.StatusInternalServerError, "template_integrity"
	case errors.Is(err, generator.ErrIO):
		return http.StatusServiceUnavailable, "io"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
