// Package server exposes discovery over HTTP for the dashboard.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ramkansal/tagscout/internal/discovery"
	"github.com/ramkansal/tagscout/pkg/plugin"
	"github.com/rs/zerolog"
)

const maxRequestBody = 64 << 10

// Discoverer is the part of discovery.Engine the handler needs.
type Discoverer interface {
	Discover(ctx context.Context, rawURL string) (*plugin.DiscoveryResult, error)
}

type discoverRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler returns the HTTP routes:
//
//	POST /api/discover  {"url": "..."}
//	GET  /api/discover?url=...
//	GET  /healthz
func NewHandler(d Discoverer, log zerolog.Logger) http.Handler {
	h := &handler{discoverer: d, log: log.With().Str("component", "server").Logger()}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/discover", h.discover)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

type handler struct {
	discoverer Discoverer
	log        zerolog.Logger
}

func (h *handler) discover(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var target string
	switch r.Method {
	case http.MethodGet:
		target = r.URL.Query().Get("url")
	case http.MethodPost:
		var req discoverRequest
		body := http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		target = req.URL
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	result, err := h.discoverer.Discover(r.Context(), target)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, discovery.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.log.Info().Str("url", target).Int("status", status).Err(err).Msg("discover rejected")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	h.log.Info().
		Str("url", target).
		Int("scripts", len(result.Scripts)).
		Int("warnings", len(result.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("discover")
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
