package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"lukechampine.com/blake3"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/history"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/listing"
)

// Lookuper aggregates a single listing.
type Lookuper interface {
	Lookup(ctx context.Context, req listing.Request) (domain.AggregatedListing, error)
}

// HistoryLister lists recorded lookups.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Record, error)
}

// Handler provides the HTTP endpoints of the listing service.
type Handler struct {
	listings        Lookuper
	history         HistoryLister
	defaultCurrency string
}

// NewHandler creates a new API handler. A nil history disables the lookups endpoint.
func NewHandler(listings Lookuper, hist HistoryLister, defaultCurrency string) *Handler {
	return &Handler{listings: listings, history: hist, defaultCurrency: defaultCurrency}
}

// GetListingDetails handles GET /listing-details.
func (h *Handler) GetListingDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := listing.NewRequest(q.Get("url"), q.Get("check_in"), q.Get("check_out"), q.Get("currency"), h.defaultCurrency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.listings.Lookup(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("listing lookup failed", "url", req.URL, "status", status, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Error("failed to marshal listing", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	etag := etagFor(data)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeBody(w, http.StatusOK, data)
}

// ListLookups handles GET /api/v1/lookups.
func (h *Handler) ListLookups(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, history.ErrDisabled.Error())
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}

	records, err := h.history.List(r.Context(), history.ClampLimit(limit))
	if err != nil {
		slog.Error("failed to list lookups", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	var (
		upstreamErr *listing.UpstreamError
		parseErr    *listing.ParseError
	)
	switch {
	case errors.Is(err, listing.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &upstreamErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func etagFor(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeBody(w, status, data)
}

func writeBody(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
