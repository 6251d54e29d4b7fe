package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/halkwu/opal-card/internal/domain"
	"github.com/halkwu/opal-card/internal/export"
	"github.com/halkwu/opal-card/internal/portal"
)

type scrapeRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Headful   bool   `json:"headful,omitempty"`
}

func (r scrapeRequest) toOptions() export.Options {
	return export.Options{
		Username:     r.Username,
		Password:     r.Password,
		StartDateStr: r.StartDate,
		EndDateStr:   r.EndDate,
		Headful:      r.Headful,
	}
}

// handleTransactions runs a full extraction and returns the filtered array as
// one JSON body, with the artifact filename suggested via Content-Disposition.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts, ok := decodeScrapeRequest(w, r)
	if !ok {
		return
	}

	entries, err := s.run(ctx, opts, func(event domain.ProgressEvent) {
		zerolog.Ctx(ctx).Debug().
			Int("progress.percent", event.Percent).
			Str("progress.message", event.Message).
			Msg("extraction progress")
	})
	if err != nil {
		writeJSONError(w, err.Error(), statusForError(err))
		return
	}

	s.store.Set(runIDFromContext(ctx), entries)

	window, _ := opts.Window(time.Now())
	filename := export.SuggestedFilename(entries, window)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := json.NewEncoder(w).Encode(entries); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("encoding response")
	}
}

// handleTransactionsStream emits newline-delimited progress frames during
// extraction, then exactly one terminal frame (done or error), after which
// the transport is closed by the producer. A dropped client cancels the run.
func (s *Server) handleTransactionsStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts, ok := decodeScrapeRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	encoder := json.NewEncoder(w)

	writeFrame := func(frame any) {
		if err := encoder.Encode(frame); err != nil {
			return
		}

		if canFlush {
			flusher.Flush()
		}
	}

	entries, err := s.run(ctx, opts, func(event domain.ProgressEvent) {
		writeFrame(struct {
			Type    string `json:"type"`
			Percent int    `json:"percent"`
			Message string `json:"message,omitempty"`
		}{Type: "progress", Percent: event.Percent, Message: event.Message})
	})

	if err != nil {
		message := err.Error()
		if ctx.Err() != nil {
			// The caller went away mid-run; the run was aborted, not failed.
			zerolog.Ctx(ctx).Warn().Msg("connection lost, run aborted")
			message = "connection lost"
		}

		writeFrame(struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{Type: "error", Message: message})

		return
	}

	s.store.Set(runIDFromContext(ctx), entries)

	writeFrame(struct {
		Type         string               `json:"type"`
		Transactions []domain.LedgerEntry `json:"transactions"`
	}{Type: "done", Transactions: entries})
}

// handleLastResult serves the most recent successful extraction, if any.
func (s *Server) handleLastResult(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.store.Get()
	if !ok {
		writeJSONError(w, "no extraction has completed yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("encoding last result")
	}
}

func decodeScrapeRequest(w http.ResponseWriter, r *http.Request) (export.Options, bool) {
	var req scrapeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return export.Options{}, false
	}

	opts := req.toOptions()

	if err := opts.Validate(r.Context()); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return export.Options{}, false
	}

	if _, err := opts.Window(time.Now()); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return export.Options{}, false
	}

	return opts, true
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, export.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, portal.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, portal.ErrLoginTimeout):
		return http.StatusGatewayTimeout
	default:
		var loginErr *portal.LoginError
		if errors.As(err, &loginErr) {
			return http.StatusBadGateway
		}

		return http.StatusInternalServerError
	}
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
