package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ShipCreekGroup/email-parser/internal/extract"
	"github.com/ShipCreekGroup/email-parser/internal/svcctx"
)

// ParseRequest is the body of POST /api/parse.
type ParseRequest struct {
	// Text is the raw pasted text to extract emails from.
	Text string `json:"text"`
	// Provider optionally overrides the configured default.
	Provider string `json:"provider,omitempty"`
}

// ParseEndpoint handles POST /api/parse. The response is a Server-Sent
// Events stream: one "snapshot" event per collection snapshot in emission
// order, then a terminal "done" event carrying the session ID for exports,
// or an "error" event naming the failure kind. Closing the request
// connection cancels the extraction, so a newer submission from the same
// UI silently discards the older stream.
type ParseEndpoint struct{}

func (e *ParseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/parse", e.handler
}

func (e *ParseEndpoint) Command(_ func() string) *cobra.Command {
	// The CLI parses in-process via `email-parser parse` instead of
	// consuming the SSE stream.
	return nil
}

func (e *ParseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := svcctx.LoggerFrom(ctx)

	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	registry := svcctx.RegistryFrom(ctx)
	cfgMgr := svcctx.ConfigFrom(ctx)
	store := svcctx.SessionsFrom(ctx)
	if registry == nil || cfgMgr == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "server not initialized")
		return
	}

	cfg := cfgMgr.Get()
	providerName := req.Provider
	if providerName == "" {
		providerName = cfg.Defaults.LLMProvider
	}

	client, err := registry.Get(providerName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pipeline := extract.New(extract.Config{
		Client:  client,
		Timeout: cfg.Timeout(providerName),
		Logger:  logger,
	})

	stream, err := pipeline.Run(ctx, req.Text)
	if err != nil {
		writeExtractError(w, err)
		return
	}
	defer stream.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for stream.Next() {
		payload, err := stream.Collection().JSON()
		if err != nil {
			logger.Error("failed to encode snapshot", "error", err)
			continue
		}
		writeEvent(w, flusher, "snapshot", payload)
	}

	if err := stream.Err(); err != nil {
		logger.Warn("extraction failed", "error", err)
		writeEvent(w, flusher, "error", errorPayload(err))
		return
	}

	sessionID := store.Put(stream.Collection())
	done, _ := json.Marshal(map[string]any{
		"session_id": sessionID,
		"count":      len(stream.Collection()),
	})
	writeEvent(w, flusher, "done", done)
}

// writeEvent writes one SSE event. Snapshot payloads are pretty-printed
// JSON, so data lines are emitted per line as the SSE framing requires.
func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data []byte) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range splitLines(data) {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
	flusher.Flush()
}

func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

func errorPayload(err error) []byte {
	kind := "upstream"
	var exErr *extract.Error
	if errors.As(err, &exErr) {
		kind = string(exErr.Kind)
	}
	payload, _ := json.Marshal(map[string]string{
		"kind":    kind,
		"message": err.Error(),
	})
	return payload
}

// writeExtractError maps an extraction failure that happened before the
// SSE stream opened to a plain JSON error with its failure kind.
func writeExtractError(w http.ResponseWriter, err error) {
	kind := ""
	var exErr *extract.Error
	if errors.As(err, &exErr) {
		kind = string(exErr.Kind)
	}
	writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), Kind: kind})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, extract.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, extract.ErrSchemaViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extract.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
