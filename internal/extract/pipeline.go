// Package extract owns the single integration point with the language
// model: it builds the instruction from raw text plus the email schema,
// invokes the model in streaming mode, and produces a lazy sequence of
// progressively complete collection snapshots.
package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShipCreekGroup/email-parser/internal/providers"
	"github.com/ShipCreekGroup/email-parser/internal/schema"
)

// DefaultTimeout bounds a single extraction request end to end.
const DefaultTimeout = 5 * time.Minute

// Config holds pipeline configuration.
type Config struct {
	// Client is the model provider. Required.
	Client providers.StreamingClient
	// Model overrides the client's default model.
	Model string
	// Timeout bounds the whole streamed call (default: DefaultTimeout).
	// Expiry surfaces as an upstream failure.
	Timeout time.Duration
	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// Pipeline runs extraction requests. It holds no state between
// invocations; each Run is independent and never retried internally.
type Pipeline struct {
	client  providers.StreamingClient
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an extraction pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		client:  cfg.Client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Run starts one extraction over the given raw text and returns the
// snapshot stream. A missing credential fails immediately, before any
// network attempt. Empty input yields a stream with a single terminal
// empty snapshot.
func (p *Pipeline) Run(ctx context.Context, text string) (*Stream, error) {
	if !p.client.HasCredential() {
		return nil, authErr("no API key configured for provider %s", p.client.Name())
	}

	if strings.TrimSpace(text) == "" {
		return &Stream{}, nil
	}

	requestID := uuid.New().String()
	p.logger.Info("starting extraction",
		"request_id", requestID,
		"provider", p.client.Name(),
		"input_bytes", len(text),
	)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	chat, err := p.client.StreamChat(ctx, &providers.ChatRequest{
		Model:      p.model,
		System:     SystemPrompt(),
		Prompt:     UserPrompt(text),
		SchemaName: schema.Name,
		Schema:     schema.EmailList(),
		RequestID:  requestID,
	})
	if err != nil {
		cancel()
		return nil, classify(err)
	}

	return &Stream{chat: chat, cancel: cancel}, nil
}
