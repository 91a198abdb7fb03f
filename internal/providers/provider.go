// Package providers contains clients for hosted language models that
// support streaming structured generation: given an instruction and a
// target JSON schema, they return progressively more complete structured
// text. The extraction pipeline stays correct if one client is swapped
// for another offering the same contract.
package providers

import (
	"context"
	"errors"
	"io"
)

// ChatRequest is a streaming structured-generation request.
type ChatRequest struct {
	// Model selection (uses the client default if empty).
	Model string

	// Prompt content.
	System string
	Prompt string

	// Structured output: target schema and its name.
	SchemaName string
	Schema     map[string]any

	// RequestID tracks the request through logs. Generated if empty.
	RequestID string
}

// StreamingClient is the model-provider boundary.
type StreamingClient interface {
	// StreamChat opens a streaming completion. The returned stream is
	// single-pass and must be closed by the caller.
	StreamChat(ctx context.Context, req *ChatRequest) (*ChatStream, error)

	// HasCredential reports whether the client holds an API key. Callers
	// check this before attempting any network call.
	HasCredential() bool

	// Name returns the client identifier (e.g. "openai").
	Name() string
}

// chunkSource yields raw text chunks. It returns io.EOF on clean end of
// stream and any other error on transport failure.
type chunkSource interface {
	next() (string, error)
	close() error
}

// ChatStream is a lazy, single-pass sequence of raw output chunks.
// Iterate with Next/Current and check Err after Next returns false.
type ChatStream struct {
	src chunkSource
	cur string
	err error
}

// Next advances to the next chunk. It returns false at end of stream or on
// error; distinguish the two with Err.
func (s *ChatStream) Next() bool {
	if s.err != nil {
		return false
	}
	chunk, err := s.src.next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return false
	}
	s.cur = chunk
	return true
}

// Current returns the chunk read by the last successful Next.
func (s *ChatStream) Current() string {
	return s.cur
}

// Err returns the transport error that terminated the stream, if any.
func (s *ChatStream) Err() error {
	return s.err
}

// Close releases the underlying connection.
func (s *ChatStream) Close() error {
	return s.src.close()
}
