package providers

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is a StreamingClient for testing. It replays a scripted
// sequence of chunks with optional latency and failure injection.
type MockClient struct {
	// Configurable behavior
	Chunks       []string
	Latency      time.Duration
	ShouldFail   bool // fail when opening the stream
	FailAtChunk  int  // fail mid-stream before chunk N (1-based, 0 = never)
	NoCredential bool

	// State
	streamCount atomic.Int64
}

// NewMockClient creates a mock client that streams one well-formed record.
func NewMockClient() *MockClient {
	return &MockClient{
		Chunks: []string{`[{"sender":"alice@x.com",`, `"subject":"Hi"}]`},
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// HasCredential reports the configured credential state.
func (c *MockClient) HasCredential() bool {
	return !c.NoCredential
}

// Streams returns how many streams were opened.
func (c *MockClient) Streams() int {
	return int(c.streamCount.Load())
}

// StreamChat replays the scripted chunk sequence.
func (c *MockClient) StreamChat(ctx context.Context, req *ChatRequest) (*ChatStream, error) {
	c.streamCount.Add(1)

	if c.ShouldFail {
		return nil, fmt.Errorf("mock client configured to fail")
	}

	return &ChatStream{src: &mockSource{
		ctx:         ctx,
		chunks:      c.Chunks,
		latency:     c.Latency,
		failAtChunk: c.FailAtChunk,
	}}, nil
}

type mockSource struct {
	ctx         context.Context
	chunks      []string
	latency     time.Duration
	failAtChunk int
	pos         int
}

func (m *mockSource) next() (string, error) {
	if m.failAtChunk > 0 && m.pos == m.failAtChunk-1 {
		return "", fmt.Errorf("mock stream failed at chunk %d", m.failAtChunk)
	}
	if m.pos >= len(m.chunks) {
		return "", io.EOF
	}

	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-m.ctx.Done():
			return "", m.ctx.Err()
		}
	} else if err := m.ctx.Err(); err != nil {
		return "", err
	}

	chunk := m.chunks[m.pos]
	m.pos++
	return chunk, nil
}

func (m *mockSource) close() error {
	return nil
}
