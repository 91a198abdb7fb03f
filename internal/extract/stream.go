package extract

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/ShipCreekGroup/email-parser/internal/emails"
	"github.com/ShipCreekGroup/email-parser/internal/partial"
	"github.com/ShipCreekGroup/email-parser/internal/providers"
	"github.com/ShipCreekGroup/email-parser/internal/schema"
)

// Stream is a lazy, single-pass, non-restartable sequence of collection
// snapshots. Each snapshot is a superset of the previous one: later
// snapshots fill in fields or append records, never remove or revert them.
// The last snapshot before Next returns false is terminal iff Done reports
// true; otherwise the stream failed and Err carries a classified error.
type Stream struct {
	chat   *providers.ChatStream
	cancel context.CancelFunc

	raw      strings.Builder
	current  emails.Collection
	err      error
	done     bool
	finished bool
}

// Next advances to the next snapshot. The final successful call delivers
// the terminal snapshot; after it, Next returns false with Done true.
func (s *Stream) Next() bool {
	if s.finished {
		return false
	}

	// Empty-input fast path: one terminal empty snapshot, no model call.
	if s.chat == nil {
		s.finished = true
		s.done = true
		s.current = emails.Collection{}
		return true
	}

	for s.chat.Next() {
		s.raw.WriteString(s.chat.Current())
		if snap, ok := s.trySnapshot(); ok {
			s.current = snap
			return true
		}
	}

	s.finished = true
	defer s.closeChat()

	if err := s.chat.Err(); err != nil {
		s.err = classify(err)
		return false
	}

	final, err := s.finalize()
	if err != nil {
		s.err = err
		return false
	}
	s.current = final
	s.done = true
	return true
}

// Collection returns the snapshot delivered by the last successful Next.
// Callers must treat it as read-only.
func (s *Stream) Collection() emails.Collection {
	return s.current
}

// Err returns the classified error that terminated the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Done reports whether the terminal snapshot has been delivered.
func (s *Stream) Done() bool {
	return s.done
}

// Close abandons the stream and releases the underlying connection. Safe
// to call at any point and more than once.
func (s *Stream) Close() error {
	s.finished = true
	return s.closeChat()
}

func (s *Stream) closeChat() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.chat == nil {
		return nil
	}
	return s.chat.Close()
}

// trySnapshot attempts to turn the accumulated raw output into a new
// snapshot. Incomplete or not-yet-valid output is skipped, not an error;
// only output that changes the collection produces a snapshot.
func (s *Stream) trySnapshot() (emails.Collection, bool) {
	completed, ok := partial.Complete(s.raw.String())
	if !ok {
		return nil, false
	}
	c, err := schema.Decode(json.RawMessage(completed))
	if err != nil {
		return nil, false
	}
	merged := emails.Merge(s.current, c)
	if slices.Equal(merged, s.current) {
		return nil, false
	}
	return merged, true
}

// finalize parses and validates the complete model output into the
// terminal snapshot.
func (s *Stream) finalize() (emails.Collection, error) {
	raw := strings.TrimSpace(s.raw.String())
	if stripped := stripCodeFences(raw); stripped != "" {
		raw = stripped
	}

	if !json.Valid([]byte(raw)) {
		return nil, upstreamErr("model returned malformed JSON")
	}
	c, err := schema.Decode(json.RawMessage(raw))
	if err != nil {
		return nil, schemaErr("terminal output rejected: %w", err)
	}

	final := emails.Merge(s.current, c)
	if final == nil {
		final = emails.Collection{}
	}
	return final, nil
}

// classify maps a transport error onto the extraction error taxonomy.
func classify(err error) *Error {
	switch {
	case providers.IsAuthError(err):
		return &Error{Kind: KindAuthentication, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return upstreamErr("model call timed out: %w", err)
	default:
		return &Error{Kind: KindUpstream, Err: err}
	}
}

// stripCodeFences removes a surrounding markdown code fence, a common
// model habit even under structured output.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
