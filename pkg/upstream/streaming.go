package upstream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

// ChatStream is a pull-based reader over the upstream chat event stream.
// The upstream frames events as single "data:<json>" lines; blank lines and
// other SSE fields carry nothing and are skipped.
type ChatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

// newChatStream wraps a response body in an event reader.
func newChatStream(body io.ReadCloser) *ChatStream {
	scanner := bufio.NewScanner(body)
	// A single data line carries a whole card payload, which can exceed
	// the default 64KB token limit.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &ChatStream{
		body:    body,
		scanner: scanner,
	}
}

// Next returns the next event from the stream. It returns io.EOF when the
// stream ends, the context error if ctx is done, and a *StreamError for
// transport failures mid-read. Malformed data lines are logged and skipped.
func (s *ChatStream) Next(ctx context.Context) (*ChatEvent, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, &StreamError{Message: "failed to read stream", Cause: err}
			}
			return nil, io.EOF
		}

		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(line[len("data:"):])
		if data == "" {
			continue
		}

		var event ChatEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			slog.Warn("skipping malformed stream event", "data", truncateForLog(data, 256))
			continue
		}

		return &event, nil
	}
}

// Close closes the underlying response body. It is safe to call more than
// once.
func (s *ChatStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
