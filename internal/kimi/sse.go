package kimi

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

// EventStream decodes a text/event-stream body into Events. It is a
// lazy, finite, non-restartable sequence: Next returns io.EOF after a
// "done" event or when the underlying stream closes.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newEventStream(body io.ReadCloser) *EventStream {
	scanner := bufio.NewScanner(body)
	// Content chunks can be large; give the scanner room.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &EventStream{body: body, scanner: scanner}
}

// Next returns the next decoded event. Lines without the "data: "
// prefix and undecodable payloads are skipped. io.EOF marks the end of
// the sequence.
func (s *EventStream) Next() (Event, error) {
	if s.done {
		return Event{}, io.EOF
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			slog.Debug("Skipping undecodable SSE event", "err", err)
			continue
		}

		if event.Event == "done" {
			s.done = true
		}
		return event, nil
	}

	s.done = true
	if err := s.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// Close releases the underlying response body.
func (s *EventStream) Close() error {
	s.done = true
	return s.body.Close()
}
