package provider

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is a single server-sent event.
type sseEvent struct {
	Event string
	Data  string
}

// sseDone marks the OpenAI-style "data: [DONE]" terminator.
const sseDone = "[DONE]"

// sseReader parses an SSE stream from an io.Reader.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	return &sseReader{scanner: scanner}
}

// Next returns the next event, or io.EOF when the stream ends. The [DONE]
// terminator is surfaced as an event with Event == sseDone.
func (r *sseReader) Next() (*sseEvent, error) {
	var event sseEvent
	var dataLines []string
	hasData := false

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Blank line = event boundary.
		if line == "" {
			if hasData {
				event.Data = strings.Join(dataLines, "\n")
				return &event, nil
			}
			continue
		}

		// Comment lines are ignored.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "event:") {
			event.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		} else if strings.HasPrefix(line, "data:") {
			data := strings.TrimPrefix(line, "data:")
			data = strings.TrimPrefix(data, " ")
			if data == sseDone {
				return &sseEvent{Event: sseDone, Data: sseDone}, nil
			}
			dataLines = append(dataLines, data)
			hasData = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if hasData {
		event.Data = strings.Join(dataLines, "\n")
		return &event, nil
	}
	return nil, io.EOF
}
