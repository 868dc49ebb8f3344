package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/myrjola/whodunit/internal/errors"
)

var ErrStreamingUnsupported = errors.NewSentinel("response writer does not support flushing")

// Writer writes events to an HTTP response and flushes after each one.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter sets the event stream headers on w. The headers are sent with the first event.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &Writer{w: w, flusher: flusher}, nil
}

// Write sends e as an `event:` line followed by a single `data:` line of JSON.
func (w *Writer) Write(e Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return errors.Wrap(err, "marshal event data", slog.String("event", e.Name))
	}
	if _, err = fmt.Fprintf(w.w, "event: %s\ndata: %s\n\n", e.Name, data); err != nil {
		return errors.Wrap(err, "write event", slog.String("event", e.Name))
	}
	w.flusher.Flush()
	return nil
}

// Message is an event as read from a stream.
type Message struct {
	Name string
	Data []byte
}

// Decode unmarshals the data of m into v.
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.Wrap(err, "decode event data", slog.String("event", m.Name))
	}
	return nil
}

// Reader reads events from an event stream.
type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next event. Multiple data lines are joined with newlines. Comments and fields other than event
// and data are skipped. Next returns io.EOF at the end of the stream.
func (r *Reader) Next() (Message, error) {
	var (
		msg     Message
		data    bytes.Buffer
		hasData bool
	)
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if msg.Name == "" && !hasData {
				continue
			}
			msg.Data = data.Bytes()
			return msg, nil
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			msg.Name = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Message{}, errors.Wrap(err, "scan event stream")
	}
	return Message{}, io.EOF
}
