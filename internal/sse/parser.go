package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Parser reassembles SSE events out of an arbitrarily fragmented byte
// stream. It holds only the bytes not yet resolved into a complete event;
// it performs no I/O and is safe to copy by value at a blank-line boundary.
type Parser struct {
	buf []byte
}

// New returns an empty Parser.
func New() *Parser {
	return &Parser{}
}

// Feed appends chunk to the buffer and extracts every complete event
// (bytes up to and including a blank-line terminator), in order. Bytes
// after the last terminator remain buffered for the next call. A decode
// failure on one event does not stop extraction of the events around it;
// all decode failures in the call are joined into the returned error.
func (p *Parser) Feed(chunk []byte) ([]Event, error) {
	if len(chunk) > 0 {
		p.buf = append(p.buf, chunk...)
	}

	var events []Event
	var errs []error

	for {
		idx := bytes.Index(p.buf, []byte("\n\n"))
		if idx < 0 {
			break
		}
		raw := p.buf[:idx]
		p.buf = p.buf[idx+2:]

		ev, ok, err := parseRawEvent(raw)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			events = append(events, ev)
		}
	}

	return events, errors.Join(errs...)
}

// Finalize emits a trailing event that ends at EOF without a blank-line
// terminator, tolerating a stream that ends abruptly. It clears the buffer.
func (p *Parser) Finalize() ([]Event, error) {
	raw := p.buf
	p.buf = nil

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	ev, ok, err := parseRawEvent(raw)
	if !ok {
		return nil, err
	}
	return []Event{ev}, err
}

// parseRawEvent parses one event's worth of `field: value` lines. ok is
// false when the event carries no `data` field at all, per the invariant
// that such events are discarded silently.
func parseRawEvent(raw []byte) (Event, bool, error) {
	var dataLines []string
	var eventType, id string
	sawData := false

	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue // comment line
		}

		field, value := splitField(line)
		switch field {
		case "data":
			dataLines = append(dataLines, value)
			sawData = true
		case "event":
			eventType = value
		case "id":
			id = value
		}
	}

	if !sawData {
		return Event{}, false, nil
	}

	body := strings.Join(dataLines, "\n")
	if body == doneSentinel {
		return Event{EventType: eventType, ID: id, Done: true}, true, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return Event{}, false, err
	}

	return Event{EventType: eventType, ID: id, Data: decoded}, true, nil
}

// splitField splits a `field: value` line, trimming exactly one leading
// space from the value per the SSE wire convention.
func splitField(line string) (field, value string) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	value = strings.TrimPrefix(value, " ")
	return field, value
}
