// Package sse decodes server-sent-event style chat-completion streams
// into discrete JSON frames, tolerating event boundaries split across
// network chunks.
package sse

import (
	"encoding/json"
	"strings"
)

const (
	// frameSeparator delimits events in the stream
	frameSeparator = "\n\n"
	// dataPrefix labels the payload line of an event
	dataPrefix = "data:"
	// doneSentinel marks the end of a stream and is not a JSON payload
	doneSentinel = "[DONE]"
)

// Decoder reassembles frames from an unbounded sequence of text chunks.
// Chunk boundaries carry no alignment guarantee; a partial trailing
// segment is carried over to the next Feed call.
type Decoder struct {
	carry   string
	dropped int
}

// NewDecoder creates a decoder with an empty carry-over buffer
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one chunk and returns every complete frame it finishes,
// in arrival order. Malformed segments are dropped, not fatal: upstream
// providers may emit comment or keepalive lines between events.
func (d *Decoder) Feed(chunk string) []Frame {
	data := d.carry + chunk
	segments := strings.Split(data, frameSeparator)
	d.carry = segments[len(segments)-1]

	var frames []Frame
	for _, seg := range segments[:len(segments)-1] {
		payload := strings.TrimSpace(seg)
		payload = strings.TrimPrefix(payload, dataPrefix)
		payload = strings.TrimSpace(payload)

		if payload == "" || payload == doneSentinel {
			continue
		}

		var f Frame
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			d.dropped++
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// Dropped returns how many malformed segments have been discarded since
// the decoder was created
func (d *Decoder) Dropped() int {
	return d.dropped
}
