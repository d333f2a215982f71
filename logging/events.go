package logging

import (
	"context"
	"time"
)

type EventType string

// Event types published by the replay subsystem.
const (
	EventSessionCreated     EventType = "session_created"
	EventInputRecorded      EventType = "input_recorded"
	EventCheckpointRecorded EventType = "checkpoint_recorded"
	EventReplayFinalized    EventType = "replay_finalized"
	EventPlaybackSeek       EventType = "playback_seek"
	EventDesyncDetected     EventType = "desync_detected"
	EventTwinCompared       EventType = "twin_compared"
)

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

const (
	CategoryRecording    = "recording"
	CategoryPlayback     = "playback"
	CategoryVerification = "verification"
	CategorySystem       = "system"
)

// Event is one structured log record. Frame is the simulation frame the
// event belongs to, Session identifies the producing session, Component
// names the checksum component for desync events.
type Event struct {
	Type      EventType      `json:"type"`
	Frame     uint32         `json:"frame"`
	Time      time.Time      `json:"time"`
	Session   string         `json:"session,omitempty"`
	Component string         `json:"component,omitempty"`
	Severity  Severity       `json:"severity"`
	Category  string         `json:"category,omitempty"`
	Payload   any            `json:"payload,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

func NopPublisher() Publisher {
	return nopPublisher{}
}

type fieldPublisher struct {
	next   Publisher
	fields map[string]any
}

func (p *fieldPublisher) Publish(ctx context.Context, event Event) {
	if p.next == nil {
		return
	}
	if len(p.fields) > 0 {
		event = cloneForFields(event)
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(p.fields))
		}
		for k, v := range p.fields {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	p.next.Publish(ctx, event)
}

func cloneForFields(event Event) Event {
	cloned := event
	if event.Extra != nil {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}

// WithFields wraps a publisher so every event carries the provided extra
// fields unless the event already set them.
func WithFields(p Publisher, fields map[string]any) Publisher {
	if p == nil {
		return NopPublisher()
	}
	if len(fields) == 0 {
		return p
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &fieldPublisher{next: p, fields: copied}
}

// WithExtra returns a copy of the event with one extra field set.
func (e Event) WithExtra(key string, value any) Event {
	extra := make(map[string]any, len(e.Extra)+1)
	for k, v := range e.Extra {
		extra[k] = v
	}
	extra[key] = value
	e.Extra = extra
	return e
}
