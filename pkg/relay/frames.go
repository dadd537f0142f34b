package relay

import (
	"bytes"
	"encoding/json"

	"mercator-hq/ganymede/pkg/extraction"
)

// DoneSentinel is the literal payload that terminates every delivery
// stream, sent after the terminal event on both transports.
const DoneSentinel = "[DONE]"

// MarshalFrame serializes an event to its wire form, one JSON object
// with a "type" discriminator.
func MarshalFrame(event extraction.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, &FrameError{
			Message: "failed to marshal event",
			Cause:   err,
		}
	}
	return data, nil
}

// UnmarshalFrame parses one wire frame back into a typed event. The
// caller is expected to check IsDone first; the sentinel is not a frame.
func UnmarshalFrame(data []byte) (extraction.Event, error) {
	trimmed := bytes.TrimSpace(data)

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, &FrameError{
			Message: "malformed frame",
			Payload: string(trimmed),
			Cause:   err,
		}
	}

	switch probe.Type {
	case extraction.EventTypeProgress:
		var event extraction.ProgressEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return nil, &FrameError{Message: "malformed progress frame", Payload: string(trimmed), Cause: err}
		}
		return event, nil
	case extraction.EventTypeSection:
		var event extraction.SectionEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return nil, &FrameError{Message: "malformed section frame", Payload: string(trimmed), Cause: err}
		}
		if event.Sources == nil {
			event.Sources = []string{}
		}
		return event, nil
	case extraction.EventTypeComplete:
		var event extraction.CompleteEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return nil, &FrameError{Message: "malformed complete frame", Payload: string(trimmed), Cause: err}
		}
		return event, nil
	case extraction.EventTypeError:
		var event extraction.ErrorEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return nil, &FrameError{Message: "malformed error frame", Payload: string(trimmed), Cause: err}
		}
		return event, nil
	default:
		return nil, &FrameError{
			Message: "unknown event type " + probe.Type,
			Payload: string(trimmed),
		}
	}
}

// IsDone reports whether the payload is the stream-terminating sentinel.
func IsDone(data []byte) bool {
	return string(bytes.TrimSpace(data)) == DoneSentinel
}
