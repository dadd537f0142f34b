package relay

import (
	"bufio"
	"context"
	"io"
	"strings"

	"mercator-hq/ganymede/pkg/extraction"
)

// Handler receives typed events from a subscribed stream. Nil callbacks
// are skipped.
type Handler struct {
	OnProgress func(extraction.ProgressEvent)
	OnSection  func(extraction.SectionEvent)
	OnComplete func(extraction.CompleteEvent)
	OnError    func(extraction.ErrorEvent)
}

func (h Handler) dispatch(event extraction.Event) {
	switch e := event.(type) {
	case extraction.ProgressEvent:
		if h.OnProgress != nil {
			h.OnProgress(e)
		}
	case extraction.SectionEvent:
		if h.OnSection != nil {
			h.OnSection(e)
		}
	case extraction.CompleteEvent:
		if h.OnComplete != nil {
			h.OnComplete(e)
		}
	case extraction.ErrorEvent:
		if h.OnError != nil {
			h.OnError(e)
		}
	}
}

// Subscribe consumes an SSE event stream, dispatching each frame to the
// handler. It returns nil when the stream terminates with the sentinel
// or a clean EOF, and the read or frame error otherwise. Comment lines
// and non-data fields are ignored.
func Subscribe(ctx context.Context, r io.Reader, h Handler) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if IsDone([]byte(data)) {
			return nil
		}

		event, err := UnmarshalFrame([]byte(data))
		if err != nil {
			return err
		}
		h.dispatch(event)
	}
	return scanner.Err()
}
