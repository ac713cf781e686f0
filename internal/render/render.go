// Package render turns a normalized event list into the CLI's text or
// JSON output.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gobinath/gcalendar/internal"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

func ValidFormat(format string) bool {
	return format == FormatText || format == FormatJSON
}

// Render writes events to w in the given format, preserving the order
// of the input list.
func Render(w io.Writer, events []*internal.Event, format string) error {
	switch format {
	case FormatText:
		return renderText(w, events)
	case FormatJSON:
		return renderJSON(w, events)
	default:
		return fmt.Errorf("%w: unknown output format %q", internal.ErrInvalidArgument, format)
	}
}

func renderText(w io.Writer, events []*internal.Event) error {
	for _, e := range events {
		_, err := fmt.Fprintf(w, "%s %s (%s)\n", e.StartsAt.Format("15:04"), e.Summary, e.Calendar)
		if err != nil {
			return err
		}
	}
	return nil
}

// jsonEvent pins the serialized field order for reproducible output.
type jsonEvent struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"allDay"`
	Calendar string    `json:"calendar"`
}

func renderJSON(w io.Writer, events []*internal.Event) error {
	out := make([]jsonEvent, 0, len(events))
	for _, e := range events {
		out = append(out, jsonEvent{
			Title:    e.Summary,
			Start:    e.StartsAt,
			End:      e.EndsAt,
			AllDay:   e.AllDay,
			Calendar: e.Calendar,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
