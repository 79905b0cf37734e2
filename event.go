package logvault

import "time"

// TimestampLayout is the text layout for the Timestamp column. Second
// precision and fixed field order keep timestamps lexically sortable, so
// retention deletes can compare them as text.
const TimestampLayout = "2006-01-02T15:04:05"

// Event is one structured log event handed to the sink. Events are treated
// as immutable: the producer owns an event until Emit returns, then the
// queue owns it until flushed.
type Event struct {
	// Timestamp is when the event occurred. The zero value is replaced
	// with time.Now() at Emit.
	Timestamp time.Time

	// Level is a short severity label, e.g. "Information" or "Error".
	Level string

	// Exception holds rendered exception or error text, if any.
	Exception string

	// RenderedMessage is the fully rendered message text.
	RenderedMessage string

	// Properties is the JSON encoding of the event's structured
	// properties. Empty when the event carries none.
	Properties string
}

// timestampText renders the timestamp in the store's column layout,
// converting to UTC when utc is set and keeping local time otherwise.
func (e Event) timestampText(utc bool) string {
	ts := e.Timestamp
	if utc {
		ts = ts.UTC()
	}
	return ts.Format(TimestampLayout)
}
