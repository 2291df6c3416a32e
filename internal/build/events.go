package build

// Sink receives progress from a build. OnOutput may be called many times;
// OnComplete is called at most once, after the packager exited and all of
// its output was delivered.
type Sink interface {
	OnStage(Stage)
	OnNotice(text string)
	OnOutput(chunk string)
	OnComplete(success bool)
}

type EventType string

const (
	EventStage    EventType = "stage"
	EventNotice   EventType = "notice"
	EventLog      EventType = "log"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is the wire form of a Sink call, one per NDJSON line on the daemon's
// build stream. EventError has no Sink method; it carries the error that
// ended a run.
type Event struct {
	Type    EventType `json:"type"`
	Stage   Stage     `json:"stage,omitempty"`
	Text    string    `json:"text,omitempty"`
	Success *bool     `json:"success,omitempty"`
}

// Succeeded reports the outcome carried by a complete event.
func (e Event) Succeeded() bool {
	return e.Success != nil && *e.Success
}

// Deliver replays e onto s. Error events are ignored.
func (e Event) Deliver(s Sink) {
	switch e.Type {
	case EventStage:
		s.OnStage(e.Stage)
	case EventNotice:
		s.OnNotice(e.Text)
	case EventLog:
		s.OnOutput(e.Text)
	case EventComplete:
		s.OnComplete(e.Succeeded())
	}
}

// EventFunc adapts a function to the Sink interface.
type EventFunc func(Event)

func (f EventFunc) OnStage(s Stage)         { f(Event{Type: EventStage, Stage: s}) }
func (f EventFunc) OnNotice(text string)    { f(Event{Type: EventNotice, Text: text}) }
func (f EventFunc) OnOutput(chunk string)   { f(Event{Type: EventLog, Text: chunk}) }
func (f EventFunc) OnComplete(success bool) { f(Event{Type: EventComplete, Success: &success}) }

// countingSink tallies the bytes of output relayed.
type countingSink struct {
	Sink
	bytes int64
}

func (c *countingSink) OnOutput(chunk string) {
	c.bytes += int64(len(chunk))
	c.Sink.OnOutput(chunk)
}
