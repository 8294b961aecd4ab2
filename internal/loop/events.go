package loop

// EventKind identifies a progress event emitted during a run.
type EventKind string

const (
	EventIterationStart EventKind = "iteration_start"
	EventIterationDone  EventKind = "iteration_done"
	EventPaused         EventKind = "paused"
	EventResumed        EventKind = "resumed"
	EventStitching      EventKind = "stitching"
	EventDone           EventKind = "done"
)

// Event is delivered to the Progress callback. Iteration and Path are only
// meaningful for the kinds that concern a specific iteration or file.
type Event struct {
	Kind      EventKind `json:"kind"`
	Iteration int       `json:"iteration"`
	Total     int       `json:"total"`
	Prompt    string    `json:"prompt,omitempty"`
	Path      string    `json:"path,omitempty"`
}
