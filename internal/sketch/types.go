package sketch

import "time"

// ItemStatus enumerates the lifecycle states of a single batch item.
type ItemStatus string

const (
	StatusPending   ItemStatus = "pending"
	StatusRunning   ItemStatus = "running"
	StatusSucceeded ItemStatus = "succeeded"
	StatusFailed    ItemStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s ItemStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Options are shared by every item in a batch.
type Options struct {
	Quality string
	Width   int
	Height  int
}

// Item is one conversion job inside a batch. Index is assigned at intake and
// never changes; the result slot for the item is addressed by it.
type Item struct {
	Index  int
	Name   string
	Data   []byte
	Seed   int64
	Status ItemStatus
}

// Batch is the unit of work accepted by the engine: an ordered collection of
// independent, individually fallible conversion jobs.
type Batch struct {
	ID          string
	Style       Style
	Options     Options
	Items       []Item
	Concurrency int
	BaseSeed    int64
}

// Artifact is the payload produced by a successful conversion.
type Artifact struct {
	Data     []byte
	Format   string
	Width    int
	Height   int
	Provider string
	Model    string
}

// Outcome is the terminal record for one item. Either Artifact is set and
// Success is true, or Err carries a human-readable description.
type Outcome struct {
	Index    int
	Success  bool
	Artifact *Artifact
	Err      string
	Elapsed  time.Duration
}

// Result aggregates all outcomes of a batch. Outcomes is always exactly as
// long as the submitted item list and slot i holds the outcome for item i.
type Result struct {
	Outcomes   []Outcome
	Total      int
	Succeeded  int
	Failed     int
	Elapsed    time.Duration
	AvgPerItem time.Duration
}
