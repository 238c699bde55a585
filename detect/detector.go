package detect

import "github.com/smaliscan/smaliscan/store"

// Detector is a single security check run against an indexed store. A
// detector announces itself with a stable option string (the id used
// for selection/exclusion and reported alongside every issue it
// raises) and a human-readable description, and performs its analysis
// in Detect, raising zero or more issues via sink.
type Detector interface {
	Option() string
	Description() string
	Detect(ctx Context, sink *Sink) error
}

// Sink is the write side of a store's issue table, bound to one
// detector so every issue it raises is automatically tagged with that
// detector's id.
type Sink struct {
	st         *store.Store
	detectorID string
}

// NewSink binds a Sink to detectorID over st.
func NewSink(st *store.Store, detectorID string) *Sink {
	return &Sink{st: st, detectorID: detectorID}
}

// Raise records an issue, filling in DetectorID from the bound detector.
func (s *Sink) Raise(issue store.Issue) error {
	issue.DetectorID = s.detectorID
	return s.st.RaiseIssue(issue)
}
