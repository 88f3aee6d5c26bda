package ir

import "time"

// Event is one emitted record of a run, as persisted and traced.
type Event struct {
	// ID is the content-addressed identity, see EventID.
	ID string `json:"id"`

	RunID string `json:"run_id"`

	// Seq is the run's logical clock value when the moment fired.
	Seq int64 `json:"seq"`

	// Offset is the moment's offset from the run origin.
	Offset time.Duration `json:"offset"`

	// At is origin + Offset.
	At time.Time `json:"at"`

	Name  string `json:"name"`
	Attrs Object `json:"attrs"`
}

// Run describes one generation pass over a timeline definition.
type Run struct {
	ID             string    `json:"id"`
	Timeline       string    `json:"timeline"`
	Origin         time.Time `json:"origin"`
	Stretch        float64   `json:"stretch"`
	Seed           uint64    `json:"seed"`
	DefinitionHash string    `json:"definition_hash"`
	EngineVersion  string    `json:"engine_version"`
}
