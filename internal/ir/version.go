package ir

// Version constants recorded with every persisted run.
const (
	// FormatVersion is the event record format version.
	FormatVersion = "1"

	// EngineVersion is the timeweave engine version.
	EngineVersion = "0.1.0"
)
