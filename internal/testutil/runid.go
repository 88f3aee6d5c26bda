package testutil

// FixedRunID returns the same run ID every time.
//
// Deterministic run IDs make event IDs, and therefore golden traces,
// byte-identical across test runs. Implements engine.RunIDGenerator.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator for id. An empty id becomes
// "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed ID.
func (g *FixedRunID) Generate() string {
	return g.id
}
