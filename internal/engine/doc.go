// Package engine runs a schedule to completion.
//
// The engine pulls moments from a schedule root one at a time, stamps each
// with a logical sequence number from Clock, maps its offset onto wall time
// relative to the run origin and fires the moment's action. Actions emit
// event records through Emit, which fans them out to the run's sinks.
//
// Single-Writer Loop:
// All moments of a run fire from the goroutine that called Run, in
// non-decreasing offset order. Sequence numbers are therefore strictly
// increasing in firing order and a run replays identically given the same
// timeline, seed and run ID.
//
// Pacing:
// By default moments fire as fast as they are pulled. WithPacer makes the
// loop wait until each moment's wall time before firing it.
package engine
