// Package harness runs timeline scenarios and checks what they emit.
//
// A scenario names a definition file, the run parameters (origin, seed,
// stretch, limit) and assertions over the resulting trace:
//
//	name: standup_week
//	description: Two days of standups and retros
//	definition: ../definitions/standup.yaml
//	origin: 2026-03-02T00:00:00Z
//	seed: 1
//	assertions:
//	  - {type: count, name: standup, count: 2}
//	  - {type: order, names: [standup, retro]}
//	  - {type: within, name: retro, from: 16h, to: 41h}
//
// Every scenario runs through the real pipeline: compile, schedule, run on
// the engine into a fresh in-memory store, and read the trace back from
// the store. Run IDs are fixed, so traces are byte-identical across runs
// and can be compared against golden files.
package harness
