// Package compiler turns declarative timeline definitions into timelines.
//
// Definitions are written in CUE or YAML and share one shape:
//
//	timeline: {
//	    name:     "onboarding"
//	    kind:     "sequential"
//	    duration: "14d"
//	    vars: user: "alice"
//	    children: [
//	        {kind: "event", name: "signup", attrs: who: "$user"},
//	        {kind: "concurrent", name: "day", duration: "24h", repeat: 3, children: [
//	            {kind: "event", name: "ping", offset: "9h", distribution: "uniform"},
//	        ]},
//	    ]
//	}
//
// Event leaves emit one record each through engine.Emit. Attribute strings
// starting with "$" read the named variable from the leaf's scope when the
// event fires; "$$" escapes a literal dollar sign.
//
// Validation collects every problem in a definition instead of stopping at
// the first, and reports source positions where the format provides them.
package compiler
