// Package distribution picks a concrete offset for an event whose position
// inside its enclosing window is otherwise unconstrained.
//
// Every Func maps (start, window) to a value in the half-open interval
// [start, start+window). An empty window always maps to start.
package distribution

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// Func chooses an offset inside [start, start+window).
type Func func(start, window time.Duration) time.Duration

// Clamp forces v into [start, start+window).
func Clamp(v, start, window time.Duration) time.Duration {
	if window <= 0 || v < start {
		return start
	}
	if last := start + window - 1; v > last {
		return last
	}
	return v
}

// Start places every event at the beginning of its window.
func Start(start, _ time.Duration) time.Duration {
	return start
}

// Midpoint places every event halfway through its window.
func Midpoint(start, window time.Duration) time.Duration {
	return Clamp(start+window/2, start, window)
}

// Uniform draws offsets uniformly from the window using rng.
func Uniform(rng *rand.Rand) Func {
	return func(start, window time.Duration) time.Duration {
		if window <= 0 {
			return start
		}
		return start + time.Duration(rng.Int64N(int64(window)))
	}
}

// Normal draws offsets from a normal distribution centred on the window's
// midpoint with a standard deviation of spread*window, clamped to the window.
func Normal(rng *rand.Rand, spread float64) Func {
	return func(start, window time.Duration) time.Duration {
		if window <= 0 {
			return start
		}
		mean := float64(start) + float64(window)/2
		v := mean + rng.NormFloat64()*spread*float64(window)
		return Clamp(time.Duration(v), start, window)
	}
}

// Cron places each event on the first tick of expr at or after the window
// start, with offsets interpreted relative to origin. Windows without a tick
// fall back to their start.
func Cron(expr string, origin time.Time) (Func, error) {
	if !gronx.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression %q", expr)
	}
	return func(start, window time.Duration) time.Duration {
		if window <= 0 {
			return start
		}
		next, err := gronx.NextTickAfter(expr, origin.Add(start), true)
		if err != nil {
			return start
		}
		off := next.Sub(origin)
		if off < start || off >= start+window {
			return start
		}
		return off
	}, nil
}

// Parse resolves a distribution name as written in timeline definitions:
// "start", "midpoint", "uniform", "normal", "normal:<spread>" or
// "cron:<expr>". The empty string means "inherit" and yields nil.
func Parse(expr string, rng *rand.Rand, origin time.Time) (Func, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(expr), ":")
	switch name {
	case "":
		return nil, nil
	case "start":
		return Start, nil
	case "midpoint":
		return Midpoint, nil
	case "uniform":
		return Uniform(rng), nil
	case "normal":
		spread := 0.15
		if arg != "" {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("invalid normal spread %q", arg)
			}
			spread = v
		}
		return Normal(rng, spread), nil
	case "cron":
		return Cron(arg, origin)
	default:
		return nil, fmt.Errorf("unknown distribution %q", expr)
	}
}

// Validate checks expr without building a Func.
func Validate(expr string) error {
	_, err := Parse(expr, rand.New(rand.NewPCG(0, 0)), time.Time{})
	return err
}

// NewRand returns the deterministic generator used for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
