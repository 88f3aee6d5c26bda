package testutil

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/roach88/timeweave/internal/timeline"
)

// TreeOptions bounds RandomTree.
type TreeOptions struct {
	MaxDepth    int
	MaxChildren int
	// Unit is the granularity of generated durations and offsets.
	Unit time.Duration
}

// DefaultTreeOptions produce trees of a few hundred nodes at most.
func DefaultTreeOptions() TreeOptions {
	return TreeOptions{MaxDepth: 4, MaxChildren: 4, Unit: time.Minute}
}

// RandomTree builds a valid tree mixing sequential and concurrent windows.
// Leaf names encode their construction order ("leaf-0", "leaf-1", ...).
func RandomTree(rng *rand.Rand, opts TreeOptions) timeline.Timeline {
	g := &treeGen{rng: rng, opts: opts}
	return g.node(0)
}

type treeGen struct {
	rng    *rand.Rand
	opts   TreeOptions
	leaves int
}

func (g *treeGen) leaf() timeline.Timeline {
	l := timeline.NewLeaf(fmt.Sprintf("leaf-%d", g.leaves), nil)
	g.leaves++
	return l
}

func (g *treeGen) node(depth int) timeline.Timeline {
	if depth >= g.opts.MaxDepth || g.rng.IntN(4) == 0 {
		return g.leaf()
	}
	n := g.rng.IntN(g.opts.MaxChildren + 1)

	if g.rng.IntN(2) == 0 {
		children := make([]timeline.Timeline, n)
		var total time.Duration
		for i := range children {
			children[i] = g.node(depth + 1)
			total += children[i].Duration()
		}
		slack := time.Duration(g.rng.IntN(5)) * g.opts.Unit
		seq, err := timeline.NewSequential(fmt.Sprintf("seq-%d", depth), total+slack)
		if err != nil {
			panic(err)
		}
		for _, c := range children {
			if err := seq.Attach(c); err != nil {
				panic(err)
			}
		}
		return seq
	}

	conc, err := timeline.NewConcurrent(fmt.Sprintf("conc-%d", depth), time.Duration(g.rng.IntN(10))*g.opts.Unit)
	if err != nil {
		panic(err)
	}
	for i := 0; i < n; i++ {
		offset := time.Duration(g.rng.IntN(10)) * g.opts.Unit
		if err := conc.Attach(g.node(depth+1), offset); err != nil {
			panic(err)
		}
	}
	return conc
}
