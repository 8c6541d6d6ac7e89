package darkroom

import (
	"github.com/gogpu/darkroom/edit"
)

// Plan is the compiled form of an edit state for one image: an ordered
// pass list plus the halo demand of the whole list.
//
// Compilation is pure and deterministic. The same state and image
// dimensions always compile to the same plan, including hashes, so plans
// can be recompiled freely instead of cached.
type Plan struct {
	// Passes is the ordered executable pass list. Identity groups are
	// skipped during compilation and emit no pass.
	Passes []Pass

	// Halo is the per-side tile margin in pixels demanded by the pass
	// list: the ceiling of the summed spatial reach of every pass.
	// Summing, rather than taking the maximum, keeps chained convolutions
	// seamless: pass i+1's reach reads pixels that pass i must itself have
	// computed with full support.
	Halo int

	// StateHash is the hash of the complete edit state, including identity
	// groups. Two plans with equal StateHash render identically.
	StateHash uint64
}

// Empty reports whether the plan performs no work, in which case rendering
// returns the source pixels unchanged.
func (p Plan) Empty() bool { return len(p.Passes) == 0 }

// Compile translates an edit state into an executable plan for an image of
// the given dimensions.
func Compile(s edit.State, width, height int) Plan {
	plan := Plan{StateHash: s.Hash()}

	var reach float64
	for gi := 0; gi < s.Len(); gi++ {
		g := s.Group(gi)
		if g.Identity() {
			continue
		}
		p := Pass{
			ID:         len(plan.Passes),
			GroupIndex: gi,
			Group:      g,
			StackHash:  s.PrefixHash(gi + 1),
		}
		reach += p.reach(width, height)
		plan.Passes = append(plan.Passes, p)
	}
	plan.Halo = ceilInt(reach)
	return plan
}

// ChangedFrom returns the index of the first pass in p whose stack hash
// differs from old, comparing positionally. Passes before the returned
// index produce cache hits when re-rendering after the edit that turned
// old into p; passes at or after it recompute. If nothing differs it
// returns len(p.Passes).
func (p Plan) ChangedFrom(old Plan) int {
	n := len(p.Passes)
	if len(old.Passes) < n {
		n = len(old.Passes)
	}
	for i := 0; i < n; i++ {
		if p.Passes[i].StackHash != old.Passes[i].StackHash {
			return i
		}
	}
	return n
}
