package encode

// maxWeight is the structural weight of the document title scope. Weights
// run document=6, section=5, subsection=4, sub-subsection=3,
// sub-sub-subsection=2; body and list text get weight 1.
const maxWeight = 6

// bodyWeight is the weight of ids contributed by body or list text.
const bodyWeight = 1

// frame is one active heading scope and the id set its heading contributed.
type frame struct {
	depth int
	ids   map[uint32]struct{}
}

// scopeStack is the stack of active heading scopes, ordered by increasing
// depth. Entering a scope at depth d pops every frame at depth >= d before
// pushing, so stale context from a previous sibling can never leak.
type scopeStack struct {
	frames []frame
}

// enter replaces the scope at the given depth and drops all deeper scopes.
func (s *scopeStack) enter(depth int, ids map[uint32]struct{}) {
	keep := 0
	for keep < len(s.frames) && s.frames[keep].depth < depth {
		keep++
	}
	s.frames = append(s.frames[:keep], frame{depth: depth, ids: ids})
}

// contribute unions every active scope's ids into the set.
func (s *scopeStack) contribute(into map[uint32]struct{}) {
	for _, f := range s.frames {
		for id := range f.ids {
			into[id] = struct{}{}
		}
	}
}

// weight returns the structural weight of an id: the shallowest scope that
// owns it wins, body weight otherwise.
func (s *scopeStack) weight(id uint32) uint8 {
	for _, f := range s.frames {
		if _, ok := f.ids[id]; ok {
			return uint8(maxWeight + 1 - f.depth)
		}
	}
	return bodyWeight
}
