package ir

// DominatorTree holds the dominance relation, its transitive closure, the
// immediate-dominator-children snapshot, and the dominance frontier for a
// CFG, per spec.md §4.6.
//
// Grounded on original_source/brilro/src/cfg/dominator.rs's
// DominatorTree::from_cfg, field for field.
type DominatorTree struct {
	// Dominates[b] is the transitively-closed set of blocks b dominates
	// (always includes b itself).
	Dominates map[int]map[int]bool
	// ImDom[b] is the direct-inversion snapshot taken before transitive
	// closure. Because the fixpoint's dominator sets are already complete,
	// it holds b itself and every block b dominates, so it is a superset of
	// b's immediate-dominator children whenever the tree is deeper than one
	// level below b.
	ImDom map[int]map[int]bool
	// Frontier[b] is b's dominance frontier.
	Frontier map[int]map[int]bool

	cfg *ControlFlowGraph
}

// BuildDominatorTree computes the dominator tree via iterative
// intersection to a fixpoint.
func BuildDominatorTree(g *ControlFlowGraph) *DominatorTree {
	allStarts := make(map[int]bool, len(g.Blocks))
	for _, b := range g.Blocks {
		allStarts[b.Start] = true
	}

	dom := make(map[int]map[int]bool, len(g.Blocks))
	for _, b := range g.Blocks {
		if b.Start == 0 {
			dom[b.Start] = map[int]bool{0: true}
		} else {
			dom[b.Start] = cloneSet(allStarts)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range g.Blocks {
			if len(b.Pred) == 0 {
				continue
			}
			var predsDoms map[int]bool
			for i, p := range b.Pred {
				if i == 0 {
					predsDoms = cloneSet(dom[p])
				} else {
					predsDoms = intersect(predsDoms, dom[p])
				}
			}
			newDoms := intersect(predsDoms, dom[b.Start])
			newDoms[b.Start] = true
			if !setsEqual(newDoms, dom[b.Start]) {
				changed = true
			}
			dom[b.Start] = newDoms
		}
	}

	// Invert: dominates[b] = { x : b in dom[x] }.
	dominates := make(map[int]map[int]bool)
	for domed, domedBy := range dom {
		for b := range domedBy {
			if dominates[b] == nil {
				dominates[b] = make(map[int]bool)
			}
			dominates[b][domed] = true
		}
	}

	imDom := make(map[int]map[int]bool, len(dominates))
	for b, set := range dominates {
		imDom[b] = cloneSet(set)
	}

	// Transitive closure.
	changed = true
	for changed {
		changed = false
		for dominator, dominated := range dominates {
			var more map[int]bool
			first := true
			for d := range dominated {
				if first {
					more = cloneSet(dominates[d])
					first = false
				} else {
					more = union(more, dominates[d])
				}
			}
			if more == nil {
				continue
			}
			unioned := union(dominated, more)
			if !setsEqual(unioned, dominated) {
				changed = true
			}
			dominates[dominator] = unioned
		}
	}

	frontier := make(map[int]map[int]bool, len(g.Blocks))
	for _, d := range g.Blocks {
		frontier[d.Start] = make(map[int]bool)
		for _, y := range g.Blocks {
			strictlyDominates := dominates[d.Start][y.Start] && y.Start != d.Start
			if strictlyDominates {
				continue
			}
			for _, p := range y.Pred {
				if dominates[d.Start][p] {
					frontier[d.Start][y.Start] = true
					break
				}
			}
		}
	}

	return &DominatorTree{Dominates: dominates, ImDom: imDom, Frontier: frontier, cfg: g}
}

func cloneSet(s map[int]bool) map[int]bool {
	out := make(map[int]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersect(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func union(a, b map[int]bool) map[int]bool {
	out := cloneSet(a)
	for k := range b {
		out[k] = true
	}
	return out
}

func setsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// DominatorsCorrect independently verifies the computed relation by graph
// traversal: for every (candidate dominator m, target t), recursively walk
// every path from entry to t; m must appear on all of them. Bounded by
// total block count. Used only for diagnostics (the `dom` CLI mode) and
// tests.
//
// Grounded on original_source/brilro/src/cfg/dominator.rs's
// dominators_correct / actually_dominates.
func (t *DominatorTree) DominatorsCorrect() bool {
	maxDepth := len(t.cfg.Blocks)
	for _, dominator := range t.cfg.Blocks {
		for _, dominee := range t.cfg.Blocks {
			dominates := actuallyDominates(t.cfg, 0, dominee.Start, dominator.Start, 0, maxDepth)
			thinks := t.Dominates[dominator.Start][dominee.Start]
			if thinks != dominates {
				return false
			}
		}
	}
	return true
}

func actuallyDominates(g *ControlFlowGraph, cur, lookingFor, mustHave, depth, maxDepth int) bool {
	if depth > maxDepth || mustHave == cur {
		return true
	}
	if cur == lookingFor {
		return false
	}
	b := g.Block(cur)
	for _, s := range b.FlowsTo {
		if !actuallyDominates(g, s, lookingFor, mustHave, depth+1, maxDepth) {
			return false
		}
	}
	return true
}
