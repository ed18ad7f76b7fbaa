// Package reasoner provides an in-memory subsumption hierarchy that satisfies
// types.Reasoner. It understands direct is-a edges, equivalence axioms and
// element type assertions; terms with no asserted parent sit directly under
// the top term.
package reasoner

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/botirk38/semsim/types"
)

// DefaultTop is the root term used when none is given.
const DefaultTop types.Term = "owl:Thing"

// ErrCycle indicates an is-a edge would make a term its own ancestor.
var ErrCycle = errors.New("subclass edge would create a cycle")

// Hierarchy is a DAG of terms with equivalence groups and element types.
//
// Hierarchy is safe for concurrent reads. Mutations invalidate anything a
// caller has cached from earlier queries.
type Hierarchy struct {
	mu       sync.RWMutex
	top      types.Term
	parents  map[types.Term]types.Set[types.Term]
	group    map[types.Term]types.Term // term -> group id
	members  map[types.Term]types.Set[types.Term]
	typesOf  map[types.Element]types.Set[types.Term]
	elements []types.Element
}

// NewHierarchy creates a hierarchy rooted at top. An empty top uses DefaultTop.
func NewHierarchy(top types.Term) *Hierarchy {
	if top == "" {
		top = DefaultTop
	}
	h := &Hierarchy{
		top:     top,
		parents: make(map[types.Term]types.Set[types.Term]),
		group:   make(map[types.Term]types.Term),
		members: make(map[types.Term]types.Set[types.Term]),
		typesOf: make(map[types.Element]types.Set[types.Term]),
	}
	h.addTermLocked(top)
	return h
}

// AddTerm declares t. Declaring an existing term is a no-op.
func (h *Hierarchy) AddTerm(t types.Term) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addTermLocked(t)
}

func (h *Hierarchy) addTermLocked(t types.Term) {
	if _, ok := h.group[t]; ok {
		return
	}
	h.group[t] = t
	h.members[t] = types.NewSet(t)
	h.parents[t] = make(types.Set[types.Term])
}

// AddSubClassOf asserts child is-a parent, declaring both terms if needed.
func (h *Hierarchy) AddSubClassOf(child, parent types.Term) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.addTermLocked(child)
	h.addTermLocked(parent)
	if child == h.top {
		return fmt.Errorf("%s is-a %s: %w", child, parent, ErrCycle)
	}
	cg, pg := h.group[child], h.group[parent]
	if cg == pg {
		// child and parent are equivalent; the edge adds nothing
		return nil
	}
	if h.ancestorGroupsLocked(pg).Contains(cg) {
		return fmt.Errorf("%s is-a %s: %w", child, parent, ErrCycle)
	}
	h.parents[child].Add(parent)
	return nil
}

// AddEquivalent asserts a ≡ b, merging their equivalence groups.
func (h *Hierarchy) AddEquivalent(a, b types.Term) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.addTermLocked(a)
	h.addTermLocked(b)
	ga, gb := h.group[a], h.group[b]
	if ga == gb {
		return nil
	}
	if len(h.members[ga]) < len(h.members[gb]) {
		ga, gb = gb, ga
	}
	moved := h.members[gb]
	for m := range moved {
		h.group[m] = ga
		h.members[ga].Add(m)
	}
	delete(h.members, gb)

	// Merging a group with a strict ancestor collapses the chain between
	// them; if any other group sits on that chain the merge is a cycle.
	if h.reachesItselfLocked(ga) {
		for m := range moved {
			h.group[m] = gb
			h.members[ga].Remove(m)
		}
		h.members[gb] = moved
		return fmt.Errorf("%s ≡ %s: %w", a, b, ErrCycle)
	}
	return nil
}

// reachesItselfLocked reports whether group g is among its own ancestors.
func (h *Hierarchy) reachesItselfLocked(g types.Term) bool {
	seen := make(types.Set[types.Term])
	stack := []types.Term{g}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for p := range h.parentGroupsLocked(cur) {
			if p == g {
				return true
			}
			if !seen.Contains(p) {
				seen.Add(p)
				stack = append(stack, p)
			}
		}
	}
	return false
}

// AddType asserts that element e is an instance of t. The element is
// registered even when it has no other types.
func (h *Hierarchy) AddType(e types.Element, t types.Term) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.addTermLocked(t)
	h.addElementLocked(e)
	h.typesOf[e].Add(t)
}

// AddElement registers e with no types.
func (h *Hierarchy) AddElement(e types.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addElementLocked(e)
}

func (h *Hierarchy) addElementLocked(e types.Element) {
	if _, ok := h.typesOf[e]; ok {
		return
	}
	h.typesOf[e] = make(types.Set[types.Term])
	h.elements = append(h.elements, e)
}

// parentGroupsLocked returns the direct parent groups of group g.
func (h *Hierarchy) parentGroupsLocked(g types.Term) types.Set[types.Term] {
	out := make(types.Set[types.Term])
	for m := range h.members[g] {
		for p := range h.parents[m] {
			if pg := h.group[p]; pg != g {
				out.Add(pg)
			}
		}
	}
	if len(out) == 0 && g != h.group[h.top] {
		out.Add(h.group[h.top])
	}
	return out
}

// ancestorGroupsLocked returns every strict ancestor group of group g.
func (h *Hierarchy) ancestorGroupsLocked(g types.Term) types.Set[types.Term] {
	seen := make(types.Set[types.Term])
	stack := []types.Term{g}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for p := range h.parentGroupsLocked(cur) {
			if p == g || seen.Contains(p) {
				continue
			}
			seen.Add(p)
			stack = append(stack, p)
		}
	}
	return seen
}

func (h *Hierarchy) representativeLocked(g types.Term) types.Term {
	return types.Sorted(h.members[g])[0]
}

// SuperClassesOf implements types.Reasoner.
func (h *Hierarchy) SuperClassesOf(t types.Term) (types.Set[types.Term], error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	g, ok := h.group[t]
	if !ok {
		return nil, types.UnknownTerm(t)
	}
	groups := h.ancestorGroupsLocked(g)
	out := make(types.Set[types.Term], len(groups))
	for ag := range groups {
		out.Add(h.representativeLocked(ag))
	}
	return out, nil
}

// EquivalentsOf implements types.Reasoner.
func (h *Hierarchy) EquivalentsOf(t types.Term) (types.Node, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	g, ok := h.group[t]
	if !ok {
		return types.Node{}, types.UnknownTerm(t)
	}
	return types.NewNode(types.Sorted(h.members[g])...), nil
}

// TypesOf implements types.Reasoner. Asserted types that are ancestors of
// another asserted type are dropped so only the most specific remain.
func (h *Hierarchy) TypesOf(e types.Element) (types.Set[types.Term], error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	asserted, ok := h.typesOf[e]
	if !ok {
		return nil, types.UnknownElement(e)
	}
	groups := make(types.Set[types.Term], len(asserted))
	for t := range asserted {
		groups.Add(h.group[t])
	}
	redundant := make(types.Set[types.Term])
	for g := range groups {
		redundant.AddAll(h.ancestorGroupsLocked(g))
	}
	out := make(types.Set[types.Term], len(groups))
	for g := range groups {
		if !redundant.Contains(g) {
			out.Add(h.representativeLocked(g))
		}
	}
	return out, nil
}

// Elements implements types.Reasoner.
func (h *Hierarchy) Elements() []types.Element {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.elements)
}

// Contains implements types.Reasoner.
func (h *Hierarchy) Contains(t types.Term) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.group[t]
	return ok
}

// Top implements types.Reasoner.
func (h *Hierarchy) Top() types.Term {
	return h.top
}

// Terms returns every declared term in ascending order.
func (h *Hierarchy) Terms() []types.Term {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]types.Term, 0, len(h.group))
	for t := range h.group {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
