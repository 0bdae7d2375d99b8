// Package sequencer orders concept sets into a single prerequisite-respecting
// learn order.
package sequencer

import (
	"sort"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

// Order returns a permutation of concepts in which every prerequisite edge
// within the set points forward. Kahn's algorithm over the induced subgraph;
// ties are broken by ascending (grade rank, difficulty, code), and the ready
// queue is re-sorted by that key before every emit so the order is globally
// stable rather than insertion-ordered.
//
// Cyclic leftovers are appended at the end sorted by the same key. That is a
// best-effort repair for bad edge data, not a claim of prerequisite order
// within the cycle; Order never fails and never drops a concept.
func Order(concepts []*domain.Concept, edges []*domain.ConceptEdge) []*domain.Concept {
	if len(concepts) == 0 {
		return []*domain.Concept{}
	}

	byCode := make(map[string]*domain.Concept, len(concepts))
	codes := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c == nil || c.Code == "" {
			continue
		}
		if _, dup := byCode[c.Code]; dup {
			continue
		}
		byCode[c.Code] = c
		codes = append(codes, c.Code)
	}
	if len(codes) == 0 {
		return []*domain.Concept{}
	}

	indegree := make(map[string]int, len(codes))
	successors := make(map[string][]string, len(codes))
	seen := make(map[[2]string]bool, len(edges))
	for _, code := range codes {
		indegree[code] = 0
	}
	for _, e := range edges {
		if e == nil || e.FromCode == e.ToCode {
			continue
		}
		if _, ok := byCode[e.FromCode]; !ok {
			continue
		}
		if _, ok := byCode[e.ToCode]; !ok {
			continue
		}
		pair := [2]string{e.FromCode, e.ToCode}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		successors[e.FromCode] = append(successors[e.FromCode], e.ToCode)
		indegree[e.ToCode]++
	}

	less := func(a, b *domain.Concept) bool {
		ra, rb := domain.GradeRank(a.GradeLevel), domain.GradeRank(b.GradeLevel)
		if ra != rb {
			return ra < rb
		}
		if a.Difficulty != b.Difficulty {
			return a.Difficulty < b.Difficulty
		}
		return a.Code < b.Code
	}

	ready := make([]*domain.Concept, 0, len(codes))
	for _, code := range codes {
		if indegree[code] == 0 {
			ready = append(ready, byCode[code])
		}
	}

	ordered := make([]*domain.Concept, 0, len(codes))
	emitted := make(map[string]bool, len(codes))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)
		emitted[next.Code] = true
		for _, succ := range successors[next.Code] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, byCode[succ])
			}
		}
	}

	// Anything left sits on a cycle.
	if len(ordered) < len(codes) {
		leftovers := make([]*domain.Concept, 0, len(codes)-len(ordered))
		for _, code := range codes {
			if !emitted[code] {
				leftovers = append(leftovers, byCode[code])
			}
		}
		sort.SliceStable(leftovers, func(i, j int) bool { return less(leftovers[i], leftovers[j]) })
		ordered = append(ordered, leftovers...)
	}

	return ordered
}
