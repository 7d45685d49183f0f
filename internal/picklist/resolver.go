package picklist

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/golfdraft/golfdraft/internal/models"
)

// SuggestionCount is how many near-miss golfer names are offered per
// unmatched input.
const SuggestionCount = 4

// Suggestion is a near-miss candidate for an unmatched name, ordered by edit
// distance.
type Suggestion struct {
	Target   string `json:"target"`
	Distance int    `json:"distance"`
}

// Resolution is the outcome of resolving a list of golfer names. It is
// all-or-nothing: either every name matched and Golfers carries the resolved
// IDs in input order, or Completed is false and Suggestions explains each
// failed name. A failed resolution commits nothing.
type Resolution struct {
	Completed   bool                    `json:"completed"`
	Golfers     []uuid.UUID             `json:"golfers,omitempty"`
	Suggestions map[string][]Suggestion `json:"suggestions,omitempty"`
}

// ResolveNames maps an ordered list of golfer names onto golfer IDs.
// Matching is case-insensitive exact match; anything else counts as a miss
// and produces edit-distance suggestions instead.
func ResolveNames(names []string, known []models.Golfer) Resolution {
	byName := make(map[string]uuid.UUID, len(known))
	for _, g := range known {
		byName[strings.ToLower(g.Name)] = g.ID
	}

	resolved := make([]uuid.UUID, 0, len(names))
	var failed map[string][]Suggestion
	for _, name := range names {
		id, ok := byName[strings.ToLower(name)]
		if !ok {
			if failed == nil {
				failed = make(map[string][]Suggestion)
			}
			failed[name] = suggest(name, known)
			continue
		}
		resolved = append(resolved, id)
	}

	if len(failed) > 0 {
		return Resolution{Completed: false, Suggestions: failed}
	}
	return Resolution{Completed: true, Golfers: resolved}
}

// suggest ranks the known golfer names by edit distance against the input,
// ascending, ties broken by ingestion order.
func suggest(name string, known []models.Golfer) []Suggestion {
	type scored struct {
		name     string
		distance int
		seq      int
	}
	candidates := make([]scored, 0, len(known))
	lower := strings.ToLower(name)
	for i, g := range known {
		candidates = append(candidates, scored{
			name:     g.Name,
			distance: levenshtein(lower, strings.ToLower(g.Name)),
			seq:      i,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].seq < candidates[j].seq
	})

	n := SuggestionCount
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]Suggestion, n)
	for i := 0; i < n; i++ {
		out[i] = Suggestion{Target: candidates[i].name, Distance: candidates[i].distance}
	}
	return out
}

// levenshtein is the minimum number of single-character edits needed to turn
// s1 into s2. Distances are computed over runes so accented names cost one
// edit per character, not per byte.
func levenshtein(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := 0; j <= len(r2); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = minOf(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
