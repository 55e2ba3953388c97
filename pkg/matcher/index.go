// Package matcher resolves free-text column references produced by a model
// onto the authoritative column names of a dataset.
package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Tier identifies which lookup layer resolved a name.
type Tier int

const (
	TierNone            Tier = 0
	TierExact           Tier = 1
	TierCaseInsensitive Tier = 2
	TierNormalized      Tier = 3
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierCaseInsensitive:
		return "case_insensitive"
	case TierNormalized:
		return "normalized"
	default:
		return "none"
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

const (
	// MaxSuggestions is the maximum number of candidates returned on a miss.
	MaxSuggestions = 3
	// MaxSuggestionDistance caps the adaptive edit-distance threshold.
	MaxSuggestionDistance = 5
)

// Suggestion is a near-miss candidate for an unresolved name.
type Suggestion struct {
	Name     string `json:"name"`
	Distance int    `json:"distance"`
}

// Resolution is the outcome of resolving one name.
// Match is set when Tier is not TierNone; otherwise Suggestions may be set.
type Resolution struct {
	Match       string       `json:"match,omitempty"`
	Tier        Tier         `json:"tier"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// Resolved reports whether the name matched a column.
func (r Resolution) Resolved() bool {
	return r.Tier != TierNone
}

// SuggestionNames returns the suggested column names in order.
func (r Resolution) SuggestionNames() []string {
	if len(r.Suggestions) == 0 {
		return nil
	}
	names := make([]string, len(r.Suggestions))
	for i, s := range r.Suggestions {
		names[i] = s.Name
	}
	return names
}

// Collision records a column whose normalized token was already taken.
type Collision struct {
	Name      string `json:"name"`
	Canonical string `json:"canonical"`
	Token     string `json:"token"`
}

// Index is the three-layer lookup over a dataset's column names.
// It is built once per request and never mutated afterwards, so it is safe
// for concurrent reads.
type Index struct {
	names      []string
	canonical  []int // position of the first-inserted column of each normalized group
	exact      map[string]int
	folded     map[string]int
	normalized map[string]int
	collisions []Collision
}

// BuildIndex indexes the given column names in order.
// When two names normalize to the same token the later one is logged as a
// duplicate and every lookup for it resolves to the first-inserted column.
func BuildIndex(columns []string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("column-matcher")

	idx := &Index{
		names:      make([]string, len(columns)),
		canonical:  make([]int, len(columns)),
		exact:      make(map[string]int, len(columns)),
		folded:     make(map[string]int, len(columns)),
		normalized: make(map[string]int, len(columns)),
	}

	for i, name := range columns {
		idx.names[i] = name
		idx.canonical[i] = i

		token, _ := normalize(name, i+1)
		if first, taken := idx.normalized[token]; taken {
			idx.canonical[i] = first
			idx.collisions = append(idx.collisions, Collision{
				Name:      name,
				Canonical: columns[first],
				Token:     token,
			})
			logger.Warn("Duplicate column after normalization; resolving to first-inserted column",
				zap.String("column", name),
				zap.String("canonical", columns[first]),
				zap.String("token", token),
				zap.Int("position", i))
		} else {
			idx.normalized[token] = i
		}

		target := idx.canonical[i]
		if _, ok := idx.exact[name]; !ok {
			idx.exact[name] = target
		}
		key := foldCase(name)
		if _, ok := idx.folded[key]; !ok {
			idx.folded[key] = target
		}
	}

	return idx
}

// Len returns the number of indexed columns.
func (idx *Index) Len() int {
	return len(idx.names)
}

// Columns returns the indexed column names in insertion order.
func (idx *Index) Columns() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

// Collisions returns the duplicate columns detected while building the index.
func (idx *Index) Collisions() []Collision {
	out := make([]Collision, len(idx.collisions))
	copy(out, idx.collisions)
	return out
}

// Resolve maps name onto a canonical column name. Tiers are tried in order
// and the first hit wins: exact, case-insensitive, normalized. On a miss the
// closest columns by edit distance are returned as suggestions.
func (idx *Index) Resolve(name string) Resolution {
	if pos, ok := idx.exact[name]; ok {
		return Resolution{Match: idx.names[pos], Tier: TierExact}
	}
	if pos, ok := idx.folded[foldCase(name)]; ok {
		return Resolution{Match: idx.names[pos], Tier: TierCaseInsensitive}
	}
	// A name with nothing alphanumeric in it must not match a column that
	// happens to be called like the positional fallback.
	if token, fallback := normalize(name, 0); !fallback {
		if pos, ok := idx.normalized[token]; ok {
			return Resolution{Match: idx.names[pos], Tier: TierNormalized}
		}
	}
	return Resolution{Tier: TierNone, Suggestions: idx.Suggest(name)}
}

// Suggest returns up to MaxSuggestions canonical columns within the adaptive
// distance threshold min(5, ceil(len(name)/2)), closest first. Ties keep
// schema order.
func (idx *Index) Suggest(name string) []Suggestion {
	input := strings.ToLower(strings.TrimSpace(name))
	length := utf8.RuneCountInString(input)
	threshold := min(MaxSuggestionDistance, (length+1)/2)
	if threshold == 0 {
		return nil
	}

	type candidate struct {
		Suggestion
		pos int
	}
	var candidates []candidate
	for i, column := range idx.names {
		if idx.canonical[i] != i {
			continue
		}
		d := Distance(input, strings.ToLower(column))
		if d <= threshold {
			candidates = append(candidates, candidate{Suggestion{Name: column, Distance: d}, i})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Distance != candidates[b].Distance {
			return candidates[a].Distance < candidates[b].Distance
		}
		return candidates[a].pos < candidates[b].pos
	})

	if len(candidates) > MaxSuggestions {
		candidates = candidates[:MaxSuggestions]
	}
	if len(candidates) == 0 {
		return nil
	}
	out := make([]Suggestion, len(candidates))
	for i, c := range candidates {
		out[i] = c.Suggestion
	}
	return out
}
