package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/sahilm/fuzzy"
)

// FilterResult is a recipe that matched a local filter
type FilterResult struct {
	Recipe         domain.RecipeSummary
	Index          int   // Position in the filtered slice
	MatchedIndexes []int // Byte offsets in the lowercased name that matched
	Score          int   // Higher is better
}

// recipeIndex implements fuzzy.Source over lowercase names
type recipeIndex struct {
	lowerNames []string
}

func (idx recipeIndex) String(i int) string { return idx.lowerNames[i] }

func (idx recipeIndex) Len() int { return len(idx.lowerNames) }

// FilterLocal fuzzy-matches query against recipe names, best match first.
// Recipes whose keywords contain the query follow the name matches.
func FilterLocal(query string, recipes []domain.RecipeSummary) []FilterResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(recipes) == 0 {
		return nil
	}

	idx := recipeIndex{lowerNames: make([]string, len(recipes))}
	for i, r := range recipes {
		idx.lowerNames[i] = strings.ToLower(r.Name)
	}

	matches := fuzzy.FindFrom(query, idx)
	results := make([]FilterResult, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		seen[m.Index] = true
		results = append(results, FilterResult{
			Recipe:         recipes[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}

	for i, r := range recipes {
		if seen[i] {
			continue
		}
		for _, kw := range r.KeywordList() {
			if strings.Contains(strings.ToLower(kw), query) {
				results = append(results, FilterResult{Recipe: r, Index: i})
				break
			}
		}
	}

	return results
}

// Suggest returns up to limit recipe names close to query, closest first.
// It backs the "did you mean" line when a search comes back empty.
func Suggest(query string, recipes []domain.RecipeSummary, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}

	names := make([]string, 0, len(recipes))
	seen := make(map[string]bool, len(recipes))
	for _, r := range recipes {
		if r.Name != "" && !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}

	ranks := lfuzzy.RankFindFold(query, names)
	sort.Sort(ranks)

	var out []string
	for _, rank := range ranks {
		out = append(out, rank.Target)
		if len(out) == limit {
			return out
		}
	}

	// Fall back to edit distance for typos the subsequence match misses
	type candidate struct {
		name string
		dist int
	}
	lowerQuery := strings.ToLower(query)
	maxDist := max(1, len([]rune(lowerQuery))/3)

	var near []candidate
	for _, name := range names {
		if containsString(out, name) {
			continue
		}
		best := lfuzzy.LevenshteinDistance(lowerQuery, strings.ToLower(name))
		for _, word := range strings.Fields(strings.ToLower(name)) {
			best = min(best, lfuzzy.LevenshteinDistance(lowerQuery, word))
		}
		if best <= maxDist {
			near = append(near, candidate{name: name, dist: best})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })

	for _, c := range near {
		out = append(out, c.name)
		if len(out) == limit {
			break
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
