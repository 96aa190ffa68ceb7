package memory

import (
	"sort"
	"strings"
	"unicode"

	"github.com/yuribarsotti/agentlab/core"
)

// KeywordScore returns the fraction of query terms found in content,
// case-insensitively. An empty query matches everything with score 1.
func KeywordScore(query, content string) float64 {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return 1
	}

	words := map[string]bool{}
	for _, w := range Tokenize(content) {
		words[w] = true
	}

	hits := 0

	for _, term := range terms {
		if words[term] {
			hits++
		}
	}

	return float64(hits) / float64(len(terms))
}

// Tokenize lower-cases s and splits it on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Rank scores candidates against query, drops misses, orders by score
// (stable, so ties keep insertion order) and truncates to limit when limit > 0.
func Rank(query string, candidates []core.SearchResult, limit int) []core.SearchResult {
	results := make([]core.SearchResult, 0, len(candidates))

	for _, c := range candidates {
		score := KeywordScore(query, c.Content)
		if score <= 0 {
			continue
		}

		c.Score = score
		results = append(results, c)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results
}
