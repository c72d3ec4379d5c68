package knowledge

import (
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9_-]+`)

//nolint:gochecknoglobals // read-only lookup table
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"as": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "should": true, "could": true, "may": true, "might": true,
	"must": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "i": true, "you": true, "he": true, "she": true,
	"it": true, "we": true, "they": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true,
	"about": true, "tell": true, "project": true, "explain": true,
}

// KeyTerms returns up to maxTerms distinct search terms from text, most
// frequent first. Stop words and terms shorter than three characters are
// dropped; ties keep first-occurrence order.
func KeyTerms(text string, maxTerms int) []string {
	tokens := tokenPattern.FindAllString(text, -1)

	type termFreq struct {
		term  string
		freq  int
		first int
	}
	byTerm := make(map[string]*termFreq)
	for i, token := range tokens {
		lower := strings.ToLower(strings.Trim(token, "-_"))
		if len(lower) < 3 || stopWords[lower] {
			continue
		}
		if tf, ok := byTerm[lower]; ok {
			tf.freq++
			continue
		}
		byTerm[lower] = &termFreq{term: lower, freq: 1, first: i}
	}

	sorted := make([]*termFreq, 0, len(byTerm))
	for _, tf := range byTerm {
		sorted = append(sorted, tf)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].freq != sorted[j].freq {
			return sorted[i].freq > sorted[j].freq
		}
		return sorted[i].first < sorted[j].first
	})

	if maxTerms > 0 && len(sorted) > maxTerms {
		sorted = sorted[:maxTerms]
	}
	terms := make([]string, len(sorted))
	for i, tf := range sorted {
		terms[i] = tf.term
	}
	return terms
}

// MatchExpression builds an FTS5 query matching any of the key terms in
// text. Terms are quoted so FTS operators in user input stay literal.
func MatchExpression(text string) string {
	terms := KeyTerms(text, 20)
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}
