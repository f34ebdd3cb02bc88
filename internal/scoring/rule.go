// Package scoring implements keyword-driven maturity scoring over survey answers.
//
// Every score in the package is produced by Rule.Score: a base value plus a
// fixed increment for each distinct keyword present in a lowercase corpus,
// capped at a maximum. Maturity pillars, the AI safety posture and the radar
// axes are parameterized instances of that one rule.
package scoring

import "strings"

// Rule is a keyword scoring rule.
type Rule struct {
	Keywords   []string
	Multiplier int
	Base       int
	Cap        int
}

// Hits counts the keywords of r that occur anywhere in corpus.
// Matching is substring containment, so "ha" hits inside "chat".
// Each keyword counts once regardless of how often it occurs.
func (r Rule) Hits(corpus string) int {
	hits := 0
	seen := make(map[string]bool, len(r.Keywords))
	for _, kw := range r.Keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		if strings.Contains(corpus, kw) {
			hits++
		}
	}
	return hits
}

// Score returns min(Base + hits*Multiplier, Cap) for corpus.
func (r Rule) Score(corpus string) int {
	return min(r.Base+r.Hits(corpus)*r.Multiplier, r.Cap)
}

// Saturated returns the score reached when every keyword hits.
func (r Rule) Saturated() int {
	return min(r.Base+len(distinct(r.Keywords))*r.Multiplier, r.Cap)
}

func distinct(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
