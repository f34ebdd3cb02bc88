package analysis

import (
	"strings"

	"github.com/jonathan/cb-discovery/internal/scoring"
	"github.com/jonathan/cb-discovery/internal/types"
)

var (
	businessTerms = []string{"strategy", "customer", "business", "process", "system", "technology", "digital", "innovation",
		"experience", "solution", "service", "value", "market", "competitive", "growth"}
	techTerms = []string{"api", "integration", "platform", "cloud", "data", "analytics", "ai", "automation", "security",
		"infrastructure", "database", "software", "application", "interface", "architecture"}
	functionalTerms = []string{"requirement", "specification", "function", "feature", "capability", "performance",
		"scalability", "reliability", "availability", "usability"}
)

// LanguageMetrics describes the vocabulary of the combined answers.
type LanguageMetrics struct {
	TotalWords    int     `json:"total_words"`
	UniqueWords   int     `json:"unique_words"`
	Complexity    float64 `json:"complexity"`
	AvgWordLength float64 `json:"avg_word_length"`
	Depth         string  `json:"depth"`
	Sentences     int     `json:"sentences"`
	Readability   string  `json:"readability"`

	BusinessTerms   int    `json:"business_terms"`
	TechTerms       int    `json:"tech_terms"`
	FunctionalTerms int    `json:"functional_terms"`
	Expertise       string `json:"expertise"`
}

// Language computes vocabulary metrics over a lowercase corpus.
func Language(corpus string) LanguageMetrics {
	words := wordRe.FindAllString(corpus, -1)

	m := LanguageMetrics{
		TotalWords: len(words),
		Sentences:  len(sentenceRe.FindAllString(corpus, -1)),
	}
	unique := map[string]bool{}
	letters := 0
	for _, w := range words {
		unique[w] = true
		letters += len(w)
	}
	m.UniqueWords = len(unique)
	if m.TotalWords > 0 {
		m.Complexity = float64(m.UniqueWords) / float64(m.TotalWords) * 100
		m.AvgWordLength = float64(letters) / float64(m.TotalWords)
	}

	switch {
	case m.AvgWordLength > 6:
		m.Depth = "EXPERT"
	case m.AvgWordLength > 5:
		m.Depth = "ADVANCED"
	default:
		m.Depth = "STANDARD"
	}
	switch {
	case m.Sentences > 20:
		m.Readability = "EXECUTIVE"
	case m.Sentences > 10:
		m.Readability = "PROFESSIONAL"
	default:
		m.Readability = "CONCISE"
	}

	m.BusinessTerms = countIn(words, businessTerms)
	m.TechTerms = countIn(words, techTerms)
	m.FunctionalTerms = countIn(words, functionalTerms)
	switch total := m.BusinessTerms + m.TechTerms + m.FunctionalTerms; {
	case total > 15:
		m.Expertise = "EXPERT"
	case total > 8:
		m.Expertise = "ADVANCED"
	default:
		m.Expertise = "DEVELOPING"
	}
	return m
}

// languageCorpus joins fixed answers and answered deep-dive entries, lowercased.
func languageCorpus(a types.Answers) string {
	var parts []string
	for _, f := range a.Fixed {
		parts = append(parts, scoring.Stringify(f.Answer))
	}
	for _, b := range a.OpenBlocks() {
		if strings.TrimSpace(b.Answer) != "" {
			parts = append(parts, b.Answer)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
