// Package analysis computes descriptive analytics over a submission and
// drives the LLM-backed expert analysis, functional specification and
// discrepancy check.
package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/cb-discovery/internal/scoring"
	"github.com/jonathan/cb-discovery/internal/types"
)

// MinAnswerLength is the shortest trimmed answer not counted as missing.
const MinAnswerLength = 3

// TopKeywordCount is the number of keywords reported.
const TopKeywordCount = 5

var (
	positiveWords = []string{"success", "growth", "positive", "improve", "efficient", "secure", "compliant"}
	negativeWords = []string{"risk", "fail", "blocker", "issue", "problem", "bias", "concern"}

	redTeamPrompts = []string{
		"How could this system be misused or abused?",
		"What is the worst-case scenario if the AI fails?",
		"Are there any hidden biases in the data or process?",
		"How would you detect and respond to adversarial attacks?",
		"What safeguards are in place for privacy and security?",
	}
)

// Completion counts answered and missing entries.
type Completion struct {
	Answered int `json:"answered"`
	Missing  int `json:"missing"`
}

// Total returns the number of entries counted.
func (c Completion) Total() int { return c.Answered + c.Missing }

// WordCount is a keyword and its frequency.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Summary is the full analytics view of one submission.
type Summary struct {
	MissingFixed     []string            `json:"missing_fixed"`
	Fixed            Completion          `json:"fixed"`
	Open             Completion          `json:"open"`
	FollowUps        Completion          `json:"followups"`
	Longest          string              `json:"longest"`
	Shortest         string              `json:"shortest"`
	TopKeywords      []WordCount         `json:"top_keywords"`
	Positive         int                 `json:"positive"`
	Negative         int                 `json:"negative"`
	Safety           types.SafetyPosture `json:"safety"`
	Radar            []types.RadarPoint  `json:"radar"`
	Language         LanguageMetrics     `json:"language"`
	RedTeamPrompts   []string            `json:"red_team_prompts"`
	ExecutiveSummary string              `json:"executive_summary"`
}

// Summarize computes analytics for a submission's answers.
func Summarize(a types.Answers) Summary {
	blocks := a.OpenBlocks()

	var s Summary
	for _, f := range a.Fixed {
		if isMissing(scoring.Stringify(f.Answer)) {
			s.Fixed.Missing++
			s.MissingFixed = append(s.MissingFixed, questionLabel(f))
		} else {
			s.Fixed.Answered++
		}
	}
	for _, b := range blocks {
		if isMissing(b.Answer) {
			s.Open.Missing++
		} else {
			s.Open.Answered++
		}
		for _, fu := range b.FollowUps {
			if strings.TrimSpace(fu.Answer) == "" {
				s.FollowUps.Missing++
			} else {
				s.FollowUps.Answered++
			}
		}
	}

	texts := answerTexts(a.Fixed, blocks)
	s.Longest, s.Shortest = extremes(texts)

	words := keywordTokens(texts)
	s.TopKeywords = topWords(words, TopKeywordCount)
	s.Positive = countIn(words, positiveWords)
	s.Negative = countIn(words, negativeWords)

	corpus := strings.ToLower(strings.Join(texts, " "))
	s.Safety = scoring.Safety(corpus)
	s.Radar = scoring.Radar(corpus, a.PillarScores)
	s.Language = Language(languageCorpus(a))
	s.RedTeamPrompts = append([]string(nil), redTeamPrompts...)
	s.ExecutiveSummary = s.executiveSummary()
	return s
}

func isMissing(answer string) bool {
	return len(strings.TrimSpace(answer)) < MinAnswerLength
}

func questionLabel(f types.AnswerRecord) string {
	if f.Question != "" {
		return f.Question
	}
	return "Q" + f.ID
}

func answerTexts(fixed []types.AnswerRecord, blocks []types.OpenBlock) []string {
	texts := make([]string, 0, len(fixed)+len(blocks))
	for _, f := range fixed {
		texts = append(texts, scoring.Stringify(f.Answer))
	}
	for _, b := range blocks {
		texts = append(texts, b.Answer)
	}
	return texts
}

// extremes returns the longest answer and the shortest non-blank answer.
// The first of equal-length answers wins.
func extremes(texts []string) (longest, shortest string) {
	for _, t := range texts {
		if len(t) > len(longest) {
			longest = t
		}
		if strings.TrimSpace(t) == "" {
			continue
		}
		if shortest == "" || len(t) < len(shortest) {
			shortest = t
		}
	}
	return longest, shortest
}

// keywordTokens splits answers on whitespace and keeps lowercase tokens longer than three bytes.
func keywordTokens(texts []string) []string {
	var words []string
	for _, t := range texts {
		for _, w := range strings.Fields(strings.ToLower(t)) {
			if len(w) > 3 {
				words = append(words, w)
			}
		}
	}
	return words
}

// topWords returns the n most frequent words; ties keep first-occurrence order.
func topWords(words []string, n int) []WordCount {
	counts := map[string]int{}
	var order []string
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	out := make([]WordCount, len(order))
	for i, w := range order {
		out[i] = WordCount{Word: w, Count: counts[w]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func countIn(words, vocabulary []string) int {
	set := make(map[string]bool, len(vocabulary))
	for _, v := range vocabulary {
		set[v] = true
	}
	n := 0
	for _, w := range words {
		if set[w] {
			n++
		}
	}
	return n
}

func (s Summary) topicList(n int) string {
	if len(s.TopKeywords) == 0 {
		return "N/A"
	}
	var words []string
	for i, wc := range s.TopKeywords {
		if i == n {
			break
		}
		words = append(words, wc.Word)
	}
	return strings.Join(words, ", ")
}

func (s Summary) executiveSummary() string {
	var sb strings.Builder
	sb.WriteString("This survey analysis provides a comprehensive overview of the organization's conversational banking maturity, AI safety posture, and key gaps.\n\n")
	sb.WriteString("Key Findings:\n")
	fmt.Fprintf(&sb, "- AI Safety Score: %d/%d\n", s.Safety.Score, s.Safety.Max)
	fmt.Fprintf(&sb, "- Positive Indicators: %d\n", s.Positive)
	fmt.Fprintf(&sb, "- Risk Indicators: %d\n", s.Negative)
	fmt.Fprintf(&sb, "- Most Common Topics: %s\n\n", s.topicList(3))
	sb.WriteString("For detailed recommendations, refer to the Insights and Next Steps section.")
	return sb.String()
}

// Line is the one-line analytics digest passed to the expert analysis prompt.
func (s Summary) Line() string {
	keywords := make([]string, 0, len(s.TopKeywords))
	for _, wc := range s.TopKeywords {
		keywords = append(keywords, fmt.Sprintf("%s (%d)", wc.Word, wc.Count))
	}
	return fmt.Sprintf("Safety Score: %d/%d, Top Keywords: %s, Positive Sentiment: %d, Negative Sentiment: %d",
		s.Safety.Score, s.Safety.Max, strings.Join(keywords, ", "), s.Positive, s.Negative)
}

var (
	wordRe     = regexp.MustCompile(`\b\w+\b`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
)
