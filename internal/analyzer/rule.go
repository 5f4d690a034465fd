package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/civica-cloud/agendex/internal/domain/query"
)

// Rule is a regex-based analyzer that needs no external service. It is
// both the default analyzer and the fallback when the LLM analyzer is
// unavailable.
type Rule struct{}

// NewRule creates a rule-based analyzer.
func NewRule() *Rule { return &Rule{} }

var (
	// Title-then-name ("Commissioner Park") and name-then-title
	// ("Park, committee chair") speaker forms.
	// Case-insensitivity is scoped to the title alternation; the name
	// group stays case-sensitive so trailing lowercase words are not
	// swallowed into the name.
	speakerTitleFirst = regexp.MustCompile(
		`\b(?i:chair(?:man|woman|person)?|commissioner|council\s?member|director|deputy\s+mayor|mayor)\s+([A-Z][\w'-]+(?:\s[A-Z][\w'-]+)?)`)
	speakerNameFirst = regexp.MustCompile(
		`\b([A-Z][\w'-]+(?:\s[A-Z][\w'-]+)?),?\s+(?i:the\s+)?((?i:chair(?:man|woman|person)?|commissioner|council\s?member|director|deputy\s+mayor|mayor))\b`)

	// Numeric date forms, normalized to YYYY-MM-DD.
	dateNumeric = regexp.MustCompile(`\b(\d{4})[./-](\d{1,2})[./-](\d{1,2})\b`)

	// Question boilerplate stripped from the topic.
	questionPhrases = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^what\s+did\s+.*\s+say\s+about\s+`),
		regexp.MustCompile(`(?i)^(?:please\s+)?tell\s+me\s+about\s+`),
		regexp.MustCompile(`(?i)^what\s+(?:is|was|about)\s+`),
		regexp.MustCompile(`(?i)^find\s+(?:me\s+)?`),
		regexp.MustCompile(`(?i)\s+discussions?\??$`),
		regexp.MustCompile(`\?+$`),
	}
)

// Analyze extracts speaker and date hints by pattern matching and keeps
// the remaining text as the topic. Never fails and costs no tokens.
func (a *Rule) Analyze(_ context.Context, text string) (query.Hint, query.AnalysisUsage, error) {
	topic := text
	var speaker, date string

	if m := speakerTitleFirst.FindStringSubmatch(text); m != nil {
		speaker = strings.TrimSpace(m[0])
		topic = strings.Replace(topic, m[0], "", 1)
	} else if m := speakerNameFirst.FindStringSubmatch(text); m != nil {
		speaker = strings.TrimSpace(m[1] + " " + m[2])
		topic = strings.Replace(topic, m[0], "", 1)
	}

	if m := dateNumeric.FindStringSubmatch(text); m != nil {
		date = normalizeDate(m[1], m[2], m[3])
		topic = strings.Replace(topic, m[0], "", 1)
	}

	topic = cleanTopic(topic)
	if len(topic) < 2 {
		// Too little left to be meaningful; fall back to the raw query.
		topic = text
	}

	return query.NewHint(speaker, date, topic), query.AnalysisUsage{}, nil
}

func normalizeDate(year, month, day string) string {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return fmt.Sprintf("%s-%02d-%02d", year, m, d)
}

func cleanTopic(topic string) string {
	for _, re := range questionPhrases {
		topic = re.ReplaceAllString(topic, "")
	}
	return strings.Join(strings.Fields(topic), " ")
}
