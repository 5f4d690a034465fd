// Package validator checks analyzer hints against what the chunk index
// actually contains, correcting near-miss speaker names and rejecting
// hints that can never match.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/civica-cloud/agendex/internal/domain/query"
)

const maxSuggestions = 5

// CorpusReader lists the distinct filterable values in the index.
type CorpusReader interface {
	Speakers(ctx context.Context) ([]string, error)
	Dates(ctx context.Context) ([]string, error)
}

// Validator validates hints against the indexed corpus.
type Validator struct {
	corpus CorpusReader
}

// New creates a metadata validator.
func New(corpus CorpusReader) *Validator {
	return &Validator{corpus: corpus}
}

// Validate checks each recognized hint attribute. Speakers may be
// auto-corrected to a close indexed name; dates must match exactly.
// Returns an error only when the index itself is unreachable.
func (v *Validator) Validate(ctx context.Context, hint query.Hint) (query.Verdict, error) {
	corrected := hint

	if hint.Speaker() != "" {
		speakers, err := v.corpus.Speakers(ctx)
		if err != nil {
			return query.Verdict{}, fmt.Errorf("validate speaker: %w", err)
		}

		match, ok := resolveSpeaker(hint.Speaker(), speakers)
		if !ok {
			return query.Reject(
				fmt.Sprintf("speaker %q not found in any meeting", hint.Speaker()),
				head(speakers, maxSuggestions),
			), nil
		}
		corrected = corrected.WithSpeaker(match)
	}

	if hint.Date() != "" {
		dates, err := v.corpus.Dates(ctx)
		if err != nil {
			return query.Verdict{}, fmt.Errorf("validate date: %w", err)
		}

		if !contains(dates, hint.Date()) {
			return query.Reject(
				fmt.Sprintf("no meeting on %s", hint.Date()),
				head(dates, maxSuggestions),
			), nil
		}
	}

	if corrected == hint {
		return query.Accept(nil), nil
	}
	return query.Accept(&corrected), nil
}

// resolveSpeaker matches an extracted speaker against the indexed names.
// Exact match wins; otherwise the name part must be contained in an
// indexed name, or the space-stripped forms must be equal.
func resolveSpeaker(speaker string, indexed []string) (string, bool) {
	for _, s := range indexed {
		if strings.EqualFold(speaker, s) {
			return s, true
		}
	}

	name := namePart(speaker)
	noSpace := strings.ReplaceAll(speaker, " ", "")
	for _, s := range indexed {
		// Short name parts (1 char) would match far too loosely.
		if len(name) >= 2 && strings.Contains(s, name) {
			return s, true
		}
		if strings.EqualFold(noSpace, strings.ReplaceAll(s, " ", "")) {
			return s, true
		}
	}
	return "", false
}

// titles that accompany speaker names in queries; the bare name is what
// gets matched against the index.
var titleWords = map[string]bool{
	"chair": true, "chairman": true, "chairwoman": true, "chairperson": true,
	"commissioner": true, "councilmember": true, "council": true, "member": true,
	"director": true, "deputy": true, "mayor": true, "the": true,
}

// namePart strips title words, keeping the last non-title token (names
// usually trail the title in extracted speakers).
func namePart(speaker string) string {
	parts := strings.Fields(speaker)
	for i := len(parts) - 1; i >= 0; i-- {
		if !titleWords[strings.ToLower(strings.Trim(parts[i], ","))] {
			return strings.Trim(parts[i], ",")
		}
	}
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return speaker
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func head(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	return values
}
