// Package query holds the structured hint extracted from free-text queries
// and the validator's verdict on it.
package query

// Hint is the structured guess at filterable attributes extracted from a
// user query. Zero value means "no hints": an unrestricted search.
type Hint struct {
	speaker string
	date    string
	topic   string
}

// NewHint creates a hint. Empty speaker/date mean the attribute was not
// recognized in the query.
func NewHint(speaker, date, topic string) Hint {
	return Hint{speaker: speaker, date: date, topic: topic}
}

// Speaker returns the recognized speaker name, or "" if none.
func (h Hint) Speaker() string { return h.speaker }

// Date returns the recognized meeting date (YYYY-MM-DD), or "" if none.
func (h Hint) Date() string { return h.date }

// Topic returns the free-form topic text.
func (h Hint) Topic() string { return h.topic }

// HasFilterable reports whether the hint carries any attribute usable as a
// metadata filter.
func (h Hint) HasFilterable() bool { return h.speaker != "" || h.date != "" }

// WithSpeaker returns a copy of the hint with the speaker replaced.
func (h Hint) WithSpeaker(speaker string) Hint {
	h.speaker = speaker
	return h
}

// WithDate returns a copy of the hint with the date replaced.
func (h Hint) WithDate(date string) Hint {
	h.date = date
	return h
}

// AnalysisUsage reports provider token spend for one analysis call.
// Zero value for analyzers that run locally.
type AnalysisUsage struct {
	Model  string
	Tokens int
}

// Verdict is the metadata validator's decision on a hint.
type Verdict struct {
	valid       bool
	corrected   *Hint
	reason      string
	suggestions []string
}

// Accept creates a passing verdict. corrected may be nil when the original
// hint needs no correction.
func Accept(corrected *Hint) Verdict {
	return Verdict{valid: true, corrected: corrected}
}

// Reject creates a failing verdict with a human-readable reason and
// optional suggestions for the caller to surface.
func Reject(reason string, suggestions []string) Verdict {
	return Verdict{reason: reason, suggestions: suggestions}
}

// Valid reports whether the hint passed validation.
func (v Verdict) Valid() bool { return v.valid }

// Corrected returns the corrected hint, or nil if no correction was made.
func (v Verdict) Corrected() *Hint { return v.corrected }

// Reason returns the rejection reason.
func (v Verdict) Reason() string { return v.reason }

// Suggestions returns alternative values the validator found close to the
// rejected attribute.
func (v Verdict) Suggestions() []string { return v.suggestions }
