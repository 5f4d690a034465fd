// Package search holds the types flowing through the agenda search
// pipeline: metadata filters, chunk-level hits, the agenda scoreboard and
// the formatted per-request result.
package search

import "github.com/civica-cloud/agendex/internal/domain/query"

// Condition is a single equality clause on a chunk metadata field.
type Condition struct {
	field string
	value string
}

// NewCondition creates an equality condition.
func NewCondition(field, value string) Condition {
	return Condition{field: field, value: value}
}

// Field returns the metadata field name.
func (c Condition) Field() string { return c.field }

// Value returns the required value.
func (c Condition) Value() string { return c.value }

// Metadata field names indexed alongside every chunk.
const (
	FieldSpeaker     = "speaker"
	FieldMeetingDate = "meeting_date"
	FieldAgendaID    = "agenda_id"
)

// Filter is an ordered conjunction of equality conditions. One condition
// stands alone; several are combined with logical AND. An empty filter
// means an unrestricted search.
type Filter struct {
	conditions []Condition
}

// FilterFromHint builds a filter from the recognized hint attributes, in a
// fixed order (speaker, then date) so filter construction is deterministic.
func FilterFromHint(h query.Hint) Filter {
	var conds []Condition
	if h.Speaker() != "" {
		conds = append(conds, NewCondition(FieldSpeaker, h.Speaker()))
	}
	if h.Date() != "" {
		conds = append(conds, NewCondition(FieldMeetingDate, h.Date()))
	}
	return Filter{conditions: conds}
}

// Conditions returns the equality conditions in construction order.
func (f Filter) Conditions() []Condition { return f.conditions }

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool { return len(f.conditions) == 0 }
