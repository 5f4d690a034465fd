// Package agenda holds the agenda aggregate owned by the structured
// store. Records are written by the ingestion pipeline and read-only for
// the search path.
package agenda

import "encoding/json"

// Types that never appear in end-user search results. Purely procedural
// items (opening/closing), free-floor discussion and uncategorized rows
// carry no substantive agenda content.
var ExcludedTypes = []string{"procedural", "discussion", "other"}

// Record is a single deliberated agenda item (immutable value object).
type Record struct {
	id              string
	title           string
	meetingTitle    string
	meetingDate     string
	meetingURL      string
	mainSpeaker     string
	allSpeakers     string
	speakerCount    int
	chunkCount      int
	combinedText    string
	aiSummary       string
	keyIssuesJSON   string
	attachmentsJSON string
	agendaType      string
	status          string
}

// Fields carries the column values needed to hydrate a Record.
type Fields struct {
	ID              string
	Title           string
	MeetingTitle    string
	MeetingDate     string
	MeetingURL      string
	MainSpeaker     string
	AllSpeakers     string
	SpeakerCount    int
	ChunkCount      int
	CombinedText    string
	AISummary       string
	KeyIssuesJSON   string
	AttachmentsJSON string
	AgendaType      string
	Status          string
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(f Fields) Record {
	return Record{
		id:              f.ID,
		title:           f.Title,
		meetingTitle:    f.MeetingTitle,
		meetingDate:     f.MeetingDate,
		meetingURL:      f.MeetingURL,
		mainSpeaker:     f.MainSpeaker,
		allSpeakers:     f.AllSpeakers,
		speakerCount:    f.SpeakerCount,
		chunkCount:      f.ChunkCount,
		combinedText:    f.CombinedText,
		aiSummary:       f.AISummary,
		keyIssuesJSON:   f.KeyIssuesJSON,
		attachmentsJSON: f.AttachmentsJSON,
		agendaType:      f.AgendaType,
		status:          f.Status,
	}
}

// ID returns the agenda identifier.
func (r *Record) ID() string { return r.id }

// Title returns the agenda title.
func (r *Record) Title() string { return r.title }

// MeetingTitle returns the owning meeting title.
func (r *Record) MeetingTitle() string { return r.meetingTitle }

// MeetingDate returns the meeting date (YYYY-MM-DD).
func (r *Record) MeetingDate() string { return r.meetingDate }

// MeetingURL returns the public URL of the meeting record.
func (r *Record) MeetingURL() string { return r.meetingURL }

// MainSpeaker returns the speaker with the most chunks.
func (r *Record) MainSpeaker() string { return r.mainSpeaker }

// AllSpeakers returns the comma-joined speaker list.
func (r *Record) AllSpeakers() string { return r.allSpeakers }

// SpeakerCount returns the number of distinct speakers.
func (r *Record) SpeakerCount() int { return r.speakerCount }

// ChunkCount returns the number of transcript chunks.
func (r *Record) ChunkCount() int { return r.chunkCount }

// CombinedText returns the full concatenated transcript text.
func (r *Record) CombinedText() string { return r.combinedText }

// AISummary returns the generated summary, or "" when none exists yet.
func (r *Record) AISummary() string { return r.aiSummary }

// AgendaType returns the categorical type tag.
func (r *Record) AgendaType() string { return r.agendaType }

// Status returns the deliberation status tag.
func (r *Record) Status() string { return r.status }

// KeyIssues parses the key_issues JSON column. Malformed or absent
// payloads yield nil rather than an error.
func (r *Record) KeyIssues() []string {
	var issues []string
	if err := json.Unmarshal([]byte(r.keyIssuesJSON), &issues); err != nil {
		return nil
	}
	return issues
}

// Attachment is a document attached to an agenda item.
type Attachment struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Attachments parses the attachments JSON column. Malformed or absent
// payloads yield nil rather than an error.
func (r *Record) Attachments() []Attachment {
	var atts []Attachment
	if err := json.Unmarshal([]byte(r.attachmentsJSON), &atts); err != nil {
		return nil
	}
	return atts
}

// Chunk is a contiguous span of transcript text from one speaker within
// one agenda item.
type Chunk struct {
	ChunkID  string
	Speaker  string
	FullText string
	Index    int
}
