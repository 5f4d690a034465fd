package search

import "math"

// Result is the per-request projection of an agenda record merged with
// its aggregated similarity. Never persisted.
type Result struct {
	AgendaID     string   `json:"agendaId"`
	Title        string   `json:"title"`
	AISummary    string   `json:"aiSummary"`
	KeyIssues    []string `json:"keyIssues"`
	MainSpeaker  string   `json:"mainSpeaker"`
	AllSpeakers  string   `json:"allSpeakers"`
	SpeakerCount int      `json:"speakerCount"`
	MeetingDate  string   `json:"meetingDate"`
	MeetingTitle string   `json:"meetingTitle"`
	Status       string   `json:"status"`
	Similarity   float64  `json:"similarity"`
	ChunkCount   int      `json:"chunkCount"`
	MeetingURL   string   `json:"meetingUrl"`
}

// RoundSimilarity rounds a similarity value to 4 decimal places, the
// precision returned to callers.
func RoundSimilarity(v float64) float64 {
	return math.Round(v*10000) / 10000
}
