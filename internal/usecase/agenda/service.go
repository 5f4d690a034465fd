// Package agenda serves the read-only agenda endpoints that sit beside
// search: detail by id, formatted detail with attachments, and the
// top-agendas listing. Straight projection over the store contract, no
// ranking involved.
package agenda

import (
	"context"
	"fmt"

	domagenda "github.com/civica-cloud/agendex/internal/domain/agenda"
)

// summaryPending fills in while the ingestion pipeline has not generated
// a summary yet.
const summaryPending = "Summary not yet available."

// Detail is the full agenda view including its transcript chunks.
type Detail struct {
	AgendaID     string      `json:"agendaId"`
	Title        string      `json:"title"`
	MeetingTitle string      `json:"meetingTitle"`
	MeetingDate  string      `json:"meetingDate"`
	MeetingURL   string      `json:"meetingUrl"`
	MainSpeaker  string      `json:"mainSpeaker"`
	AllSpeakers  string      `json:"allSpeakers"`
	SpeakerCount int         `json:"speakerCount"`
	ChunkCount   int         `json:"chunkCount"`
	CombinedText string      `json:"combinedText"`
	AISummary    string      `json:"aiSummary"`
	KeyIssues    []string    `json:"keyIssues"`
	Status       string      `json:"status"`
	Chunks       []ChunkView `json:"chunks"`
}

// ChunkView is one transcript chunk in a detail response.
type ChunkView struct {
	ChunkID  string `json:"chunkId"`
	Speaker  string `json:"speaker"`
	FullText string `json:"fullText"`
}

// FormattedDetail is the attachment-centric agenda view.
type FormattedDetail struct {
	Title        string                 `json:"agendaTitle"`
	Summary      string                 `json:"summary"`
	Attachments  []domagenda.Attachment `json:"attachments"`
	CombinedText string                 `json:"combinedText"`
}

// TopAgenda is one entry of the top-agendas listing.
type TopAgenda struct {
	AgendaID     string `json:"agendaId"`
	Title        string `json:"title"`
	MeetingTitle string `json:"meetingTitle"`
	MeetingDate  string `json:"meetingDate"`
	AISummary    string `json:"aiSummary"`
	ChunkCount   int    `json:"chunkCount"`
	MainSpeaker  string `json:"mainSpeaker"`
	Status       string `json:"status"`
}

// Service handles agenda reads.
type Service struct {
	repo Repository

	excludeTypes         []string
	excludeTitlePatterns []string
	minChunkCount        int
}

// New creates an agenda service.
func New(repo Repository) *Service {
	return &Service{
		repo:          repo,
		excludeTypes:  domagenda.ExcludedTypes,
		minChunkCount: 10,
	}
}

// WithTopFilters overrides the exclusions applied to the top listing.
func (s *Service) WithTopFilters(excludeTypes, excludeTitlePatterns []string, minChunkCount int) *Service {
	s.excludeTypes = excludeTypes
	s.excludeTitlePatterns = excludeTitlePatterns
	s.minChunkCount = minChunkCount
	return s
}

// Detail returns the agenda with its ordered chunks.
// Returns domain.ErrAgendaNotFound (wrapped) for unknown ids.
func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("agenda detail: %w", err)
	}

	chunks, err := s.repo.FindChunksByAgendaID(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("agenda chunks: %w", err)
	}

	views := make([]ChunkView, len(chunks))
	for i, c := range chunks {
		views[i] = ChunkView{ChunkID: c.ChunkID, Speaker: c.Speaker, FullText: c.FullText}
	}

	return Detail{
		AgendaID:     rec.ID(),
		Title:        rec.Title(),
		MeetingTitle: rec.MeetingTitle(),
		MeetingDate:  rec.MeetingDate(),
		MeetingURL:   rec.MeetingURL(),
		MainSpeaker:  rec.MainSpeaker(),
		AllSpeakers:  rec.AllSpeakers(),
		SpeakerCount: rec.SpeakerCount(),
		ChunkCount:   rec.ChunkCount(),
		CombinedText: rec.CombinedText(),
		AISummary:    rec.AISummary(),
		KeyIssues:    rec.KeyIssues(),
		Status:       rec.Status(),
		Chunks:       views,
	}, nil
}

// FormattedDetail returns the attachment-centric agenda view.
func (s *Service) FormattedDetail(ctx context.Context, id string) (FormattedDetail, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return FormattedDetail{}, fmt.Errorf("formatted detail: %w", err)
	}

	summary := rec.AISummary()
	if summary == "" {
		summary = summaryPending
	}

	attachments := rec.Attachments()
	if attachments == nil {
		attachments = []domagenda.Attachment{}
	}

	return FormattedDetail{
		Title:        rec.Title(),
		Summary:      summary,
		Attachments:  attachments,
		CombinedText: rec.CombinedText(),
	}, nil
}

// Top returns the most recent actively-discussed agendas.
func (s *Service) Top(ctx context.Context, limit int) ([]TopAgenda, error) {
	records, err := s.repo.FindTop(ctx, limit, s.excludeTitlePatterns, s.excludeTypes, s.minChunkCount)
	if err != nil {
		return nil, fmt.Errorf("top agendas: %w", err)
	}

	top := make([]TopAgenda, len(records))
	for i := range records {
		rec := &records[i]
		top[i] = TopAgenda{
			AgendaID:     rec.ID(),
			Title:        rec.Title(),
			MeetingTitle: rec.MeetingTitle(),
			MeetingDate:  rec.MeetingDate(),
			AISummary:    rec.AISummary(),
			ChunkCount:   rec.ChunkCount(),
			MainSpeaker:  rec.MainSpeaker(),
			Status:       rec.Status(),
		}
	}
	return top, nil
}
