// Package agenda implements the structured-store client over SQLite.
// Pure data access; type exclusion and title-pattern exclusion are
// applied server-side in SQL, ranking policy lives in the usecases.
package agenda

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/civica-cloud/agendex/internal/domain"
	domagenda "github.com/civica-cloud/agendex/internal/domain/agenda"
)

//go:embed schema.sql
var schemaSQL string

const recordColumns = `agenda_id, agenda_title, meeting_title, meeting_date,
	meeting_url, main_speaker, all_speakers, speaker_count, chunk_count,
	combined_text, ai_summary, key_issues, attachments, agenda_type, status`

// Repo is the SQLite-backed agenda repository.
type Repo struct {
	db *sql.DB
}

// Open opens (creating if needed) the agenda database at path and applies
// the schema. Use ":memory:" for an in-process throwaway store.
func Open(path string) (*Repo, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open agenda db: %w", err)
	}

	// WAL allows concurrent readers while the ingest writer is active.
	// busy_timeout reduces SQLITE_BUSY errors under contention.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repo{db: sqlDB}, nil
}

// Close closes the underlying database handle.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks store connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping agenda db: %w", err)
	}
	return nil
}

// FindByID returns the agenda record for id, or domain.ErrAgendaNotFound.
func (r *Repo) FindByID(ctx context.Context, id string) (domagenda.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM agendas WHERE agenda_id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domagenda.Record{}, fmt.Errorf("agenda %s: %w", id, domain.ErrAgendaNotFound)
	}
	if err != nil {
		return domagenda.Record{}, storeErr(err)
	}
	return rec, nil
}

// FindByIDs returns the records for the given ids, excluding the listed
// agenda types server-side. Result order is not guaranteed. Missing ids
// silently drop out: the chunk index may be ahead of this store.
func (r *Repo) FindByIDs(
	ctx context.Context, ids []string, excludeTypes []string,
) ([]domagenda.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+len(excludeTypes))
	for _, id := range ids {
		args = append(args, id)
	}

	where := fmt.Sprintf("agenda_id IN (%s)", placeholders(len(ids)))
	if len(excludeTypes) > 0 {
		where += fmt.Sprintf(" AND agenda_type NOT IN (%s)", placeholders(len(excludeTypes)))
		for _, t := range excludeTypes {
			args = append(args, t)
		}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM agendas WHERE `+where, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FindTop returns the most recent actively-discussed agendas: newest
// meeting date first, then highest chunk count, skipping excluded title
// patterns and agenda types and anything with fewer than minChunkCount
// chunks.
func (r *Repo) FindTop(
	ctx context.Context, limit int, excludeTitlePatterns, excludeTypes []string, minChunkCount int,
) ([]domagenda.Record, error) {
	var conds []string
	var args []any

	for _, pattern := range excludeTitlePatterns {
		conds = append(conds, "agenda_title NOT LIKE ?")
		args = append(args, pattern)
	}
	conds = append(conds, "chunk_count >= ?")
	args = append(args, minChunkCount)

	if len(excludeTypes) > 0 {
		conds = append(conds, fmt.Sprintf("agenda_type NOT IN (%s)", placeholders(len(excludeTypes))))
		for _, t := range excludeTypes {
			args = append(args, t)
		}
	}

	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM agendas
		WHERE `+strings.Join(conds, " AND ")+`
		ORDER BY meeting_date DESC, chunk_count DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FindAll lists agendas newest-first. limit <= 0 means no limit.
func (r *Repo) FindAll(ctx context.Context, limit int) ([]domagenda.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM agendas ORDER BY meeting_date DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FindChunksByAgendaID returns the agenda's chunks in transcript order.
func (r *Repo) FindChunksByAgendaID(ctx context.Context, id string) ([]domagenda.Chunk, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chunk_id, speaker, full_text, chunk_index
		FROM agenda_chunks WHERE agenda_id = ? ORDER BY chunk_index`, id)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var chunks []domagenda.Chunk
	for rows.Next() {
		var c domagenda.Chunk
		if err := rows.Scan(&c.ChunkID, &c.Speaker, &c.FullText, &c.Index); err != nil {
			return nil, storeErr(err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return chunks, nil
}

// UpsertRecord writes an agenda record (ingest path).
func (r *Repo) UpsertRecord(ctx context.Context, f domagenda.Fields) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agendas (
			agenda_id, agenda_title, meeting_title, meeting_date, meeting_url,
			main_speaker, all_speakers, speaker_count, chunk_count,
			combined_text, ai_summary, key_issues, attachments, agenda_type, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agenda_id) DO UPDATE SET
			agenda_title = excluded.agenda_title,
			meeting_title = excluded.meeting_title,
			meeting_date = excluded.meeting_date,
			meeting_url = excluded.meeting_url,
			main_speaker = excluded.main_speaker,
			all_speakers = excluded.all_speakers,
			speaker_count = excluded.speaker_count,
			chunk_count = excluded.chunk_count,
			combined_text = excluded.combined_text,
			ai_summary = excluded.ai_summary,
			key_issues = excluded.key_issues,
			attachments = excluded.attachments,
			agenda_type = excluded.agenda_type,
			status = excluded.status`,
		f.ID, f.Title, f.MeetingTitle, f.MeetingDate, f.MeetingURL,
		f.MainSpeaker, f.AllSpeakers, f.SpeakerCount, f.ChunkCount,
		f.CombinedText, f.AISummary, f.KeyIssuesJSON, f.AttachmentsJSON,
		f.AgendaType, f.Status)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// UpsertChunk writes a transcript chunk (ingest path).
func (r *Repo) UpsertChunk(ctx context.Context, agendaID string, c domagenda.Chunk) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agenda_chunks (chunk_id, agenda_id, speaker, full_text, chunk_index)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			agenda_id = excluded.agenda_id,
			speaker = excluded.speaker,
			full_text = excluded.full_text,
			chunk_index = excluded.chunk_index`,
		c.ChunkID, agendaID, c.Speaker, c.FullText, c.Index)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (domagenda.Record, error) {
	var f domagenda.Fields
	err := s.Scan(
		&f.ID, &f.Title, &f.MeetingTitle, &f.MeetingDate, &f.MeetingURL,
		&f.MainSpeaker, &f.AllSpeakers, &f.SpeakerCount, &f.ChunkCount,
		&f.CombinedText, &f.AISummary, &f.KeyIssuesJSON, &f.AttachmentsJSON,
		&f.AgendaType, &f.Status,
	)
	if err != nil {
		return domagenda.Record{}, err
	}
	return domagenda.Reconstruct(f), nil
}

func collectRecords(rows *sql.Rows) ([]domagenda.Record, error) {
	var records []domagenda.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return records, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
