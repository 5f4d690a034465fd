// Ingests a JSON fixture of meeting agendas into the structured store
// and the chunk index. Each agenda row is upserted into SQLite, then
// every transcript chunk is embedded and written into Redis under the
// configured key prefix.
//
// Usage:
//
//	agendex-ingest -file agendas.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/civica-cloud/agendex/internal/config"
	dbRedis "github.com/civica-cloud/agendex/internal/db/redis"
	domagenda "github.com/civica-cloud/agendex/internal/domain/agenda"
	logpkg "github.com/civica-cloud/agendex/internal/logger"
	agendarepo "github.com/civica-cloud/agendex/internal/repository/agenda"
	"github.com/civica-cloud/agendex/internal/repository/chunkindex"
	openaiEmb "github.com/civica-cloud/agendex/internal/transport/openai"
)

// fixtureAgenda mirrors one agenda entry in the ingest file.
type fixtureAgenda struct {
	AgendaID     string          `json:"agendaId"`
	Title        string          `json:"title"`
	MeetingTitle string          `json:"meetingTitle"`
	MeetingDate  string          `json:"meetingDate"`
	MeetingURL   string          `json:"meetingUrl"`
	MainSpeaker  string          `json:"mainSpeaker"`
	AllSpeakers  string          `json:"allSpeakers"`
	SpeakerCount int             `json:"speakerCount"`
	CombinedText string          `json:"combinedText"`
	AISummary    string          `json:"aiSummary"`
	KeyIssues    json.RawMessage `json:"keyIssues"`
	Attachments  json.RawMessage `json:"attachments"`
	AgendaType   string          `json:"agendaType"`
	Status       string          `json:"status"`
	Chunks       []fixtureChunk  `json:"chunks"`
}

type fixtureChunk struct {
	ChunkID  string `json:"chunkId"`
	Speaker  string `json:"speaker"`
	FullText string `json:"fullText"`
}

func main() {
	file := flag.String("file", "", "path to the agendas JSON fixture")
	skipIndex := flag.Bool("skip-index", false, "write the structured store only, no embedding")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: agendex-ingest -file agendas.json [-skip-index]")
		os.Exit(2)
	}

	if err := run(*file, *skipIndex); err != nil {
		fmt.Fprintln(os.Stderr, "ingest failed:", err)
		os.Exit(1)
	}
}

func run(file string, skipIndex bool) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	agendas, err := loadFixture(file)
	if err != nil {
		return err
	}
	logger.Info("Loaded fixture", zap.String("file", file), zap.Int("agendas", len(agendas)))

	repo, err := agendarepo.Open(cfg.AgendaStore.Path)
	if err != nil {
		return fmt.Errorf("open agenda store: %w", err)
	}
	defer repo.Close()

	ctx := context.Background()

	var index *chunkindex.Repo
	if !skipIndex {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.ChunkIndex.Addrs,
			Password: cfg.ChunkIndex.Password,
		})
		if err != nil {
			return fmt.Errorf("create chunk index store: %w", err)
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.ChunkIndex.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("chunk index not ready: %w", err)
		}

		embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})

		index = chunkindex.New(store, embedder, cfg.ChunkIndex.IndexName, cfg.ChunkIndex.KeyPrefix).
			WithHNSW(chunkindex.HNSWConfig{
				M:           cfg.ChunkIndex.HNSWM,
				EFConstruct: cfg.ChunkIndex.HNSWEFConstruct,
			})
		if err := index.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}

	indexed := 0
	for _, a := range agendas {
		if err := repo.UpsertRecord(ctx, domagenda.Fields{
			ID:              a.AgendaID,
			Title:           a.Title,
			MeetingTitle:    a.MeetingTitle,
			MeetingDate:     a.MeetingDate,
			MeetingURL:      a.MeetingURL,
			MainSpeaker:     a.MainSpeaker,
			AllSpeakers:     a.AllSpeakers,
			SpeakerCount:    a.SpeakerCount,
			ChunkCount:      len(a.Chunks),
			CombinedText:    a.CombinedText,
			AISummary:       a.AISummary,
			KeyIssuesJSON:   string(a.KeyIssues),
			AttachmentsJSON: string(a.Attachments),
			AgendaType:      a.AgendaType,
			Status:          a.Status,
		}); err != nil {
			return fmt.Errorf("upsert agenda %s: %w", a.AgendaID, err)
		}

		for i, c := range a.Chunks {
			if err := repo.UpsertChunk(ctx, a.AgendaID, domagenda.Chunk{
				ChunkID:  c.ChunkID,
				Speaker:  c.Speaker,
				FullText: c.FullText,
				Index:    i,
			}); err != nil {
				return fmt.Errorf("upsert chunk %s: %w", c.ChunkID, err)
			}

			if index == nil {
				continue
			}
			if err := index.IndexChunk(ctx, c.ChunkID, a.AgendaID, c.Speaker, a.MeetingDate, c.FullText); err != nil {
				return fmt.Errorf("index chunk %s: %w", c.ChunkID, err)
			}
			indexed++
		}

		logger.Info("Ingested agenda",
			zap.String("agenda_id", a.AgendaID),
			zap.Int("chunks", len(a.Chunks)),
		)
	}

	logger.Info("Ingest complete",
		zap.Int("agendas", len(agendas)),
		zap.Int("chunks_indexed", indexed),
	)
	return nil
}

func loadFixture(file string) ([]fixtureAgenda, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var agendas []fixtureAgenda
	if err := json.Unmarshal(data, &agendas); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return agendas, nil
}
