// Package search implements the retrieval-and-ranking pipeline: analyze
// the query, drive the similarity index, aggregate chunk hits into
// agenda scores, resolve the winners against the structured store and
// produce a deterministically ordered result set.
package search

import (
	"context"
	"sort"

	"go.uber.org/zap"

	domagenda "github.com/civica-cloud/agendex/internal/domain/agenda"
	"github.com/civica-cloud/agendex/internal/domain/query"
	domsearch "github.com/civica-cloud/agendex/internal/domain/search"
	"github.com/civica-cloud/agendex/internal/logger"
	"github.com/civica-cloud/agendex/internal/usecase/usage"
)

// DefaultResults is the result count used when the caller does not ask
// for a specific one.
const DefaultResults = 5

// maxCandidateChunks caps the chunk over-fetch regardless of n.
const maxCandidateChunks = 20

// placeholderTitle fills in for agenda records ingested without a title.
const placeholderTitle = "Untitled agenda"

// Service coordinates the search pipeline.
type Service struct {
	index     ChunkSearcher
	agendas   AgendaReader
	analyzer  Analyzer
	validator Validator // nil disables hint validation
	recorder  usage.Recorder

	excludeTypes  []string
	summaryBudget int
}

// New creates the search pipeline. validator may be nil; recorder may be
// usage.Nop{} when tracking is disabled.
func New(
	index ChunkSearcher, agendas AgendaReader,
	analyzer Analyzer, validator Validator, recorder usage.Recorder,
) *Service {
	return &Service{
		index:         index,
		agendas:       agendas,
		analyzer:      analyzer,
		validator:     validator,
		recorder:      recorder,
		excludeTypes:  domagenda.ExcludedTypes,
		summaryBudget: 200,
	}
}

// WithExcludedTypes overrides the agenda types hidden from results.
func (s *Service) WithExcludedTypes(types []string) *Service {
	s.excludeTypes = types
	return s
}

// WithSummaryBudget overrides the character budget for derived summaries.
func (s *Service) WithSummaryBudget(budget int) *Service {
	s.summaryBudget = budget
	return s
}

// Search runs the pipeline for one request. Analysis and validation
// failures never abort the request; only index or store unavailability
// surfaces as an error. The returned list holds at most n results but
// may be shorter: candidates are selected before type exclusion and
// excluded ones are not backfilled.
func (s *Service) Search(ctx context.Context, rawQuery string, n int) ([]domsearch.Result, error) {
	if n < 1 {
		n = DefaultResults
	}

	log := logger.FromContext(ctx)
	event := usage.NewEvent()
	event.QueryLen = len(rawQuery)

	// Step 1: analyze, falling back to an empty hint on internal failure.
	hint, analysisUsage, err := s.analyzer.Analyze(ctx, rawQuery)
	event.AnalyzerModel = analysisUsage.Model
	event.AnalyzerTokens = analysisUsage.Tokens
	if err != nil {
		log.Warn("query analysis failed, using empty hint", zap.Error(err))
		hint = query.Hint{}
		event.AnalyzerFallback = true
	}

	// Step 2: validate and build the metadata filter. An invalid hint
	// short-circuits to an empty result without touching either store.
	var filter domsearch.Filter
	if s.validator != nil {
		verdict, err := s.validator.Validate(ctx, hint)
		switch {
		case err != nil:
			// Validator unavailability degrades to an unvalidated filter.
			log.Warn("hint validation unavailable, proceeding unvalidated", zap.Error(err))
			filter = domsearch.FilterFromHint(hint)
		case !verdict.Valid():
			log.Info("hint rejected by validator",
				zap.String("reason", verdict.Reason()),
				zap.Strings("suggestions", verdict.Suggestions()),
			)
			event.HintRejected = true
			s.recorder.Record(event)
			return []domsearch.Result{}, nil
		default:
			effective := hint
			if corrected := verdict.Corrected(); corrected != nil {
				effective = *corrected
			}
			filter = domsearch.FilterFromHint(effective)
		}
	}

	// Step 3: over-fetch chunks; hits map many-to-few onto agendas, so an
	// exact n-sized fetch would under-fill the agenda set.
	topK := min(maxCandidateChunks, n*4)
	hits, indexUsage, err := s.index.Search(ctx, rawQuery, topK, filter)
	if err != nil {
		return nil, err
	}
	event.ChunksFetched = len(hits)
	event.EmbeddingModel = indexUsage.EmbeddingModel
	event.EmbeddingTokens = indexUsage.EmbeddingTokens

	// Steps 4-6: group by agenda keeping the max similarity per agenda,
	// in first-discovery order for a deterministic tie-break.
	board := domsearch.NewScoreboard()
	for _, hit := range hits {
		board.Observe(hit)
	}

	// Step 7: the top n agendas are fixed here, before type exclusion.
	candidates := board.Top(n)

	// Step 8: resolve records; the store drops excluded types and any id
	// it no longer knows (the index may run ahead of the store).
	records, err := s.agendas.FindByIDs(ctx, candidates, s.excludeTypes)
	if err != nil {
		return nil, err
	}

	// Step 9: merge scores into the formatted projection.
	results := make([]domsearch.Result, 0, len(records))
	for i := range records {
		results = append(results, s.format(&records[i], board.Score(records[i].ID())))
	}

	// Step 10: the store does not preserve candidate order; re-sort with
	// the same stable tie-break as the ranking pass.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return board.DiscoveryRank(results[i].AgendaID) < board.DiscoveryRank(results[j].AgendaID)
	})

	// Step 11: best-effort usage event.
	s.recorder.Record(event)

	return results, nil
}

// format projects a record and its aggregated similarity into the
// response shape.
func (s *Service) format(rec *domagenda.Record, similarity float64) domsearch.Result {
	title := rec.Title()
	if title == "" {
		title = placeholderTitle
	}

	summary := rec.AISummary()
	if summary == "" {
		summary = truncate(rec.CombinedText(), s.summaryBudget)
	}

	return domsearch.Result{
		AgendaID:     rec.ID(),
		Title:        title,
		AISummary:    summary,
		KeyIssues:    rec.KeyIssues(),
		MainSpeaker:  rec.MainSpeaker(),
		AllSpeakers:  rec.AllSpeakers(),
		SpeakerCount: rec.SpeakerCount(),
		MeetingDate:  rec.MeetingDate(),
		MeetingTitle: rec.MeetingTitle(),
		Status:       rec.Status(),
		Similarity:   domsearch.RoundSimilarity(similarity),
		ChunkCount:   rec.ChunkCount(),
		MeetingURL:   rec.MeetingURL(),
	}
}

// truncate cuts text to at most budget runes, appending an ellipsis
// marker when anything was cut.
func truncate(text string, budget int) string {
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget]) + "..."
}
