package search

import "sort"

// Scoreboard aggregates chunk-level hits into per-agenda similarity
// scores. Each agenda keeps the maximum similarity across its hits, and
// first-discovery order is preserved so equal scores rank
// deterministically instead of following map iteration order.
type Scoreboard struct {
	scores map[string]float64
	order  []string
}

// NewScoreboard creates an empty scoreboard.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{scores: make(map[string]float64)}
}

// Observe records a hit. Hits without an agenda id are discarded. The
// first hit for an agenda initializes its score; later hits only raise it.
func (b *Scoreboard) Observe(hit ChunkHit) {
	id := hit.AgendaID()
	if id == "" {
		return
	}
	sim := hit.Similarity()
	current, seen := b.scores[id]
	if !seen {
		b.scores[id] = sim
		b.order = append(b.order, id)
		return
	}
	if sim > current {
		b.scores[id] = sim
	}
}

// Score returns the aggregated similarity for an agenda, or 0 if the
// agenda was never observed.
func (b *Scoreboard) Score(agendaID string) float64 {
	return b.scores[agendaID]
}

// Len returns the number of distinct agendas observed.
func (b *Scoreboard) Len() int { return len(b.order) }

// Ranked returns agenda ids sorted by similarity descending. Ties keep
// discovery order (stable sort over the discovery-ordered slice).
func (b *Scoreboard) Ranked() []string {
	ranked := make([]string, len(b.order))
	copy(ranked, b.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return b.scores[ranked[i]] > b.scores[ranked[j]]
	})
	return ranked
}

// Top returns the first n ranked agenda ids (fewer if the board is
// smaller).
func (b *Scoreboard) Top(n int) []string {
	ranked := b.Ranked()
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// DiscoveryRank returns the position at which the agenda was first
// observed. Unknown agendas sort last.
func (b *Scoreboard) DiscoveryRank(agendaID string) int {
	for i, id := range b.order {
		if id == agendaID {
			return i
		}
	}
	return len(b.order)
}
