package review

import (
	"sort"
	"time"
)

// TitleCount is one entry of the title frequency table.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// Stats are derived views over the cached rows; nothing here is stored.
type Stats struct {
	Total       int          `json:"total"`
	Today       int          `json:"today"`
	LastRefresh time.Time    `json:"last_refresh"`
	ByTitle     []TitleCount `json:"by_title"`
}

// Stats computes the dashboard counters: total rows, rows created on the
// current local calendar day, and the title frequency table with
// "Not specified" standing in for absent titles, sorted by count
// descending (title ascending as tiebreak for determinism).
func (s *Session) Stats() Stats {
	s.mu.Lock()
	rows := s.rows
	lastRefresh := s.lastRefresh
	s.mu.Unlock()

	now := time.Now()
	counts := make(map[string]int)
	today := 0
	for _, r := range rows {
		title := r.Title
		if title == "" {
			title = "Not specified"
		}
		counts[title]++
		if sameLocalDay(r.CreatedAt, now) {
			today++
		}
	}

	byTitle := make([]TitleCount, 0, len(counts))
	for title, count := range counts {
		byTitle = append(byTitle, TitleCount{Title: title, Count: count})
	}
	sort.Slice(byTitle, func(i, j int) bool {
		if byTitle[i].Count != byTitle[j].Count {
			return byTitle[i].Count > byTitle[j].Count
		}
		return byTitle[i].Title < byTitle[j].Title
	})

	return Stats{
		Total:       len(rows),
		Today:       today,
		LastRefresh: lastRefresh,
		ByTitle:     byTitle,
	}
}

func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
