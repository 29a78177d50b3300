package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to a
// local scan of the in-memory board mirror.
type Service struct {
	meili *Meili
}

// NewService creates a search service. meili may be nil when Meilisearch
// is not configured; every query then answers from the local scan.
func NewService(meili *Meili) *Service {
	return &Service{meili: meili}
}

// Search tries Meilisearch if healthy, otherwise runs the local scan.
func (s *Service) Search(q Query, scan Scanner) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to local scan: %v", err)
	}

	results := nonNil(scan(q))
	return Response{Results: results, Total: len(results), Query: q.Text}
}

// IndexCard indexes a card (fire-and-forget to Meilisearch).
func (s *Service) IndexCard(card CardRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexCard(card); err != nil {
			log.Printf("search: index card %s: %v", card.ID, err)
		}
	}()
}

// DeleteCard removes a card from the search index (fire-and-forget).
func (s *Service) DeleteCard(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteCard(id); err != nil {
			log.Printf("search: delete card %s: %v", id, err)
		}
	}()
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
