package app

import (
	"strings"

	"corkboard/api/internal/board"
	"corkboard/api/internal/search"
)

// SearchCards searches the session's cards. The query is answered by the
// search index when it is healthy and by a scan of the local mirror
// otherwise.
func (s *Service) SearchCards(sess *Session, text string, limit int) search.Response {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := search.Query{Text: text, Limit: limit}
	if current := sess.Board.Current(); current != nil {
		query.WorkspaceUID = current.UID
	}

	scan := func(q search.Query) []search.Result {
		return scanBoard(sess.Board.List(), q)
	}
	if s.search == nil {
		results := scan(query)
		return search.Response{Results: results, Total: len(results), Query: text}
	}
	return s.search.Search(query, scan)
}

// scanBoard is the fallback matcher: a case-insensitive substring scan
// over card names and descriptions in the local mirror.
func scanBoard(list []*board.Workspace, q search.Query) []search.Result {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return nil
	}

	var results []search.Result
	for _, workspace := range list {
		if q.WorkspaceUID != "" && workspace.UID != q.WorkspaceUID {
			continue
		}
		for _, column := range workspace.Columns {
			for _, card := range column.Cards {
				if len(results) >= q.Limit {
					return results
				}
				name := card.Properties.Name
				description := card.Properties.Description
				if !strings.Contains(strings.ToLower(name), needle) &&
					!strings.Contains(strings.ToLower(description), needle) {
					continue
				}
				snippet := description
				if snippet == "" {
					snippet = name
				}
				results = append(results, search.Result{
					CardUID:      card.UID,
					WorkspaceUID: workspace.UID,
					ColumnUID:    column.UID,
					ColumnName:   column.Properties.Name,
					Name:         name,
					Snippet:      snippet,
				})
			}
		}
	}
	return results
}
