// Package search provides best-effort full-text search over cards. Index
// writes never block or fail a board action; when Meilisearch is down the
// service answers from a caller-supplied local scan instead.
package search

// CardRecord is the data indexed for one card.
type CardRecord struct {
	ID           string `json:"id"`
	WorkspaceUID string `json:"workspaceUid"`
	ColumnUID    string `json:"columnUid"`
	ColumnName   string `json:"columnName"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}

// Result is a single search hit.
type Result struct {
	CardUID      string `json:"cardUid"`
	WorkspaceUID string `json:"workspaceUid"`
	ColumnUID    string `json:"columnUid"`
	ColumnName   string `json:"columnName"`
	Name         string `json:"name"`
	Snippet      string `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text         string
	WorkspaceUID string // empty = all workspaces
	Limit        int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text card search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push cards into a search index.
type Indexer interface {
	IndexCard(card CardRecord) error
	DeleteCard(id string) error
}

// Scanner answers a query from local state when the index is unavailable.
type Scanner func(q Query) []Result
