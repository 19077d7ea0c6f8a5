// Package search finds past shortage reports by branch, operator, or
// item text. Meilisearch serves queries when reachable; PostgreSQL
// full-text search covers for it otherwise.
package search

// Result is a single report hit returned to the caller.
type Result struct {
	ID         string `json:"id"`
	BranchName string `json:"branchName"`
	EnteredBy  string `json:"enteredBy"`
	Date       string `json:"date"`
	Snippet    string `json:"snippet"`
}

// Query describes a search request. OwnerID scopes hits to the caller's
// own reports when set.
type Query struct {
	Text    string
	OwnerID string
	Limit   int
	Offset  int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over reports.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// DraftRecord is the data indexed for one report draft. Items is the
// concatenated item names of filled rows.
type DraftRecord struct {
	ID         string `json:"id"`
	OwnerID    string `json:"ownerId"`
	BranchName string `json:"branchName"`
	EnteredBy  string `json:"enteredBy"`
	Date       string `json:"date"`
	Items      string `json:"items"`
}
