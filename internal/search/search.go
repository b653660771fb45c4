// Package search ranks documents against free-text queries. The local
// ranker is deterministic substring scoring; Meilisearch, when configured
// and healthy, serves queries first with the ranker as fallback.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text  string
	Limit int
}

// Response is the envelope returned to callers.
type Response struct {
	Results []Result `json:"results"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, error)
	Healthy() bool
}

// Record is the data indexed per document: scalar fields plus the body
// rendered to plain text.
type Record struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Slug       string   `json:"slug"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	BodyText   string   `json:"bodyText"`
}
