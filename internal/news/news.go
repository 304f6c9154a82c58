// Package news finds a single headline about learning and software
// development through the NewsAPI service.
package news

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no query of the plan produced an article.
	ErrNotFound = errors.New("no news found")
	// ErrNoAPIKey is returned when the client has no API key configured.
	ErrNoAPIKey = errors.New("news api key is not configured")
)

// Source identifies the publisher of an article.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is one NewsAPI result.
type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	PublishedAt string `json:"publishedAt"`
}

// Query describes one search. A query with Country or Category set goes to
// the top-headlines endpoint, any other to the full archive search.
type Query struct {
	Keywords string
	Language string
	Country  string
	Category string
	SortBy   string
	PageSize int
}

// Headlines reports whether q targets the top-headlines endpoint.
func (q Query) Headlines() bool {
	return q.Country != "" || q.Category != ""
}

// Searcher runs a single query.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Article, error)
}
