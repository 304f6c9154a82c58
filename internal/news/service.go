package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/commitly/commitlybot/internal/logger"
)

const (
	ruKeywords = "обучение разработчиков OR обучение программированию OR разработка программного обеспечения"
	enKeywords = "software development OR developer training OR programming education"
	euKeywords = "(" + enKeywords + ") AND (Europe OR EU)"

	// NoSummary replaces an article without description or content.
	NoSummary = "Без краткого описания. Перейдите к источнику для деталей."

	removedTitle = "[Removed]"
)

// Regions lists the supported region codes.
var Regions = []string{"ru", "us", "eu"}

// ValidRegion reports whether code is a supported region.
func ValidRegion(code string) bool {
	return slices.Contains(Regions, code)
}

// Headline is the article picked for a /news reply.
type Headline struct {
	Title   string
	Summary string
	URL     string
	Source  string
}

// Text renders the headline as a plain-text reply.
func (h Headline) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n%s", h.Title, h.Summary)
	if h.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(h.URL)
	}
	return b.String()
}

// Service turns a topic and region into a query plan and picks the first
// article any query of the plan returns.
type Service struct {
	searcher Searcher
	pageSize int
	log      *slog.Logger
}

// NewService creates a Service over searcher.
func NewService(searcher Searcher, pageSize int, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		searcher: searcher,
		pageSize: pageSize,
		log:      log.With("component", "news"),
	}
}

// Plan returns the queries tried for topic in region, in order. An empty
// topic means the default learning and development keywords. Every plan
// ends with the English archive search.
func (s *Service) Plan(topic, region string) []Query {
	topic = strings.TrimSpace(topic)
	pick := func(def string) string {
		if topic != "" {
			return topic
		}
		return def
	}

	fallback := Query{Keywords: pick(enKeywords), Language: "en", SortBy: "publishedAt", PageSize: s.pageSize}

	var plan []Query
	switch region {
	case "us":
		q := Query{Country: "us", Category: "technology", PageSize: s.pageSize}
		if topic != "" {
			q.Keywords = topic
		}
		plan = append(plan, q)
	case "eu":
		kw := euKeywords
		if topic != "" {
			kw = "(" + topic + ") AND (Europe OR EU)"
		}
		plan = append(plan, Query{Keywords: kw, Language: "en", SortBy: "publishedAt", PageSize: s.pageSize})
	default:
		plan = append(plan, Query{Keywords: pick(ruKeywords), Language: "ru", SortBy: "publishedAt", PageSize: s.pageSize})
	}
	return append(plan, fallback)
}

// Headline runs the plan for topic and region. It returns ErrNoAPIKey when
// the client is not configured and ErrNotFound when every query failed or
// came back empty.
func (s *Service) Headline(ctx context.Context, topic, region string) (Headline, error) {
	log := s.log.With("topic", topic, "region", region)

	var lastErr error
	for i, q := range s.Plan(topic, region) {
		articles, err := s.searcher.Search(ctx, q)
		if errors.Is(err, ErrNoAPIKey) {
			return Headline{}, err
		}
		if err != nil {
			log.WarnContext(ctx, "News query failed", "query", i, "error", err)
			lastErr = err
			continue
		}
		for _, a := range articles {
			if strings.TrimSpace(a.Title) == "" || a.Title == removedTitle {
				continue
			}
			return Headline{
				Title:   strings.TrimSpace(a.Title),
				Summary: ExtractSummary(a),
				URL:     a.URL,
				Source:  a.Source.Name,
			}, nil
		}
		log.DebugContext(ctx, "News query returned nothing", "query", i)
	}

	if lastErr != nil {
		return Headline{}, fmt.Errorf("%w: last error: %w", ErrNotFound, lastErr)
	}
	return Headline{}, ErrNotFound
}

// ExtractSummary returns the first paragraph of a: the description, or the
// content without NewsAPI's "[+N chars]" tail.
func ExtractSummary(a Article) string {
	text := strings.TrimSpace(a.Description)
	if text == "" {
		text = strings.TrimSpace(a.Content)
	}

	if idx := strings.Index(text, " [+"); idx != -1 {
		text = strings.TrimSpace(text[:idx])
	} else if strings.HasSuffix(text, "…") {
		text = strings.TrimSpace(strings.TrimRight(text, "…"))
	}

	if text == "" {
		return NoSummary
	}
	return text
}
