package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fundsight/analyst/internal/models"
	"github.com/fundsight/analyst/internal/service"
	"github.com/rs/zerolog/log"
)

const NewsToolName = "Search_Market_News"

// NewsTool exposes SearchNews to the model, bounded to maxResults hits.
func NewsTool(p service.SearchProvider, maxResults int, timeout time.Duration) Tool {
	return Tool{
		Name:        NewsToolName,
		Description: "Use this to search the web for recent news, sentiment, or analyst ratings. Input should be a search query string.",
		InputSchema: StringSchema("query", "Search query, e.g. \"NVDA analyst ratings\""),
		Execute: func(ctx context.Context, input string) string {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return SearchNews(ctx, p, input, maxResults)
		},
	}
}

// SearchNews renders up to maxResults hits as "- <title>: <body>" lines.
// No hits yields "". Provider errors are returned as text naming the query.
func SearchNews(ctx context.Context, p service.SearchProvider, query string, maxResults int) string {
	query = strings.TrimSpace(query)
	items, err := p.Search(ctx, query, maxResults)
	if err != nil {
		err = fmt.Errorf("%w: %v", models.ErrToolExecution, err)
		log.Warn().Err(err).Str("query", query).Msg("news search failed")
		return fmt.Sprintf("Error searching news for %q: %v", query, err)
	}
	if maxResults >= 0 && len(items) > maxResults {
		items = items[:maxResults]
	}

	var sb strings.Builder
	for _, it := range items {
		sb.WriteString("- ")
		sb.WriteString(oneLine(it.Title))
		sb.WriteString(": ")
		sb.WriteString(oneLine(it.Body))
		sb.WriteString("\n")
	}
	return sb.String()
}

// oneLine keeps each hit on its own bullet line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
