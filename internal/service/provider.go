package service

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/fundsight/analyst/internal/models"
)

// FundamentalsProvider returns the fundamentals record for a ticker.
type FundamentalsProvider interface {
	Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
}

// SearchProvider returns at most max web results for a query.
type SearchProvider interface {
	Search(ctx context.Context, query string, max int) ([]models.NewsItem, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	// cookiejar.New only fails when given options with a bad PublicSuffixList.
	jar, _ := cookiejar.New(nil)
	return &http.Client{Timeout: timeout, Jar: jar}
}
