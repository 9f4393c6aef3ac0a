package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fundsight/analyst/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const quoteSummaryModules = "price,summaryDetail,defaultKeyStatistics,financialData"

// fieldPaths lists, per record field, the quoteSummary paths tried in order.
var fieldPaths = struct {
	currentPrice, marketCap, high52, low52, trailingPE []string
}{
	currentPrice: []string{"financialData.currentPrice.raw", "price.regularMarketPrice.raw"},
	marketCap:    []string{"price.marketCap.raw", "summaryDetail.marketCap.raw"},
	high52:       []string{"summaryDetail.fiftyTwoWeekHigh.raw", "defaultKeyStatistics.fiftyTwoWeekHigh.raw"},
	low52:        []string{"summaryDetail.fiftyTwoWeekLow.raw", "defaultKeyStatistics.fiftyTwoWeekLow.raw"},
	trailingPE:   []string{"summaryDetail.trailingPE.raw", "defaultKeyStatistics.trailingPE.raw"},
}

// YahooService reads fundamentals from the Yahoo Finance quoteSummary API.
// Yahoo requires a session cookie plus a matching crumb; both are fetched
// lazily and refreshed once when the API answers 401.
type YahooService struct {
	client    *http.Client
	baseURL   string
	cookieURL string
	userAgent string

	mu    sync.Mutex
	crumb string
}

// NewYahooService creates a client for the given API base (e.g.
// https://query2.finance.yahoo.com) and cookie bootstrap URL.
func NewYahooService(baseURL, cookieURL, userAgent string, timeout time.Duration) *YahooService {
	return &YahooService{
		client:    newHTTPClient(timeout),
		baseURL:   strings.TrimRight(baseURL, "/"),
		cookieURL: cookieURL,
		userAgent: userAgent,
	}
}

// Fundamentals implements FundamentalsProvider.
func (s *YahooService) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return nil, fmt.Errorf("empty ticker")
	}

	body, status, err := s.quoteSummary(ctx, symbol)
	if err == nil && status == http.StatusUnauthorized {
		s.resetCrumb()
		body, status, err = s.quoteSummary(ctx, symbol)
	}
	if err != nil {
		return nil, err
	}

	if desc := gjson.GetBytes(body, "quoteSummary.error.description"); desc.Exists() && desc.String() != "" {
		return nil, fmt.Errorf("yahoo: %s", desc.String())
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo: unexpected status %d", status)
	}

	result := gjson.GetBytes(body, "quoteSummary.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("yahoo: no data for symbol %s", symbol)
	}

	rec := &models.Fundamentals{
		Symbol:           symbol,
		CurrentPrice:     firstNumber(result, fieldPaths.currentPrice),
		MarketCap:        firstNumber(result, fieldPaths.marketCap),
		FiftyTwoWeekHigh: firstNumber(result, fieldPaths.high52),
		FiftyTwoWeekLow:  firstNumber(result, fieldPaths.low52),
		PERatio:          firstNumber(result, fieldPaths.trailingPE),
	}

	log.Debug().
		Str("symbol", symbol).
		Bool("empty", rec.Empty()).
		Msg("fundamentals fetched")

	return rec, nil
}

func (s *YahooService) quoteSummary(ctx context.Context, symbol string) ([]byte, int, error) {
	crumb, err := s.ensureCrumb(ctx)
	if err != nil {
		// Some regions still serve quoteSummary without a crumb.
		log.Debug().Err(err).Msg("yahoo crumb unavailable, continuing without")
	}

	q := url.Values{}
	q.Set("modules", quoteSummaryModules)
	if crumb != "" {
		q.Set("crumb", crumb)
	}
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", s.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("quoteSummary: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read quoteSummary body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (s *YahooService) ensureCrumb(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crumb != "" {
		return s.crumb, nil
	}

	// The cookie endpoint usually answers 404; only the Set-Cookie matters.
	if s.cookieURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cookieURL, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", s.userAgent)
		resp, err := s.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("fetch cookie: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch crumb: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(b))
	if resp.StatusCode != http.StatusOK || crumb == "" || strings.ContainsAny(crumb, "{<") {
		return "", fmt.Errorf("fetch crumb: status %d", resp.StatusCode)
	}
	s.crumb = crumb
	return crumb, nil
}

func (s *YahooService) resetCrumb() {
	s.mu.Lock()
	s.crumb = ""
	s.mu.Unlock()
}

func firstNumber(result gjson.Result, paths []string) *float64 {
	for _, p := range paths {
		v := result.Get(p)
		if v.Exists() && v.Type == gjson.Number {
			f := v.Float()
			return &f
		}
	}
	return nil
}
