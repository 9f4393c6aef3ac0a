package tools_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fundsight/analyst/internal/models"
	"github.com/fundsight/analyst/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFundamentals struct {
	rec *models.Fundamentals
	err error
	got string
}

func (f *fakeFundamentals) Fundamentals(_ context.Context, ticker string) (*models.Fundamentals, error) {
	f.got = ticker
	return f.rec, f.err
}

type fakeSearch struct {
	items []models.NewsItem
	err   error
	max   int
}

func (f *fakeSearch) Search(_ context.Context, _ string, max int) ([]models.NewsItem, error) {
	f.max = max
	return f.items, f.err
}

func TestGetFundamentals(t *testing.T) {
	p := &fakeFundamentals{rec: &models.Fundamentals{
		Symbol:           "AAPL",
		CurrentPrice:     models.Float(150.0),
		MarketCap:        models.Float(2.5e12),
		FiftyTwoWeekHigh: models.Float(199.6),
		FiftyTwoWeekLow:  models.Float(124.2),
		PERatio:          models.Float(28.5),
	}}

	out := tools.GetFundamentals(context.Background(), p, " AAPL\n")

	assert.Equal(t, "AAPL", p.got)
	for _, want := range []string{"AAPL", "150.0", "2500000000000.0", "199.6", "124.2", "28.5"} {
		assert.Contains(t, out, want)
	}
}

func TestGetFundamentalsUnknownTicker(t *testing.T) {
	p := &fakeFundamentals{rec: &models.Fundamentals{Symbol: "ZZZZ"}}

	out := tools.GetFundamentals(context.Background(), p, "ZZZZ")

	assert.Contains(t, out, "ZZZZ")
	assert.Contains(t, out, "None")
}

func TestGetFundamentalsProviderError(t *testing.T) {
	p := &fakeFundamentals{err: errors.New("connection refused")}

	out := tools.GetFundamentals(context.Background(), p, "MSFT")

	assert.True(t, strings.HasPrefix(out, "Error fetching data for MSFT:"), out)
	assert.Contains(t, out, "connection refused")
}

func TestGetFundamentalsNilRecord(t *testing.T) {
	out := tools.GetFundamentals(context.Background(), &fakeFundamentals{}, "IBM")
	assert.True(t, strings.HasPrefix(out, "Error fetching data for IBM:"), out)
}

func TestSearchNews(t *testing.T) {
	items := []models.NewsItem{
		{Title: "NVDA beats", Body: "Revenue rose."},
		{Title: "Chips rally", Body: "Semis\nled the market."},
		{Title: "Guidance raised", Body: "Outlook improved."},
		{Title: "Extra", Body: "Should be cut."},
	}

	tests := []struct {
		name  string
		items []models.NewsItem
		max   int
		lines int
	}{
		{"bounded", items, 3, 3},
		{"fewer than bound", items[:2], 3, 2},
		{"single", items, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeSearch{items: tt.items}
			out := tools.SearchNews(context.Background(), p, "NVDA news", tt.max)

			lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
			require.Len(t, lines, tt.lines)
			for _, l := range lines {
				assert.True(t, strings.HasPrefix(l, "- "), l)
			}
			assert.Equal(t, tt.max, p.max)
		})
	}

	out := tools.SearchNews(context.Background(), &fakeSearch{items: items}, "NVDA", 2)
	assert.Equal(t, "- NVDA beats: Revenue rose.\n- Chips rally: Semis led the market.\n", out)
}

func TestSearchNewsNoResults(t *testing.T) {
	out := tools.SearchNews(context.Background(), &fakeSearch{}, "qwxzv obscure", 3)
	assert.Equal(t, "", out)
}

func TestSearchNewsProviderError(t *testing.T) {
	out := tools.SearchNews(context.Background(), &fakeSearch{err: errors.New("rate limited")}, "TSLA recall", 3)

	assert.Contains(t, out, "Error searching news")
	assert.Contains(t, out, "TSLA recall")
	assert.Contains(t, out, "rate limited")
}

func TestToolDescriptors(t *testing.T) {
	fund := tools.FundamentalsTool(&fakeFundamentals{err: errors.New("down")}, time.Second)
	news := tools.NewsTool(&fakeSearch{}, 3, time.Second)

	assert.Equal(t, tools.FundamentalsToolName, fund.Name)
	assert.Equal(t, []string{"ticker"}, fund.InputSchema["required"])
	assert.Equal(t, tools.NewsToolName, news.Name)
	assert.Equal(t, []string{"query"}, news.InputSchema["required"])

	assert.Contains(t, fund.Execute(context.Background(), "AAPL"), "Error fetching data for AAPL")
	assert.Equal(t, "", news.Execute(context.Background(), "anything"))
}
