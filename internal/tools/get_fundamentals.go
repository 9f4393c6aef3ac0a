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

const FundamentalsToolName = "Get_Stock_Fundamentals"

// FundamentalsTool exposes GetFundamentals to the model.
func FundamentalsTool(p service.FundamentalsProvider, timeout time.Duration) Tool {
	return Tool{
		Name:        FundamentalsToolName,
		Description: "Use this to get the current price, PE ratio, and market cap of a stock. Input should be a ticker symbol (e.g. AAPL).",
		InputSchema: StringSchema("ticker", "Stock ticker symbol, e.g. AAPL or TSLA"),
		Execute: func(ctx context.Context, input string) string {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return GetFundamentals(ctx, p, input)
		},
	}
}

// GetFundamentals looks up ticker and renders the record. It never fails:
// provider errors come back as "Error fetching data for <ticker>: <cause>".
func GetFundamentals(ctx context.Context, p service.FundamentalsProvider, ticker string) string {
	ticker = strings.TrimSpace(ticker)
	rec, err := p.Fundamentals(ctx, ticker)
	if err == nil && rec == nil {
		err = fmt.Errorf("no data returned")
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", models.ErrToolExecution, err)
		log.Warn().Err(err).Str("ticker", ticker).Msg("fundamentals lookup failed")
		return fmt.Sprintf("Error fetching data for %s: %v", ticker, err)
	}
	if rec.Symbol == "" {
		rec.Symbol = ticker
	}
	return rec.String()
}
