package service_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fundsight/analyst/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<!DOCTYPE html>
<html><body><div id="links" class="results">
  <div class="result results_links result--ad">
    <h2 class="result__title"><a class="result__a" href="https://ads.example.com">Sponsored: Buy NVDA now</a></h2>
    <a class="result__snippet">Ad copy.</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <h2 class="result__title"><a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fnews.example.com%2Fnvda-earnings&amp;rut=x">NVDA beats <b>earnings</b></a></h2>
    <a class="result__snippet" href="#">Revenue rose 
      sharply on data-center demand.</a>
  </div>
  <div class="result results_links web-result">
    <h2 class="result__title"><a class="result__a" href="https://example.org/chips">Chip stocks rally</a></h2>
    <a class="result__snippet">Semiconductors led the market higher.</a>
  </div>
  <div class="result results_links web-result">
    <h2 class="result__title"><a class="result__a" href="https://example.net/guidance">Guidance raised</a></h2>
    <a class="result__snippet">Outlook improved.</a>
  </div>
  <div class="result results_links web-result">
    <h2 class="result__title"><a class="result__a" href="https://example.com/fourth">Fourth hit</a></h2>
  </div>
</div></body></html>`

func newDuckDuckGo(t *testing.T, h http.HandlerFunc) *service.DuckDuckGoService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return service.NewDuckDuckGoService(srv.URL+"/html/", "us-en", "test-agent", 0, 5*time.Second)
}

func TestDuckDuckGoSearch(t *testing.T) {
	svc := newDuckDuckGo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "NVDA news", r.PostForm.Get("q"))
		assert.Equal(t, "us-en", r.PostForm.Get("kl"))
		io.WriteString(w, resultsPage)
	})

	items, err := svc.Search(context.Background(), "NVDA news", 3)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "NVDA beats earnings", items[0].Title)
	assert.Equal(t, "Revenue rose sharply on data-center demand.", items[0].Body)
	assert.Equal(t, "https://news.example.com/nvda-earnings", items[0].URL)
	assert.Equal(t, "Chip stocks rally", items[1].Title)
	assert.Equal(t, "Guidance raised", items[2].Title)
}

func TestDuckDuckGoSearchBound(t *testing.T) {
	svc := newDuckDuckGo(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, resultsPage)
	})

	tests := []struct {
		max  int
		want int
	}{
		{max: 1, want: 1},
		{max: 2, want: 2},
		{max: 10, want: 4},
		{max: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("max=%d", tt.max), func(t *testing.T) {
			items, err := svc.Search(context.Background(), "chips", tt.max)
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestDuckDuckGoSearchNoResults(t *testing.T) {
	svc := newDuckDuckGo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="no-results">No results.</div></body></html>`)
	})

	items, err := svc.Search(context.Background(), "qwxzv obscure", 3)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDuckDuckGoSearchErrors(t *testing.T) {
	svc := newDuckDuckGo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := svc.Search(context.Background(), "NVDA", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	_, err = svc.Search(context.Background(), "  ", 3)
	assert.Error(t, err)
}
