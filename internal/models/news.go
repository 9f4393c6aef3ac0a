package models

// NewsItem is a single web search hit.
type NewsItem struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}
