package progscrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// WebScraper turns a single submitted page into a scrape, titled by what
// readability extracts from the page.
type WebScraper struct {
	client *http.Client
}

func NewWebScraper(client *http.Client) *WebScraper {
	return &WebScraper{client: client}
}

// Scrape downloads rawURL and extracts its title. The scrape id is the
// normalized URL, so resubmissions collapse onto the same story.
func (w *WebScraper) Scrape(ctx context.Context, rawURL string) (Scrape, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Scrape{}, fmt.Errorf("submit url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Scrape{}, fmt.Errorf("submit url %q: unsupported scheme", rawURL)
	}
	body, err := Download(ctx, w.client, rawURL)
	if err != nil {
		return Scrape{}, err
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return Scrape{}, fmt.Errorf("extract %s: %w", rawURL, err)
	}
	title := strings.TrimSpace(article.Title)
	if title == "" {
		return Scrape{}, fmt.Errorf("extract %s: no title", rawURL)
	}
	return Scrape{
		ID:    ScrapeID{Source: SourceOther, ID: NormalizeURL(rawURL)},
		Title: title,
		URL:   rawURL,
		Date:  time.Now().UTC(),
	}, nil
}
