package progscrape

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const defaultLobstersFeed = "https://lobste.rs/rss"

// Lobsters scrapes the site RSS feed. The story id is the last path
// segment of the item guid.
type Lobsters struct {
	feed string
}

func NewLobsters(feed string) *Lobsters {
	if feed == "" {
		feed = defaultLobstersFeed
	}
	return &Lobsters{feed: feed}
}

func (l *Lobsters) Source() Source { return SourceLobsters }

func (l *Lobsters) URLs() []string { return []string{l.feed} }

type lobstersFeed struct {
	Items []lobstersItem `xml:"channel>item"`
}

type lobstersItem struct {
	Title      string   `xml:"title"`
	Link       string   `xml:"link"`
	GUID       string   `xml:"guid"`
	PubDate    string   `xml:"pubDate"`
	Categories []string `xml:"category"`
}

func (l *Lobsters) Parse(body []byte) ([]Scrape, error) {
	var feed lobstersFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse lobsters feed: %w", err)
	}
	var scrapes []Scrape
	for _, item := range feed.Items {
		id := lastPathSegment(item.GUID)
		if id == "" || item.Title == "" || item.Link == "" {
			continue
		}
		date, err := time.Parse(time.RFC1123Z, item.PubDate)
		if err != nil {
			continue
		}
		var tags []string
		for _, c := range item.Categories {
			if c = strings.TrimSpace(strings.ToLower(c)); c != "" {
				tags = append(tags, c)
			}
		}
		scrapes = append(scrapes, Scrape{
			ID:    ScrapeID{Source: SourceLobsters, ID: id},
			Title: item.Title,
			URL:   item.Link,
			Date:  date.UTC(),
			Rank:  len(scrapes) + 1,
			Tags:  tags,
		})
	}
	return scrapes, nil
}

func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
