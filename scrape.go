package progscrape

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the service a scrape came from.
type Source string

const (
	SourceHackerNews Source = "hackernews"
	SourceReddit     Source = "reddit"
	SourceLobsters   Source = "lobsters"
	SourceOther      Source = "other"
)

func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceHackerNews, SourceReddit, SourceLobsters, SourceOther:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown scrape source %q", s)
}

// ScrapeID names one scrape of one story on one service. Subsource is the
// subreddit for reddit scrapes and empty elsewhere.
type ScrapeID struct {
	Source    Source
	Subsource string
	ID        string
}

func (id ScrapeID) String() string {
	if id.Subsource == "" {
		return string(id.Source) + "-" + id.ID
	}
	return string(id.Source) + "-" + id.Subsource + "-" + id.ID
}

// ParseScrapeID inverts String. IDs from SourceOther may contain dashes, so
// everything after the source joins back into the ID.
func ParseScrapeID(s string) (ScrapeID, error) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) < 2 || parts[1] == "" {
		return ScrapeID{}, fmt.Errorf("malformed scrape id %q", s)
	}
	source, err := ParseSource(parts[0])
	if err != nil {
		return ScrapeID{}, fmt.Errorf("malformed scrape id %q: %w", s, err)
	}
	if len(parts) == 2 || source == SourceOther {
		return ScrapeID{Source: source, ID: strings.Join(parts[1:], "-")}, nil
	}
	return ScrapeID{Source: source, Subsource: parts[1], ID: parts[2]}, nil
}

// CommentsURL returns the discussion page for this scrape, or "" when the
// source has none.
func (id ScrapeID) CommentsURL() string {
	switch id.Source {
	case SourceHackerNews:
		return "https://news.ycombinator.com/item?id=" + id.ID
	case SourceReddit:
		if id.Subsource == "" {
			return "https://www.reddit.com/comments/" + id.ID + "/"
		}
		return "https://www.reddit.com/r/" + id.Subsource + "/comments/" + id.ID + "/"
	case SourceLobsters:
		return "https://lobste.rs/s/" + id.ID
	}
	return ""
}

// Scrape is one sighting of a story on a service front page.
type Scrape struct {
	ID    ScrapeID
	Title string
	URL   string
	Date  time.Time
	// Rank is the 1-based front page position, 0 when unranked.
	Rank int
	Tags []string
}

// Fetcher turns one service's front page into scrapes. URLs returns the
// pages to download and Parse handles each response body.
type Fetcher interface {
	Source() Source
	URLs() []string
	Parse(body []byte) ([]Scrape, error)
}
