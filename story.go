package progscrape

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// NormalizeURL reduces a story URL to its identity form: cleaned host plus
// path without trailing slash, lowercased, query and fragment dropped.
// Scrapes of the same story from different sources map to the same norm.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := hostPrefix.ReplaceAllString(strings.ToLower(u.Host), "")
	path := strings.TrimSuffix(strings.ToLower(u.Path), "/")
	return host + path
}

// StoryIdentifier names a story by its normalized URL and the day it first
// appeared.
type StoryIdentifier struct {
	Norm  string
	Year  int
	Month int
	Day   int
}

func NewStoryIdentifier(date time.Time, norm string) StoryIdentifier {
	y, m, d := date.UTC().Date()
	return StoryIdentifier{Norm: norm, Year: y, Month: int(m), Day: d}
}

// String renders the identifier as "year:month:day:norm".
func (id StoryIdentifier) String() string {
	return fmt.Sprintf("%d:%d:%d:%s", id.Year, id.Month, id.Day, id.Norm)
}

// Base64 encodes the identifier for use in request paths.
func (id StoryIdentifier) Base64() string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// ParseStoryIdentifier decodes what Base64 produced.
func ParseStoryIdentifier(s string) (StoryIdentifier, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return StoryIdentifier{}, fmt.Errorf("decode story id: %w", err)
	}
	parts := strings.SplitN(string(raw), ":", 4)
	if len(parts) != 4 {
		return StoryIdentifier{}, fmt.Errorf("malformed story id %q", string(raw))
	}
	var id StoryIdentifier
	if id.Year, err = strconv.Atoi(parts[0]); err != nil {
		return StoryIdentifier{}, fmt.Errorf("malformed story id %q", string(raw))
	}
	if id.Month, err = strconv.Atoi(parts[1]); err != nil {
		return StoryIdentifier{}, fmt.Errorf("malformed story id %q", string(raw))
	}
	if id.Day, err = strconv.Atoi(parts[2]); err != nil {
		return StoryIdentifier{}, fmt.Errorf("malformed story id %q", string(raw))
	}
	id.Norm = parts[3]
	return id, nil
}

// Story is one story aggregated from every source that scraped it.
type Story struct {
	ID      StoryIdentifier
	Scrapes map[string]Scrape
}

// NewStory starts a story from its first scrape.
func NewStory(first Scrape) *Story {
	return &Story{
		ID:      NewStoryIdentifier(first.Date, NormalizeURL(first.URL)),
		Scrapes: map[string]Scrape{first.ID.String(): first},
	}
}

// Merge folds another scrape of the same story in. An earlier scrape date
// moves the identifier back so re-imports stay stable.
func (s *Story) Merge(sc Scrape) {
	s.Scrapes[sc.ID.String()] = sc
	if d := s.Date(); !d.IsZero() {
		s.ID = NewStoryIdentifier(d, s.ID.Norm)
	}
}

// Date is the earliest time any source saw the story.
func (s *Story) Date() time.Time {
	var min time.Time
	for _, sc := range s.Scrapes {
		if sc.Date.IsZero() {
			continue
		}
		if min.IsZero() || sc.Date.Before(min) {
			min = sc.Date
		}
	}
	return min
}

// earliest picks the scrape holding the canonical title and URL. Ties break
// by scrape ID so the choice is deterministic.
func (s *Story) earliest() Scrape {
	var best Scrape
	var bestKey string
	for key, sc := range s.Scrapes {
		if bestKey == "" || scrapeBefore(sc, key, best, bestKey) {
			best = sc
			bestKey = key
		}
	}
	return best
}

// scrapeBefore orders scrapes by date, unknown dates last, then by key.
func scrapeBefore(a Scrape, aKey string, b Scrape, bKey string) bool {
	switch {
	case a.Date.IsZero() != b.Date.IsZero():
		return !a.Date.IsZero()
	case !a.Date.Equal(b.Date):
		return a.Date.Before(b.Date)
	}
	return aKey < bKey
}

func (s *Story) Title() string { return s.earliest().Title }

func (s *Story) URL() string { return s.earliest().URL }

// Titles returns every distinct title the sources saw, sorted.
func (s *Story) Titles() []string {
	seen := make(map[string]struct{}, len(s.Scrapes))
	for _, sc := range s.Scrapes {
		if sc.Title != "" {
			seen[sc.Title] = struct{}{}
		}
	}
	titles := make([]string, 0, len(seen))
	for t := range seen {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// TagSet unions the tags every source provided.
func (s *Story) TagSet() map[string]struct{} {
	tags := make(map[string]struct{})
	for _, sc := range s.Scrapes {
		for _, t := range sc.Tags {
			tags[t] = struct{}{}
		}
	}
	return tags
}

// StoryRender is the JSON view of a story.
type StoryRender struct {
	ID           string            `json:"id"`
	URL          string            `json:"url"`
	Domain       string            `json:"domain"`
	Title        string            `json:"title"`
	Date         time.Time         `json:"date"`
	Age          string            `json:"age"`
	Tags         []string          `json:"tags"`
	CommentLinks map[string]string `json:"comment_links"`
}

// Render builds the JSON view; tags come from the stored search field.
func (s *Story) Render(tags []string) StoryRender {
	links := make(map[string]string, len(s.Scrapes))
	for _, sc := range s.Scrapes {
		if u := sc.ID.CommentsURL(); u != "" {
			links[string(sc.ID.Source)] = u
		}
	}
	date := s.Date()
	return StoryRender{
		ID:           s.ID.Base64(),
		URL:          s.URL(),
		Domain:       CleanHost(s.URL()),
		Title:        s.Title(),
		Date:         date,
		Age:          humanize.Time(date),
		Tags:         tags,
		CommentLinks: links,
	}
}
