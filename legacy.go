package progscrape

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"
)

const legacyDateLayout = "2006-01-02 15:04:05.999999"

// legacyRecord is one line of the old exporter's gzipped JSON dump. Each
// service id column holds the stringified null "None" when the story never
// appeared there.
type legacyRecord struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Date         string   `json:"date"`
	HackerNewsID string   `json:"hackerNewsId"`
	RedditProgID string   `json:"redditProgId"`
	RedditTechID string   `json:"redditTechId"`
	LobstersID   string   `json:"lobstersId"`
	Tags         []string `json:"tags"`
}

// ImportLegacy reads a gzipped JSON-lines dump and inserts its stories.
// Unparseable lines are skipped. Returns the number of stories imported.
func ImportLegacy(ctx context.Context, r io.Reader, store StorageWriter) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("legacy import: %w", err)
	}
	defer gz.Close()

	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec legacyRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		scrapes := rec.scrapes()
		if len(scrapes) == 0 {
			continue
		}
		if err := store.InsertScrapes(ctx, scrapes...); err != nil {
			return count, err
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("legacy import: %w", err)
	}
	return count, nil
}

// scrapes expands a record into one scrape per service it appeared on.
// Titles in the dump carry HTML entities from the reddit API.
func (rec legacyRecord) scrapes() []Scrape {
	title := html.UnescapeString(strings.TrimSpace(rec.Title))
	urlStr := fixLegacyURL(rec.URL)
	if title == "" || urlStr == "" {
		return nil
	}
	date, err := time.Parse(legacyDateLayout, rec.Date)
	if err != nil {
		return nil
	}
	date = date.UTC()

	var tags []string
	for _, t := range rec.Tags {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			tags = append(tags, t)
		}
	}

	var scrapes []Scrape
	add := func(source Source, subsource, id string) {
		if id = legacyID(id); id == "" {
			return
		}
		scrapes = append(scrapes, Scrape{
			ID:    ScrapeID{Source: source, Subsource: subsource, ID: id},
			Title: title,
			URL:   urlStr,
			Date:  date,
			Tags:  tags,
		})
	}
	add(SourceHackerNews, "", rec.HackerNewsID)
	add(SourceReddit, "programming", rec.RedditProgID)
	add(SourceReddit, "technology", rec.RedditTechID)
	add(SourceLobsters, "", rec.LobstersID)
	return scrapes
}

// legacyID filters the exporter's stringified nulls.
func legacyID(id string) string {
	id = strings.TrimSpace(id)
	if id == "None" || id == "null" {
		return ""
	}
	return id
}

// fixLegacyURL repairs the two corruptions the old exporter left behind:
// double-escaped ampersands and raw spaces.
func fixLegacyURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "&amp;", "&")
	raw = strings.ReplaceAll(raw, " ", "%20")
	return raw
}
