package progscrape

import (
	"encoding/base64"
	"reflect"
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/story-1", "example.com/story-1"},
		{"https://www.example.com/story-1/", "example.com/story-1"},
		{"HTTP://EXAMPLE.COM/Story-1", "example.com/story-1"},
		{"https://example.com/story-1?utm_source=x#frag", "example.com/story-1"},
		{"https://WWW.example.com/a", "example.com/a"},
		{"::bad::", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.url); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestStoryIdentifier(t *testing.T) {
	date := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	id := NewStoryIdentifier(date, "example.com/story-1")
	if got := id.String(); got != "2024:3:5:example.com/story-1" {
		t.Fatalf("String = %q", got)
	}
	parsed, err := ParseStoryIdentifier(id.Base64())
	if err != nil {
		t.Fatalf("ParseStoryIdentifier: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip = %+v, want %+v", parsed, id)
	}
}

func TestParseStoryIdentifierErrors(t *testing.T) {
	bad := []string{
		"",
		"!!!",
		base64.RawURLEncoding.EncodeToString([]byte("no colons here")),
		base64.RawURLEncoding.EncodeToString([]byte("a:b:c:d")),
	}
	for _, s := range bad {
		if _, err := ParseStoryIdentifier(s); err == nil {
			t.Errorf("ParseStoryIdentifier(%q) succeeded, want error", s)
		}
	}
}

func TestStoryMerge(t *testing.T) {
	story := NewStory(Scrape{
		ID:    ScrapeID{Source: SourceReddit, Subsource: "golang", ID: "aaa"},
		Title: "A big release",
		URL:   "https://example.com/release",
		Date:  time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC),
		Tags:  []string{"golang"},
	})
	if story.ID.Norm != "example.com/release" {
		t.Fatalf("Norm = %q", story.ID.Norm)
	}
	if story.ID.Day != 6 {
		t.Fatalf("Day = %d", story.ID.Day)
	}

	story.Merge(Scrape{
		ID:    ScrapeID{Source: SourceHackerNews, ID: "123"},
		Title: "A big release (2024)",
		URL:   "https://www.example.com/release",
		Date:  time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC),
	})

	if len(story.Scrapes) != 2 {
		t.Fatalf("Scrapes = %d, want 2", len(story.Scrapes))
	}
	if story.ID.Day != 5 {
		t.Errorf("identifier did not move back with the earlier scrape, Day = %d", story.ID.Day)
	}
	if got := story.Title(); got != "A big release (2024)" {
		t.Errorf("Title = %q, want the earliest scrape's title", got)
	}
	if got := story.URL(); got != "https://www.example.com/release" {
		t.Errorf("URL = %q, want the earliest scrape's URL", got)
	}
	wantTitles := []string{"A big release", "A big release (2024)"}
	if got := story.Titles(); !reflect.DeepEqual(got, wantTitles) {
		t.Errorf("Titles = %v, want %v", got, wantTitles)
	}
	if got := story.TagSet(); !reflect.DeepEqual(got, wordSet("golang")) {
		t.Errorf("TagSet = %v", got)
	}
	if got := story.Date(); !got.Equal(time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want the earliest scrape date", got)
	}
}

func TestStoryMergeUnknownDate(t *testing.T) {
	story := NewStory(Scrape{
		ID:    ScrapeID{Source: SourceHackerNews, ID: "123"},
		Title: "Dated",
		URL:   "https://example.com/x",
		Date:  time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	story.Merge(Scrape{
		ID:    ScrapeID{Source: SourceOther, ID: "example.com/x"},
		Title: "Undated",
		URL:   "https://example.com/x",
	})
	// A scrape without a date never becomes the canonical one.
	if got := story.Title(); got != "Dated" {
		t.Fatalf("Title = %q, want %q", got, "Dated")
	}
	if got := story.Date(); !got.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Date = %v", got)
	}
}

func TestStoryRender(t *testing.T) {
	story := NewStory(Scrape{
		ID:    ScrapeID{Source: SourceHackerNews, ID: "123"},
		Title: "Release notes",
		URL:   "https://www.example.com/release",
		Date:  time.Now().UTC().Add(-2 * time.Hour),
	})
	story.Merge(Scrape{
		ID:    ScrapeID{Source: SourceLobsters, ID: "abc"},
		Title: "Release notes",
		URL:   "https://example.com/release",
		Date:  time.Now().UTC().Add(-1 * time.Hour),
	})

	r := story.Render([]string{"example.com"})
	if r.ID != story.ID.Base64() {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Domain != "example.com" {
		t.Errorf("Domain = %q", r.Domain)
	}
	if r.Title != "Release notes" {
		t.Errorf("Title = %q", r.Title)
	}
	if got := r.CommentLinks["hackernews"]; got != "https://news.ycombinator.com/item?id=123" {
		t.Errorf("hackernews comment link = %q", got)
	}
	if got := r.CommentLinks["lobsters"]; got != "https://lobste.rs/s/abc" {
		t.Errorf("lobsters comment link = %q", got)
	}
	if r.Age == "" {
		t.Error("Age is empty")
	}
	if !reflect.DeepEqual(r.Tags, []string{"example.com"}) {
		t.Errorf("Tags = %v", r.Tags)
	}
}
