package progscrape

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func gzipLines(t *testing.T, lines ...string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	for _, l := range lines {
		fmt.Fprintln(gz, l)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImportLegacy(t *testing.T) {
	ctx := context.Background()
	store := NewMemIndex(nil)
	r := gzipLines(t,
		`{"title":"A story &amp; more","url":"http://example.com/a?x=1&amp;y=2","date":"2013-01-05 10:23:45.123456","hackerNewsId":"5001","redditProgId":"ab1","redditTechId":"None","lobstersId":"None","tags":["Go"]}`,
		`not json at all`,
		`{"title":"No ids","url":"http://example.com/b","date":"2013-01-06 10:00:00","hackerNewsId":"None","redditProgId":"None","redditTechId":"None","lobstersId":"None"}`,
		`{"title":"Bad date","url":"http://example.com/bd","date":"last tuesday","hackerNewsId":"5002","redditProgId":"None","redditTechId":"None","lobstersId":"None"}`,
		`{"title":"Lobsters only","url":"http://example.com/c d","date":"2013-02-01 09:00:00","hackerNewsId":"None","redditProgId":"None","redditTechId":"None","lobstersId":"xy9"}`,
	)

	n, err := ImportLegacy(ctx, r, store)
	if err != nil {
		t.Fatalf("ImportLegacy: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d stories, want 2", n)
	}

	sum, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 2 {
		t.Fatalf("Total = %d, want 2", sum.Total)
	}

	render, err := store.GetStory(ctx, NewStoryIdentifier(
		time.Date(2013, 1, 5, 0, 0, 0, 0, time.UTC), "example.com/a"))
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	if render == nil {
		t.Fatal("story example.com/a not found")
	}
	// The exporter left reddit's entity escaping in titles.
	if render.Title != "A story & more" {
		t.Errorf("Title = %q", render.Title)
	}
	// The broken ampersand escape must be repaired on the way in.
	if render.URL != "http://example.com/a?x=1&y=2" {
		t.Errorf("URL = %q", render.URL)
	}
	if render.CommentLinks["hackernews"] == "" || render.CommentLinks["reddit"] == "" {
		t.Errorf("CommentLinks = %v, want both services", render.CommentLinks)
	}
	if len(render.Tags) < 2 || render.Tags[1] != "go" {
		t.Errorf("Tags = %v, want the lowercased go tag after the host", render.Tags)
	}
}

func TestImportLegacyNotGzip(t *testing.T) {
	if _, err := ImportLegacy(context.Background(), strings.NewReader("plain text"), NewMemIndex(nil)); err == nil {
		t.Fatal("want error for a non-gzip stream")
	}
}

func TestFixLegacyURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://example.com/a?x=1&amp;y=2", "http://example.com/a?x=1&y=2"},
		{"http://example.com/with space", "http://example.com/with%20space"},
		{"  http://example.com/a  ", "http://example.com/a"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := fixLegacyURL(tt.in); got != tt.want {
			t.Errorf("fixLegacyURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLegacyID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"None", ""},
		{"null", ""},
		{"", ""},
		{" 5001 ", "5001"},
	}
	for _, tt := range tests {
		if got := legacyID(tt.in); got != tt.want {
			t.Errorf("legacyID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
