package progscrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, opts ...ServerOption) (*httptest.Server, *MemIndex) {
	t.Helper()
	idx := NewMemIndex(nil)
	if err := idx.InsertScrapes(context.Background(), seedScrapes()...); err != nil {
		t.Fatalf("InsertScrapes: %v", err)
	}
	srv := httptest.NewServer(NewMux(idx, opts...))
	t.Cleanup(srv.Close)
	return srv, idx
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp
}

func TestServerFrontPage(t *testing.T) {
	srv, _ := newTestServer(t)

	var got struct {
		Stories []StoryRender `json:"stories"`
	}
	resp := getJSON(t, srv.URL+"/", &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(got.Stories) != 2 {
		t.Fatalf("front page has %d stories", len(got.Stories))
	}
	if got.Stories[0].Title != "Rust borrow checker tricks" {
		t.Errorf("head = %q", got.Stories[0].Title)
	}
}

func TestServerFrontPageSearchParam(t *testing.T) {
	srv, _ := newTestServer(t)

	var got struct {
		Stories []StoryRender `json:"stories"`
	}
	getJSON(t, srv.URL+"/?search=rust", &got)
	if len(got.Stories) != 1 || got.Stories[0].Title != "Rust borrow checker tricks" {
		t.Fatalf("stories = %+v", got.Stories)
	}
}

func TestServerSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	var got struct {
		Query   string        `json:"query"`
		Stories []StoryRender `json:"stories"`
	}
	getJSON(t, srv.URL+"/search?q=profiling", &got)
	if got.Query != "profiling" {
		t.Errorf("query = %q", got.Query)
	}
	if len(got.Stories) != 1 || got.Stories[0].Title != "Profiling Go allocations" {
		t.Fatalf("stories = %+v", got.Stories)
	}

	// A stop-word query matches nothing but still succeeds.
	getJSON(t, srv.URL+"/search?q=the", &got)
	if len(got.Stories) != 0 {
		t.Fatalf("stop-word query returned %d stories", len(got.Stories))
	}
}

func TestServerStory(t *testing.T) {
	srv, _ := newTestServer(t)

	id := NewStoryIdentifier(time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), "blog.example.com/borrow-checker")
	var got StoryRender
	resp := getJSON(t, srv.URL+"/story/"+id.Base64(), &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got.Title != "Rust borrow checker tricks" {
		t.Errorf("Title = %q", got.Title)
	}

	resp, err := http.Get(srv.URL + "/story/%21%21garbage")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("garbage id status = %d, want 400", resp.StatusCode)
	}

	missing := NewStoryIdentifier(time.Now(), "nope.example/x")
	resp, err = http.Get(srv.URL + "/story/" + missing.Base64())
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", resp.StatusCode)
	}
}

func TestServerStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	var got StorageSummary
	getJSON(t, srv.URL+"/status", &got)
	if got.Total != 2 {
		t.Fatalf("Total = %d", got.Total)
	}
	if got.ByShard["2024-03"] != 2 {
		t.Fatalf("ByShard = %v", got.ByShard)
	}
}

func TestServerUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServerSubmit(t *testing.T) {
	article := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, articlePage)
	}))
	defer article.Close()

	srv, idx := newTestServer(t, WithSubmitter(NewWebScraper(article.Client())))

	resp, err := http.Post(srv.URL+"/submit?url="+article.URL+"/post", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["title"] != "Why Go compiles fast" {
		t.Errorf("title = %q", got["title"])
	}

	// The submitted page is searchable right away.
	stories, err := idx.QuerySearch(context.Background(), "compiles", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stories) != 1 {
		t.Fatalf("submitted story not indexed, got %d results", len(stories))
	}
}

func TestServerSubmitErrors(t *testing.T) {
	srv, _ := newTestServer(t, WithSubmitter(NewWebScraper(nil)))

	resp, err := http.Get(srv.URL + "/submit?url=http://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/submit", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing url status = %d, want 400", resp.StatusCode)
	}
}

func TestServerSubmitDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/submit?url=http://example.com/", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when no submitter is wired", resp.StatusCode)
	}
}
