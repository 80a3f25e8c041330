package progscrape

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// Server serves the JSON API over a Storage.
type Server struct {
	store     Storage
	submitter *WebScraper
	logger    *slog.Logger
}

type ServerOption func(*Server)

// WithSubmitter enables POST /submit backed by the given scraper. The
// store must also be a StorageWriter for submissions to land.
func WithSubmitter(ws *WebScraper) ServerOption {
	return func(s *Server) { s.submitter = ws }
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewMux builds the API routes. Library-only: it does not start the
// server by itself.
func NewMux(store Storage, opts ...ServerOption) *http.ServeMux {
	s := &Server{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/story/", s.handleStory)
	mux.HandleFunc("/status", s.handleStatus)
	if s.submitter != nil {
		mux.HandleFunc("/submit", s.handleSubmit)
	}
	return mux
}

// handleRoot serves the front page. A ?search= parameter switches the
// same route to search results.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var (
		stories []StoryRender
		err     error
	)
	if search := r.URL.Query().Get("search"); search != "" {
		stories, err = s.store.QuerySearch(r.Context(), search, queryLimit(r))
	} else {
		stories, err = s.store.QueryFrontPage(r.Context(), queryLimit(r))
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stories": emptyIfNil(stories)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	stories, err := s.store.QuerySearch(r.Context(), q, queryLimit(r))
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "stories": emptyIfNil(stories)})
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	id, err := ParseStoryIdentifier(strings.TrimPrefix(r.URL.Path, "/story/"))
	if err != nil {
		http.Error(w, "bad story id", http.StatusBadRequest)
		return
	}
	render, err := s.store.GetStory(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if render == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, render)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sum, err := s.store.Summary(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writer, ok := s.store.(StorageWriter)
	if !ok {
		http.Error(w, "index is read-only", http.StatusForbidden)
		return
	}
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	sc, err := s.submitter.Scrape(r.Context(), rawURL)
	if err != nil {
		s.logger.Warn("submit failed", "url", rawURL, "error", err)
		http.Error(w, "could not scrape page", http.StatusBadGateway)
		return
	}
	if err := writer.InsertScrapes(r.Context(), sc); err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"title": sc.Title, "url": sc.URL})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// queryLimit reads ?limit=, 0 when absent so storage applies its default.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func emptyIfNil(stories []StoryRender) []StoryRender {
	if stories == nil {
		return []StoryRender{}
	}
	return stories
}
