package progscrape

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	_ "github.com/glebarez/sqlite"
)

const storySchema = `
CREATE TABLE IF NOT EXISTS stories (
	norm         TEXT PRIMARY KEY,
	id           TEXT NOT NULL UNIQUE,
	date         INTEGER NOT NULL,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL,
	tags         TEXT NOT NULL,
	comments     TEXT NOT NULL,
	scrape_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS stories_date ON stories(date);

CREATE TABLE IF NOT EXISTS scrapes (
	scrape_id TEXT PRIMARY KEY,
	norm      TEXT NOT NULL,
	title     TEXT NOT NULL,
	url       TEXT NOT NULL,
	date      INTEGER NOT NULL,
	rank      INTEGER NOT NULL,
	tags      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS scrapes_norm ON scrapes(norm);

CREATE TABLE IF NOT EXISTS tokens (
	token TEXT NOT NULL,
	norm  TEXT NOT NULL,
	PRIMARY KEY (token, norm)
);
CREATE INDEX IF NOT EXISTS tokens_norm ON tokens(norm);
`

// StoryIndex is the SQLite-backed Storage. Scrapes are the source of
// truth; the stories and tokens tables are rebuilt from them whenever a
// story changes.
type StoryIndex struct {
	db  *sql.DB
	gen *SearchFieldGenerator
}

var _ StorageWriter = (*StoryIndex)(nil)

// NewStoryIndex opens or creates the index at dbPath. Use ":memory:" for
// a throwaway index. A nil gen uses the default stemmer and tagger.
func NewStoryIndex(dbPath string, gen *SearchFieldGenerator) (*StoryIndex, error) {
	if gen == nil {
		gen = NewSearchFieldGenerator(nil, nil)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open story index: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(storySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create story index schema: %w", err)
	}
	return &StoryIndex{db: db, gen: gen}, nil
}

func (ix *StoryIndex) Close() error { return ix.db.Close() }

func (ix *StoryIndex) InsertScrapes(ctx context.Context, scrapes ...Scrape) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert scrapes: %w", err)
	}
	defer tx.Rollback()

	ins, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO scrapes (scrape_id, norm, title, url, date, rank, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("insert scrapes: %w", err)
	}
	defer ins.Close()

	touched := map[string]struct{}{}
	for _, sc := range scrapes {
		norm := NormalizeURL(sc.URL)
		if norm == "" {
			continue
		}
		_, err := ins.ExecContext(ctx, sc.ID.String(), norm, sc.Title, sc.URL,
			unixOrZero(sc.Date), sc.Rank, marshalJSON(sc.Tags))
		if err != nil {
			return fmt.Errorf("insert scrape %s: %w", sc.ID, err)
		}
		touched[norm] = struct{}{}
	}
	for norm := range touched {
		if err := ix.rebuildStory(ctx, tx, norm); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert scrapes: %w", err)
	}
	return nil
}

// rebuildStory regenerates one story row and its token postings from the
// scrapes table.
func (ix *StoryIndex) rebuildStory(ctx context.Context, tx *sql.Tx, norm string) error {
	story, err := loadStoryScrapes(ctx, tx, norm)
	if err != nil {
		return err
	}
	if story == nil {
		return nil
	}
	search := ix.gen.Generate(story.Titles(), story.TagSet(), story.URL())
	render := story.Render(search.Tags)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stories (norm, id, date, title, url, tags, comments, scrape_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(norm) DO UPDATE SET
			id = excluded.id, date = excluded.date, title = excluded.title,
			url = excluded.url, tags = excluded.tags, comments = excluded.comments,
			scrape_count = excluded.scrape_count`,
		norm, render.ID, unixOrZero(story.Date()), render.Title, render.URL,
		marshalJSON(render.Tags), marshalJSON(render.CommentLinks), len(story.Scrapes))
	if err != nil {
		return fmt.Errorf("upsert story %s: %w", norm, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE norm = ?`, norm); err != nil {
		return fmt.Errorf("reindex story %s: %w", norm, err)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO tokens (token, norm) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("reindex story %s: %w", norm, err)
	}
	defer ins.Close()
	for token := range search.SearchTokens {
		if _, err := ins.ExecContext(ctx, token, norm); err != nil {
			return fmt.Errorf("reindex story %s: %w", norm, err)
		}
	}
	return nil
}

// queryer is the common read surface of sql.DB and sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadStoryScrapes folds every stored scrape of one normalized URL back
// into a Story. Returns nil when none exist.
func loadStoryScrapes(ctx context.Context, q queryer, norm string) (*Story, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT scrape_id, title, url, date, rank, tags FROM scrapes WHERE norm = ?`, norm)
	if err != nil {
		return nil, fmt.Errorf("load scrapes for %s: %w", norm, err)
	}
	defer rows.Close()

	var story *Story
	for rows.Next() {
		var (
			rawID, title, url, tagsJSON string
			date                        int64
			rank                        int
		)
		if err := rows.Scan(&rawID, &title, &url, &date, &rank, &tagsJSON); err != nil {
			return nil, fmt.Errorf("load scrapes for %s: %w", norm, err)
		}
		id, err := ParseScrapeID(rawID)
		if err != nil {
			return nil, fmt.Errorf("load scrapes for %s: %w", norm, err)
		}
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			return nil, fmt.Errorf("load scrapes for %s: %w", norm, err)
		}
		sc := Scrape{ID: id, Title: title, URL: url, Date: timeOrZero(date), Rank: rank, Tags: tags}
		if story == nil {
			story = NewStory(sc)
		} else {
			story.Merge(sc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load scrapes for %s: %w", norm, err)
	}
	return story, nil
}

func (ix *StoryIndex) GetStory(ctx context.Context, id StoryIdentifier) (*StoryRender, error) {
	renders, err := ix.queryRenders(ctx,
		`SELECT id, url, title, date, tags, comments FROM stories WHERE id = ?`, id.Base64())
	if err != nil {
		return nil, err
	}
	if len(renders) == 0 {
		return nil, nil
	}
	return &renders[0], nil
}

func (ix *StoryIndex) QueryFrontPage(ctx context.Context, limit int) ([]StoryRender, error) {
	return ix.queryRenders(ctx, `
		SELECT id, url, title, date, tags, comments FROM stories
		ORDER BY date DESC, scrape_count DESC, norm ASC
		LIMIT ?`, limitOrDefault(limit))
}

func (ix *StoryIndex) QuerySearch(ctx context.Context, query string, limit int) ([]StoryRender, error) {
	probes := ix.gen.QueryTokens(query)
	if len(probes) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(probes)), ",")
	args := make([]any, 0, len(probes)+1)
	for _, p := range probes {
		args = append(args, p)
	}
	args = append(args, limitOrDefault(limit))
	return ix.queryRenders(ctx, fmt.Sprintf(`
		SELECT id, url, title, date, tags, comments FROM stories
		WHERE norm IN (SELECT norm FROM tokens WHERE token IN (%s))
		ORDER BY date DESC, scrape_count DESC, norm ASC
		LIMIT ?`, placeholders), args...)
}

func (ix *StoryIndex) Summary(ctx context.Context) (StorageSummary, error) {
	sum := StorageSummary{ByShard: map[string]int{}}
	rows, err := ix.db.QueryContext(ctx, `SELECT date FROM stories`)
	if err != nil {
		return sum, fmt.Errorf("story index summary: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var date int64
		if err := rows.Scan(&date); err != nil {
			return sum, fmt.Errorf("story index summary: %w", err)
		}
		sum.Total++
		sum.ByShard[shardKey(timeOrZero(date))]++
	}
	if err := rows.Err(); err != nil {
		return sum, fmt.Errorf("story index summary: %w", err)
	}
	return sum, nil
}

func (ix *StoryIndex) queryRenders(ctx context.Context, query string, args ...any) ([]StoryRender, error) {
	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	var renders []StoryRender
	for rows.Next() {
		var (
			r                  StoryRender
			date               int64
			tagsJSON, comments string
		)
		if err := rows.Scan(&r.ID, &r.URL, &r.Title, &date, &tagsJSON, &comments); err != nil {
			return nil, fmt.Errorf("query stories: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
			return nil, fmt.Errorf("query stories: %w", err)
		}
		if err := json.Unmarshal([]byte(comments), &r.CommentLinks); err != nil {
			return nil, fmt.Errorf("query stories: %w", err)
		}
		r.Date = timeOrZero(date)
		r.Domain = CleanHost(r.URL)
		r.Age = humanize.Time(r.Date)
		renders = append(renders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	return renders, nil
}

// marshalJSON stores tag lists and link maps as JSON text columns.
func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
