package progscrape

import (
	"context"
	"time"
)

const defaultQueryLimit = 30

// Storage is the read side of a story index.
type Storage interface {
	// GetStory returns nil when no story has the given id.
	GetStory(ctx context.Context, id StoryIdentifier) (*StoryRender, error)
	// QueryFrontPage returns the newest stories, most recent first.
	QueryFrontPage(ctx context.Context, limit int) ([]StoryRender, error)
	// QuerySearch returns stories whose search field matches the query,
	// most recent first.
	QuerySearch(ctx context.Context, query string, limit int) ([]StoryRender, error)
	// Summary reports story counts overall and per month shard.
	Summary(ctx context.Context) (StorageSummary, error)
}

// StorageWriter adds scrape ingestion on top of Storage.
type StorageWriter interface {
	Storage
	// InsertScrapes folds scrapes into stories, merging scrapes of the
	// same normalized URL, and regenerates the search field of every
	// story touched.
	InsertScrapes(ctx context.Context, scrapes ...Scrape) error
}

type StorageSummary struct {
	Total   int            `json:"total"`
	ByShard map[string]int `json:"by_shard"`
}

// shardKey buckets stories by month.
func shardKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultQueryLimit
	}
	return limit
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
