package progscrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner downloads every fetcher's pages and folds the scrapes into
// storage.
type Runner struct {
	fetchers []Fetcher
	store    StorageWriter
	client   *http.Client
	logger   *slog.Logger
}

func NewRunner(fetchers []Fetcher, store StorageWriter, client *http.Client, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{fetchers: fetchers, store: store, client: client, logger: logger}
}

// RunOnce is best effort: a failing page or fetcher is logged and the
// rest still run.
func (r *Runner) RunOnce(ctx context.Context) {
	for _, f := range r.fetchers {
		var scrapes []Scrape
		for _, url := range f.URLs() {
			body, err := Download(ctx, r.client, url)
			if err != nil {
				r.logger.Warn("scrape download failed", "source", f.Source(), "url", url, "error", err)
				continue
			}
			parsed, err := f.Parse(body)
			if err != nil {
				r.logger.Warn("scrape parse failed", "source", f.Source(), "url", url, "error", err)
				continue
			}
			scrapes = append(scrapes, parsed...)
		}
		if len(scrapes) == 0 {
			continue
		}
		if err := r.store.InsertScrapes(ctx, scrapes...); err != nil {
			r.logger.Warn("scrape insert failed", "source", f.Source(), "error", err)
			continue
		}
		r.logger.Info("scraped", "source", f.Source(), "scrapes", len(scrapes))
	}
}

// Scheduler runs the scrape loop on a cron schedule.
type Scheduler struct {
	cron  *cron.Cron
	entry cron.EntryID
}

func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{cron: cron.New(cron.WithLocation(loc))}
}

// Schedule registers job to run under the cron spec, replacing whatever
// was scheduled before.
func (s *Scheduler) Schedule(spec string, job func()) error {
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry = id
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }
