package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	progscrape "github.com/CodanoCode/progscrape"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to YAML config")
		addr       = flag.String("addr", "", "listen address, overrides config")
		importPath = flag.String("import", "", "import a legacy gzipped JSON dump and exit")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(*verbose)}))
	slog.SetDefault(logger)

	cfg := progscrape.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = progscrape.LoadConfig(*configPath)
		if err != nil {
			return err
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	gen := progscrape.NewSearchFieldGenerator(nil, progscrape.NewTagger(cfg.Tagger))
	index, err := progscrape.NewStoryIndex(cfg.Database, gen)
	if err != nil {
		return err
	}
	defer index.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *importPath != "" {
		return runImport(ctx, logger, *importPath, index)
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout()}
	runner := progscrape.NewRunner(cfg.Fetchers(), index, client, logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sched := progscrape.NewScheduler(loc)
	if err := sched.Schedule(cfg.Schedule, func() { runner.RunOnce(ctx) }); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	mux := progscrape.NewMux(index,
		progscrape.WithSubmitter(progscrape.NewWebScraper(client)),
		progscrape.WithLogger(logger))
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	// First scrape right away so the front page is not empty until the
	// schedule fires.
	go runner.RunOnce(ctx)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runImport(ctx context.Context, logger *slog.Logger, path string, index *progscrape.StoryIndex) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	start := time.Now()
	n, err := progscrape.ImportLegacy(ctx, f, index)
	if err != nil {
		return err
	}
	logger.Info("legacy import finished", "stories", n, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
