package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quotepress/internal/config"
	"quotepress/internal/extract"
	"quotepress/internal/feed"
	"quotepress/internal/match"
	"quotepress/internal/model"
	"quotepress/internal/poller"
	"quotepress/internal/printer"
	"quotepress/internal/process"
	"quotepress/internal/scheduler"
	"quotepress/internal/store"
)

func main() {
	// Optional .env for local runs; real environment takes precedence.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	engine, err := match.NewEngine(cfg.MatchPhrase, match.NewJaroWinkler())
	if err != nil {
		log.Fatalf("match engine: %v", err)
	}
	processor := process.New(extract.NewHTTPExtractor(), engine)

	// A bare article id on the command line switches to replay mode.
	if len(os.Args) > 1 {
		if err := replay(cfg, processor, os.Args[1]); err != nil {
			log.Fatalf("replay: %v", err)
		}
		return
	}

	run(cfg, processor)
}

// run starts the continuous service: the poll loop and the print rotation,
// until SIGINT/SIGTERM.
func run(cfg config.Config, processor *process.Processor) {
	st, err := store.Load(cfg.StorePath, cfg.SaveDelay)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	st.Subscribe(func(e store.Event) {
		slog.Info(string(e), "path", cfg.StorePath, "articles", st.Len())
	})
	slog.Info("store loaded", "path", cfg.StorePath, "articles", st.Len())

	var prn printer.Printer
	if cfg.DryRun {
		slog.Info("dry run: printing to console")
		prn = printer.NewConsole(os.Stdout)
	} else {
		prn = printer.NewDevice(cfg.PrinterDevice)
	}

	pol := poller.New(feed.NewFetcher(cfg.FeedURL), processor, st, cfg.PollInterval)
	sched := scheduler.New(st, prn, cfg.PrintInterval, cfg.FromTimeAgo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pol.Run(ctx)
	go sched.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down...")
	cancel()

	// Catch any snapshot still waiting on its debounce.
	if err := st.Flush(); err != nil {
		slog.Error("final store save failed", "error", err)
	}
}

// replay reprocesses one stored article and prints the outcome to the
// operator console. The store file and the timer loops are left untouched.
func replay(cfg config.Config, processor *process.Processor, id string) error {
	st, err := store.Load(cfg.StorePath, cfg.SaveDelay)
	if err != nil {
		return err
	}
	record, ok := st.Get(id)
	if !ok {
		return fmt.Errorf("unknown article id %q", id)
	}

	fmt.Printf("replaying %s (%s)\n", record.ID, record.URL)
	result, err := processor.Process(context.Background(), model.Item{
		ID:   record.ID,
		Link: record.URL,
		Date: mustPublishedAt(record),
	})
	if err != nil {
		return err
	}

	if result.Error != "" {
		fmt.Printf("extraction failed: %s\n", result.Error)
	}
	if len(result.Matches) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, m := range result.Matches {
		fmt.Println(m)
	}
	return nil
}

func mustPublishedAt(a model.Article) time.Time {
	t, _ := a.PublishedAt()
	return t
}
