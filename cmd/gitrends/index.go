package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/gitrends/internal/progress"
	"github.com/panbanda/gitrends/pkg/indexer"
	"github.com/urfave/cli/v2"
)

func indexCmd() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Mine the git history into the index",
		Description: `Walks every commit reachable from HEAD, classifies the lines of each
changed file and writes the commit log and file revision tables to the data
directory. An existing index is kept unless --force is given.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Rebuild the index even if it exists",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Commits classified concurrently (default from config)",
			},
		},
		Action: runIndexCmd,
	}
}

func runIndexCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	repoPath, err := filepath.Abs(cfg.Repository.Path)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", cfg.Repository.Path, err)
	}
	workers := cfg.Indexing.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}
	force := cfg.Indexing.Force || c.Bool("force")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := progress.NewSpinner("Indexing commits...")
	ix := indexer.New(
		indexer.WithLogger(logger),
		indexer.WithWorkers(workers),
		indexer.WithProgress(tracker.Tick),
	)
	result, err := ix.Index(ctx, repoPath, cfg.DataDir(), force)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("indexing failed: %w", err)
	}
	if result.Skipped {
		tracker.FinishSkipped("index exists, use --force to rebuild")
		return nil
	}
	tracker.FinishSuccess()

	color.Green("Indexed %d commits (%d file revisions) in %s", result.Commits, result.Entries, result.Elapsed.Round(time.Millisecond))
	return nil
}
