package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/panbanda/gitrends/internal/mcpserver"
	"github.com/panbanda/gitrends/pkg/analytics"
	"github.com/panbanda/gitrends/pkg/indexer"
	"github.com/panbanda/gitrends/pkg/rules"
	"github.com/panbanda/gitrends/pkg/store"
	"github.com/panbanda/gitrends/pkg/watch"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the analytics of
the indexed repository as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "gitrends": {
        "command": "gitrends",
        "args": ["--repo", "/path/to/repo", "mcp"]
      }
    }
  }

Available tools:
  - summary            Overview of the indexed history
  - hotspots           Files or modules by revisions, authors and size
  - change_coupling    Entities that change in the same commits
  - sum_of_couplings   Total co-changes per entity
  - main_developer     Author with the most net added lines
  - commit_spread      Commits per author and module
  - file_history       Metrics of one file over time
  - tree               Hotspot, coupling or main developer tree
  - set_date_range     Restrict analytics to a date range
  - reload             Rebuild after rule file changes
  - reindex            Re-mine the history`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Print the MCP server manifest (server.json) and exit",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Value: true,
				Usage: "Reload when rule files or the index change",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	if c.Bool("manifest") {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs stay on stderr.
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	repoPath, err := filepath.Abs(cfg.Repository.Path)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", cfg.Repository.Path, err)
	}

	live, err := openLive(cfg, logger)
	if err != nil {
		return err
	}
	ix := indexer.New(indexer.WithLogger(logger), indexer.WithWorkers(cfg.Indexing.Workers))

	server := mcpserver.NewServer(version, live,
		mcpserver.WithIndexer(ix, repoPath),
		mcpserver.WithTreeDefaults(mcpserver.TreeDefaults{
			MinRevisions: cfg.Trees.MinRevisions,
			MinRatio:     cfg.Trees.MinRatio,
		}),
		mcpserver.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("watch") {
		w, err := watchDataDir(ctx, cfg.DataDir(), live, logger)
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	logger.WithField("repo", repoPath).Info("Starting MCP server")
	return server.Run(ctx)
}

// watchDataDir reloads the live engine whenever a rule file or a table in
// dataDir changes.
func watchDataDir(ctx context.Context, dataDir string, live *analytics.Live, logger *logrus.Logger) (*watch.Watcher, error) {
	names := append([]string{store.LogFile, store.EntriesFile}, rules.Files...)
	w, err := watch.NewWatcher(dataDir, names, 0, watch.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dataDir, err)
	}
	w.SetCallback(func() {
		if _, err := live.Reload(ctx, false); err != nil {
			logger.WithError(err).Warn("Reload after change failed")
		}
	})
	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Warn("Watcher stopped")
		}
	}()
	return w, nil
}
