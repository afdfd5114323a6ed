package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gitrends",
		Usage:   "Git history analytics CLI",
		Version: version,
		Description: `gitrends mines the full commit history of a git repository into a local
index and answers questions about it: which files and modules change most,
what changes together, who owns what and how work spreads across modules.

Run "gitrends index" once, then query with the other commands. Rule files in
the data directory refine the analysis:
  ignore.txt   glob patterns of files to leave out
  modules.txt  "pattern => module" lines grouping files into modules
  authors.txt  "alias => author" lines merging author identities`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"GITRENDS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "Path to the git repository (default from config, else .)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Index directory, relative to the repository unless absolute",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Commands: []*cli.Command{
			indexCmd(),
			summaryCmd(),
			logCmd(),
			filesCmd(),
			modulesCmd(),
			historyCmd(),
			hotspotsCmd(),
			couplingCmd(),
			socCmd(),
			mainDevCmd(),
			spreadCmd(),
			treeCmd(),
			datesCmd(),
			configCmd(),
			initCmd(),
			mcpCmd(),
		},
	}
}
