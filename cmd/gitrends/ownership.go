package main

import (
	"fmt"

	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/urfave/cli/v2"
)

func mainDevCmd() *cli.Command {
	return &cli.Command{
		Name:    "main-dev",
		Aliases: []string{"owners"},
		Usage:   "Name the author with the most net added lines per file or module",
		Flags:   []cli.Flag{modulesFlag(), topFlag()},
		Action:  runMainDevCmd,
	}
}

func runMainDevCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	modules := c.Bool("modules")
	var entries []models.MainDeveloperEntry
	if modules {
		entries = q.engine.ModulesMainDeveloper()
	} else {
		entries = q.engine.FilesMainDeveloper()
	}
	if top := c.Int("top"); top > 0 && len(entries) > top {
		entries = entries[:top]
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		share := e.Share()
		rows[i] = []string{
			e.Name,
			e.MainDeveloper,
			fmt.Sprintf("%d", e.NetAddedLines),
			fmt.Sprintf("%d", e.TotalNetAddedLines),
			output.RatioColor(share, output.Ratio(share)),
		}
	}
	table := output.NewTable(
		fmt.Sprintf("%s Main Developers", entityLabel(modules)),
		[]string{entityLabel(modules), "Main Developer", "Net Added", "Total Net Added", "Share"},
		rows,
		nil,
		entries,
	)
	return q.formatter.Output(table)
}

func spreadCmd() *cli.Command {
	return &cli.Command{
		Name:      "spread",
		Usage:     "Count each author's commits per module",
		ArgsUsage: "[module]",
		Action:    runSpreadCmd,
	}
}

func runSpreadCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	spread := q.engine.CommitSpread()
	if module := c.Args().First(); module != "" {
		var filtered []models.CommitSpreadEntry
		for _, e := range spread {
			if e.ModuleName == module {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("unknown module %q", module)
		}
		spread = filtered
	}

	rows := make([][]string, len(spread))
	for i, e := range spread {
		rows[i] = []string{e.ModuleName, e.Author, output.Count(e.NumRevisions)}
	}
	table := output.NewTable(
		"Commit Spread",
		[]string{"Module", "Author", "Revisions"},
		rows,
		nil,
		spread,
	)
	return q.formatter.Output(table)
}
