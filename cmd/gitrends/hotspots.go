package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/urfave/cli/v2"
)

func hotspotsCmd() *cli.Command {
	return &cli.Command{
		Name:    "hotspots",
		Aliases: []string{"hs"},
		Usage:   "Rank files or modules by revisions, authors and size",
		Flags:   []cli.Flag{modulesFlag(), topFlag()},
		Action:  runHotspotsCmd,
	}
}

func runHotspotsCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	modules := c.Bool("modules")
	top := c.Int("top")

	var hotspots []models.HotspotEntry
	if modules {
		hotspots = q.engine.ModuleHotspots(top)
	} else {
		hotspots = q.engine.FileHotspots(top)
	}

	var maxRevisions uint64
	for _, h := range hotspots {
		maxRevisions = max(maxRevisions, h.NumRevisions)
	}

	rows := make([][]string, len(hotspots))
	for i, h := range hotspots {
		revisions := output.Count(h.NumRevisions)
		if maxRevisions > 0 && h.NumRevisions*4 >= maxRevisions*3 {
			revisions = color.RedString(revisions)
		}
		rows[i] = []string{
			h.Name,
			revisions,
			output.Count(h.NumAuthors),
			output.Count(h.NumCodeLines),
			output.Float(float64(h.AvgIndentLevels)),
		}
	}

	title := fmt.Sprintf("%s Hotspots", entityLabel(modules))
	if top > 0 {
		title = fmt.Sprintf("%s (Top %d)", title, top)
	}
	table := output.NewTable(
		title,
		[]string{entityLabel(modules), "Revisions", "Authors", "Code Lines", "Avg Indent"},
		rows,
		nil,
		hotspots,
	)
	return q.formatter.Output(table)
}
