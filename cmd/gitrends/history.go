package main

import (
	"fmt"
	"strings"

	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/urfave/cli/v2"
)

func summaryCmd() *cli.Command {
	return &cli.Command{
		Name:   "summary",
		Usage:  "Overview of the indexed history",
		Action: runSummaryCmd,
	}
}

func runSummaryCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	s := q.engine.Summary()

	var overview strings.Builder
	fmt.Fprintf(&overview, "Revisions:   %s\n", output.Count(s.NumRevisions))
	if s.FirstCommit != nil && s.LastCommit != nil {
		fmt.Fprintf(&overview, "Period:      %s to %s (last commit %s)\n",
			output.Date(s.FirstCommit.Date), output.Date(s.LastCommit.Date), output.Ago(s.LastCommit.Date))
	}
	fmt.Fprintf(&overview, "Files:       %s in %s modules\n", output.Count(s.NumFiles), output.Count(s.NumModules))
	fmt.Fprintf(&overview, "Code lines:  %s\n", output.Count(s.NumCodeLines))
	fmt.Fprintf(&overview, "Revisions per file: mean %s, std dev %s, median %s, p90 %s, max %s",
		output.Float(s.FileRevisions.Mean), output.Float(s.FileRevisions.StdDev),
		output.Float(s.FileRevisions.Median), output.Float(s.FileRevisions.P90), output.Count(s.FileRevisions.Max))

	authorRows := make([][]string, len(s.TopAuthors))
	for i, a := range s.TopAuthors {
		authorRows[i] = []string{a.Name, output.Count(a.NumRevisions)}
	}
	changedRows := make([][]string, len(s.LastChangedFiles))
	for i, f := range s.LastChangedFiles {
		changedRows[i] = []string{f.Name, f.LastRevision, output.Date(f.LastDate)}
	}
	largestRows := make([][]string, len(s.TopCodeFiles))
	for i, f := range s.TopCodeFiles {
		largestRows[i] = []string{f.Name, output.Count(f.NumCodeLines)}
	}

	report := &output.Report{
		Title: "Repository Summary",
		Sections: []output.Renderable{
			&output.Section{Content: overview.String()},
			output.NewTable("Top Authors", []string{"Author", "Revisions"}, authorRows, nil, nil),
			output.NewTable("Last Changed Files", []string{"File", "Revision", "Date"}, changedRows, nil, nil),
			output.NewTable("Largest Files", []string{"File", "Code Lines"}, largestRows, nil, nil),
		},
		Data: s,
	}
	return q.formatter.Output(report)
}

func logCmd() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "List indexed commits, oldest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "last",
				Usage: "Show only the last N commits",
			},
		},
		Action: runLogCmd,
	}
}

func runLogCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	log := q.engine.Log()
	if n := c.Int("last"); n > 0 && len(log) > n {
		log = log[len(log)-n:]
	}

	rows := make([][]string, len(log))
	for i, entry := range log {
		rows[i] = []string{entry.Revision, output.Date(entry.Date), entry.Author, truncate(firstLine(entry.CommitMessage), 60)}
	}
	table := output.NewTable(
		"Commit Log",
		[]string{"Revision", "Date", "Author", "Message"},
		rows,
		[]string{fmt.Sprintf("%d commits", len(log)), "", "", ""},
		log,
	)
	return q.formatter.Output(table)
}

func filesCmd() *cli.Command {
	return &cli.Command{
		Name:   "files",
		Usage:  "List analyzed files with their latest metrics, largest first",
		Action: runFilesCmd,
	}
}

func runFilesCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	files := q.engine.Files()
	return q.formatter.Output(fileTable("Files", files))
}

func fileTable(title string, files []models.FileEntry) *output.Table {
	var total uint64
	rows := make([][]string, len(files))
	for i, f := range files {
		total += f.NumCodeLines
		rows[i] = []string{
			f.Name,
			output.Count(f.NumCodeLines),
			output.Count(f.NumCommentLines),
			output.Count(f.NumBlankLines),
			output.Float(float64(f.AvgIndentLevels)),
			output.Date(f.LastDate),
		}
	}
	return output.NewTable(
		title,
		[]string{"File", "Code", "Comments", "Blank", "Avg Indent", "Last Changed"},
		rows,
		[]string{fmt.Sprintf("%d files", len(files)), output.Count(total), "", "", "", ""},
		files,
	)
}

func modulesCmd() *cli.Command {
	return &cli.Command{
		Name:      "modules",
		Usage:     "List modules, or the files of one module",
		ArgsUsage: "[module]",
		Action:    runModulesCmd,
	}
}

func runModulesCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	if name := c.Args().First(); name != "" {
		files, err := q.engine.ModuleFiles(name)
		if err != nil {
			return err
		}
		return q.formatter.Output(fileTable("Module "+name, files))
	}

	modules := q.engine.Modules()
	rows := make([][]string, len(modules))
	for i, m := range modules {
		rows[i] = []string{m.Name, output.Count(uint64(len(m.Files))), output.Count(m.NumCodeLines)}
	}
	table := output.NewTable(
		"Modules",
		[]string{"Module", "Files", "Code Lines"},
		rows,
		[]string{fmt.Sprintf("%d modules", len(modules)), "", ""},
		modules,
	)
	return q.formatter.Output(table)
}

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "Show the metrics of a file at every revision that changed it",
		ArgsUsage: "<file>",
		Action:    runHistoryCmd,
	}
}

func runHistoryCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("history takes exactly one file, got %d arguments", c.NArg())
	}
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	file := c.Args().First()
	history, err := q.engine.FileHistory(file)
	if err != nil {
		return err
	}

	rows := make([][]string, len(history))
	for i, h := range history {
		rows[i] = []string{
			h.Revision,
			output.Date(h.Date),
			output.Count(h.NumCodeLines),
			fmt.Sprintf("+%d", h.AddedLines),
			fmt.Sprintf("-%d", h.RemovedLines),
			output.Float(float64(h.AvgIndentLevels)),
		}
	}
	table := output.NewTable(
		"History of "+file,
		[]string{"Revision", "Date", "Code", "Added", "Removed", "Avg Indent"},
		rows,
		nil,
		history,
	)
	return q.formatter.Output(table)
}
