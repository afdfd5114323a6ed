package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/urfave/cli/v2"
)

func treeCmd() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Render analytics as a directory tree",
		Description: `Builds a path hierarchy for visualizations. Text and markdown output
draw the tree; json and toon output emit the nested structure.`,
		Subcommands: []*cli.Command{
			{
				Name:   "hotspot",
				Usage:  "Hotspot tree with size and revision/author weights",
				Flags:  []cli.Flag{modulesFlag()},
				Action: runHotspotTreeCmd,
			},
			{
				Name:  "coupling",
				Usage: "Change coupling tree pruned to strong couplings",
				Flags: []cli.Flag{
					modulesFlag(),
					&cli.Uint64Flag{
						Name:  "min-revisions",
						Usage: "Minimum coupled revisions (default from config)",
					},
					&cli.Float64Flag{
						Name:  "min-ratio",
						Usage: "Minimum coupling ratio (default from config)",
					},
				},
				Action: runCouplingTreeCmd,
			},
			{
				Name:    "main-dev",
				Aliases: []string{"main-developer"},
				Usage:   "Main developer tree with sizes",
				Flags:   []cli.Flag{modulesFlag()},
				Action:  runMainDevTreeCmd,
			},
		},
	}
}

// treeView is a Renderable over one of the analytics trees.
type treeView struct {
	title string
	data  any
	lines []string
}

func (t *treeView) RenderData() any {
	return t.data
}

func (t *treeView) RenderText(w io.Writer, colored bool) error {
	fmt.Fprintln(w, t.title)
	fmt.Fprintln(w, strings.Repeat("=", len(t.title)))
	for _, line := range t.lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

func (t *treeView) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "## %s\n\n```\n", t.title)
	for _, line := range t.lines {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, "```")
	return nil
}

// drawTree renders a tree with box-drawing indentation. label formats a
// node; children returns its children.
func drawTree[T any](root T, label func(T) string, children func(T) []T) []string {
	var lines []string
	var walk func(n T, prefix string)
	walk = func(n T, prefix string) {
		kids := children(n)
		for i, kid := range kids {
			branch, indent := "├── ", "│   "
			if i == len(kids)-1 {
				branch, indent = "└── ", "    "
			}
			lines = append(lines, prefix+branch+label(kid))
			walk(kid, prefix+indent)
		}
	}
	walk(root, "")
	return lines
}

func runHotspotTreeCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	tree := q.engine.HotspotTree(!c.Bool("modules"))
	lines := drawTree(tree,
		func(n *models.HotspotTree) string {
			if n.Type == models.NodeTree {
				return n.Name + "/"
			}
			return fmt.Sprintf("%s  size %s, revisions %s, authors %s",
				n.Name, output.Count(n.Size), output.Ratio(n.RevisionWeight), output.Ratio(n.AuthorWeight))
		},
		func(n *models.HotspotTree) []*models.HotspotTree { return n.Children },
	)
	return q.formatter.Output(&treeView{title: "Hotspot Tree", data: tree, lines: lines})
}

func runCouplingTreeCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	minRevisions := q.cfg.Trees.MinRevisions
	if c.IsSet("min-revisions") {
		minRevisions = c.Uint64("min-revisions")
	}
	minRatio := q.cfg.Trees.MinRatio
	if c.IsSet("min-ratio") {
		minRatio = c.Float64("min-ratio")
	}

	tree := q.engine.ChangeCouplingTree(!c.Bool("modules"), minRevisions, minRatio)
	lines := drawTree(tree,
		func(n *models.ChangeCouplingTree) string {
			if n.Type == models.NodeTree {
				return n.Name + "/"
			}
			partners := make([]string, len(n.Couplings))
			for i, p := range n.Couplings {
				partners[i] = fmt.Sprintf("%s (%s)", p.Coupled, output.Ratio(p.CouplingRatio))
			}
			return n.Name + "  -> " + strings.Join(partners, ", ")
		},
		func(n *models.ChangeCouplingTree) []*models.ChangeCouplingTree { return n.Children },
	)
	title := fmt.Sprintf("Change Coupling Tree (min %d revisions, min ratio %s)", minRevisions, output.Ratio(minRatio))
	return q.formatter.Output(&treeView{title: title, data: tree, lines: lines})
}

func runMainDevTreeCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	tree := q.engine.MainDeveloperTree(!c.Bool("modules"))
	lines := drawTree(tree,
		func(n *models.MainDeveloperTree) string {
			if n.Type == models.NodeTree {
				return n.Name + "/"
			}
			return fmt.Sprintf("%s  %s, size %s", n.Name, n.MainDeveloper, output.Count(n.Size))
		},
		func(n *models.MainDeveloperTree) []*models.MainDeveloperTree { return n.Children },
	)
	return q.formatter.Output(&treeView{title: "Main Developer Tree", data: tree, lines: lines})
}
