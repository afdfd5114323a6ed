package main

import (
	"fmt"

	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/urfave/cli/v2"
)

func couplingCmd() *cli.Command {
	return &cli.Command{
		Name:    "coupling",
		Aliases: []string{"cc"},
		Usage:   "Find files or modules that change in the same commits",
		Flags: []cli.Flag{
			modulesFlag(),
			topFlag(),
			&cli.StringFlag{
				Name:  "for",
				Usage: "Only couplings of this file or module",
			},
		},
		Action: runCouplingCmd,
	}
}

func runCouplingCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	modules := c.Bool("modules")
	top := c.Int("top")
	name := c.String("for")

	var couplings []models.ChangeCoupling
	switch {
	case name != "" && modules:
		couplings, err = q.engine.ChangeCouplingsForModule(name, top)
	case name != "":
		couplings, err = q.engine.ChangeCouplingsForFile(name, top)
	case modules:
		couplings = q.engine.ModuleChangeCouplings(top)
	default:
		couplings = q.engine.FileChangeCouplings(top)
	}
	if err != nil {
		return err
	}

	rows := make([][]string, len(couplings))
	for i, cc := range couplings {
		rows[i] = []string{
			cc.LeftName,
			cc.RightName,
			output.Count(cc.CoupledRevisions),
			output.Count(cc.NumLeftRevisions),
			output.Count(cc.NumRightRevisions),
			output.RatioColor(cc.CouplingRatio, output.Ratio(cc.CouplingRatio)),
		}
	}

	title := fmt.Sprintf("%s Change Coupling", entityLabel(modules))
	if name != "" {
		title += " of " + name
	}
	table := output.NewTable(
		title,
		[]string{"Left", "Right", "Coupled", "Left Revisions", "Right Revisions", "Ratio"},
		rows,
		nil,
		couplings,
	)
	return q.formatter.Output(table)
}

func socCmd() *cli.Command {
	return &cli.Command{
		Name:   "soc",
		Usage:  "Rank files or modules by their sum of couplings",
		Flags:  []cli.Flag{modulesFlag(), topFlag()},
		Action: runSocCmd,
	}
}

func runSocCmd(c *cli.Context) error {
	q, err := openQuery(c)
	if err != nil {
		return err
	}
	defer q.Close()

	modules := c.Bool("modules")
	var entries []models.SumOfCouplingEntry
	if modules {
		entries = q.engine.ModuleSumOfCouplings(c.Int("top"))
	} else {
		entries = q.engine.FileSumOfCouplings(c.Int("top"))
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Name, output.Count(e.SumOfCouplings)}
	}
	table := output.NewTable(
		fmt.Sprintf("%s Sum of Couplings", entityLabel(modules)),
		[]string{entityLabel(modules), "Sum of Couplings"},
		rows,
		nil,
		entries,
	)
	return q.formatter.Output(table)
}
