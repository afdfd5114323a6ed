package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/panbanda/gitrends/pkg/store"
	"github.com/urfave/cli/v2"
)

func datesCmd() *cli.Command {
	return &cli.Command{
		Name:  "dates",
		Usage: "Show or set the date range analytics are restricted to",
		Description: `Without flags, prints the stored date range. Dates are YYYY-MM-DD (UTC)
or unix seconds; both bounds are inclusive. The range is stored in the data
directory and used by every later query and by the MCP server. A range in the
config file's [querying] section overrides the stored one.

Examples:
  gitrends dates --min 2024-01-01
  gitrends dates --min 2024-01-01 --max 2024-06-30
  gitrends dates --clear`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "min",
				Usage: "Earliest commit date",
			},
			&cli.StringFlag{
				Name:  "max",
				Usage: "Latest commit date",
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Remove the stored range",
			},
		},
		Action: runDatesCmd,
	}
}

func runDatesCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	state, err := store.OpenState(cfg.DataDir())
	if err != nil {
		return err
	}
	defer state.Close()

	r, err := state.DateRange()
	if err != nil {
		return err
	}

	changed := false
	if c.Bool("clear") {
		r = models.DateRange{}
		changed = true
	}
	if c.IsSet("min") {
		v, err := parseDate(c.String("min"), false)
		if err != nil {
			return fmt.Errorf("--min: %w", err)
		}
		r.MinDate = &v
		changed = true
	}
	if c.IsSet("max") {
		v, err := parseDate(c.String("max"), true)
		if err != nil {
			return fmt.Errorf("--max: %w", err)
		}
		r.MaxDate = &v
		changed = true
	}
	if r.Min() > r.Max() {
		return fmt.Errorf("min date %s is after max date %s", output.Date(r.Min()), output.Date(r.Max()))
	}

	if changed {
		if err := state.SetDateRange(r); err != nil {
			return err
		}
		color.Green("Date range set to %s", describeRange(r))
		return nil
	}
	fmt.Println(describeRange(r))
	return nil
}

// parseDate accepts YYYY-MM-DD or unix seconds. A day given as the upper
// bound covers the whole day.
func parseDate(s string, endOfDay bool) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: use YYYY-MM-DD or unix seconds", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t.Unix(), nil
}

func describeRange(r models.DateRange) string {
	lo, hi := "beginning", "now"
	if r.MinDate != nil {
		lo = output.Date(*r.MinDate)
	}
	if r.MaxDate != nil {
		hi = output.Date(*r.MaxDate)
	}
	if r.MinDate == nil && r.MaxDate == nil {
		return "all history"
	}
	return lo + " to " + hi
}
