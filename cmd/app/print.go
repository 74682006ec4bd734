package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/example/daygap/internal"
)

func printStatus(rep *internal.StatusReport) {
	bold := color.New(color.Bold)

	enabled := color.GreenString("on")
	if !rep.Enabled {
		enabled = color.RedString("off")
	}
	folder := rep.Folder
	if folder == "" {
		folder = "(vault root)"
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Daily notes"), enabled)
	tbl.AddRow(bold.Sprint("Folder"), folder)
	tbl.AddRow(bold.Sprint("Pattern"), rep.Pattern)
	tbl.AddRow(bold.Sprint("Notes"), fmt.Sprintf("%d", rep.Notes))
	if rep.Notes > 0 {
		tbl.AddRow(bold.Sprint("First"), rep.First.String())
		tbl.AddRow(bold.Sprint("Last"), rep.Last.String())
	}
	today := rep.Today.String()
	if rep.TodayNote {
		today += color.GreenString("  (note exists)")
	} else {
		today += color.YellowString("  (no note yet)")
	}
	tbl.AddRow(bold.Sprint("Today"), today)
	tbl.AddRow(bold.Sprint("Create today"), onOff(rep.Settings.CreateToday))
	tbl.AddRow(bold.Sprint("Backfill missed"), onOff(rep.Settings.BackfillMissed))
	tbl.AddRow(bold.Sprint("Confirm threshold"), fmt.Sprintf("%d days", rep.Settings.ConfirmThreshold))
	_, _ = fmt.Fprintln(color.Output, tbl)

	switch n := len(rep.Missing); {
	case !rep.Enabled:
	case n == 0:
		color.Green("No missing daily notes.")
	case n == 1:
		color.Yellow("1 daily note is missing: %s", rep.Missing[0])
	default:
		color.Yellow("%d daily notes are missing (%s through %s).",
			n, rep.Missing[0], rep.Missing[n-1])
	}

	if len(rep.Malformed) > 0 {
		color.Yellow("%d undated files in the daily notes folder:", len(rep.Malformed))
		faint := color.New(color.Faint)
		for _, p := range rep.Malformed {
			_, _ = faint.Printf("  %s\n", p)
		}
	}
}

func printBackfill(rep *internal.BackfillReport) {
	if rep.Result == nil {
		if len(rep.Missing) == 0 {
			color.Green("No missing daily notes between %s and %s.", rep.Start, rep.End)
			return
		}
		color.Yellow("%d missing daily notes between %s and %s:", len(rep.Missing), rep.Start, rep.End)
		tbl := uitable.New()
		tbl.Separator = "  "
		for _, d := range rep.Missing {
			tbl.AddRow(" ", d.String())
		}
		_, _ = fmt.Fprintln(color.Output, tbl)
		_, _ = color.New(color.Faint).Println("Run again with --yes to create them.")
		return
	}

	res := rep.Result
	color.Green("%s", res.Message())
	if len(res.Created) > 0 {
		tbl := uitable.New()
		tbl.Separator = "  "
		for _, n := range res.Created {
			tbl.AddRow(" ", n.Date.String(), n.Path)
		}
		_, _ = fmt.Fprintln(color.Output, tbl)
	}
	for _, f := range res.Failed {
		color.Red("  %s: %v", f.Date, f.Err)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
