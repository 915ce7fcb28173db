package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/okian/courtprior/internal/adapters/repository"
	service "github.com/okian/courtprior/internal/app"
	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/summary"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printResult(w io.Writer, res *service.Result) error {
	fmt.Fprintf(w, "Run:         %s (%s)\n", res.RunID, res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Shots:       %d read, %d kept, %d duplicates\n", res.Ingest.Read, res.Ingest.Kept, res.Ingest.Duplicates)
	fmt.Fprintf(w, "Priors:      %d position-zone pairs\n", len(res.Priors))
	fmt.Fprintf(w, "Posteriors:  %d of %d observations", len(res.Report.Posteriors), res.Report.Observations)
	if n := res.Report.TotalSkipped(); n > 0 {
		fmt.Fprintf(w, ", %d skipped %v", n, res.Report.Skipped)
	}
	if n := len(res.Report.NumericFailures); n > 0 {
		fmt.Fprintf(w, ", %d numeric failures", n)
	}
	if res.Report.Fallbacks > 0 {
		fmt.Fprintf(w, ", %d on league priors", res.Report.Fallbacks)
	}
	fmt.Fprintln(w)
	for _, p := range res.Exported {
		fmt.Fprintf(w, "Wrote:       %s\n", p)
	}

	s := res.Summary
	fmt.Fprintf(w, "\nMean |shrinkage| %.4f, mean CI width %.4f, median attempts %.0f\n\n", s.MeanAbsShrinkage, s.MeanCIWidth, s.MedianAttempts)

	tw := newTable(w)
	fmt.Fprintln(tw, "SAMPLE SIZE\tROWS\tMEAN SHRINKAGE\tSTD SHRINKAGE\tMEAN CI WIDTH")
	for _, b := range s.Buckets {
		fmt.Fprintf(tw, "%s\t%d\t%+.4f\t%.4f\t%.4f\n", b.Label, b.Count, b.MeanShrinkage, b.StdShrinkage, b.MeanCIWidth)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nMost regularized down:")
	if err := printRows(w, s.RegularizedDown); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nMost regularized up:")
	return printRows(w, s.RegularizedUp)
}

func printRows(w io.Writer, rows []model.PlayerZonePosterior) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "PLAYER\tPOSITION\tZONE\tFG\tRAW\tPOSTERIOR\tCI\tSHRINKAGE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%.3f\t%.3f\t[%.3f, %.3f]\t%+.3f\n",
			r.PlayerName, r.Position, r.Zone, r.Makes, r.Attempts, r.RawPct, r.PosteriorMean, r.CILower, r.CIUpper, r.Shrinkage)
	}
	return tw.Flush()
}

func printProfile(w io.Writer, p summary.Profile) error {
	fmt.Fprintf(w, "%s (%s, %s)\n", p.PlayerName, p.PlayerID, p.Position)
	fmt.Fprintf(w, "Best zone: %s, most attempts: %s, most confident: %s\n", p.BestZone, p.MostAttemptsZone, p.MostConfidentZone)
	return printRows(w, p.Zones)
}

func printEntries(w io.Writer, entries []repository.Entry) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "RANK\tPLAYER\tPOSITION\tFG\tRAW\tPOSTERIOR\tCI")
	for _, e := range entries {
		r := e.Posterior
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%.3f\t%.3f\t[%.3f, %.3f]\n",
			e.Rank, r.PlayerName, r.Position, r.Makes, r.Attempts, r.RawPct, r.PosteriorMean, r.CILower, r.CIUpper)
	}
	return tw.Flush()
}
