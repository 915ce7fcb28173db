package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/pkg/logger"
)

var errNoMatch = errors.New("no player matches")

var lookupFlags struct {
	inputFlags
	zone        string
	top         int
	minAttempts int64
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [player name]",
	Short: "Show a player's zone posteriors or a zone leaderboard",
	Long: "lookup reads the latest archived run, or computes one from the\n" +
		"configured inputs, and prints either every player whose name contains\n" +
		"the argument or, with --zone, the top players of that zone.",
	Args: cobra.MaximumNArgs(1),
	RunE: runLookup,
}

func init() {
	lookupFlags.register(lookupCmd)
	f := lookupCmd.Flags()
	f.StringVar(&lookupFlags.zone, "zone", "", "print the leaderboard of this zone")
	f.IntVar(&lookupFlags.top, "top", 10, "leaderboard size")
	f.Int64Var(&lookupFlags.minAttempts, "board-min-attempts", 0, "leaderboard attempt floor")
}

func runLookup(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && lookupFlags.zone == "" {
		return errors.New("give a player name or --zone")
	}
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lookupFlags.apply(cmd, cfg)

	svc, err := newService(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	if err := prime(ctx, svc, cfg, logger.Named("lookup")); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if lookupFlags.zone != "" {
		zone, ok := model.ParseZone(lookupFlags.zone)
		if !ok {
			return fmt.Errorf("unknown zone %q (one of %s)", lookupFlags.zone, zoneNames())
		}
		entries, err := svc.TopN(ctx, zone, lookupFlags.top, lookupFlags.minAttempts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", zone)
		if err := printEntries(out, entries); err != nil {
			return err
		}
	}

	if len(args) == 0 {
		return nil
	}
	profiles := svc.Search(ctx, args[0])
	if len(profiles) == 0 {
		return fmt.Errorf("%w %q", errNoMatch, args[0])
	}
	for i, p := range profiles {
		if i > 0 || lookupFlags.zone != "" {
			fmt.Fprintln(out)
		}
		if err := printProfile(out, p); err != nil {
			return err
		}
	}
	return nil
}

func zoneNames() string {
	names := make([]string, len(model.Zones))
	for i, z := range model.Zones {
		names[i] = string(z)
	}
	return strings.Join(names, ", ")
}
