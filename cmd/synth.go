package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/courtprior/internal/adapters/tables"
	"github.com/okian/courtprior/internal/synth"
	"github.com/okian/courtprior/pkg/logger"
)

var synthFlags struct {
	out string
	cfg synth.Config
}

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthetic season of shots and a roster",
	Args:  cobra.NoArgs,
	RunE:  runSynth,
}

func init() {
	def := synth.DefaultConfig()
	f := synthCmd.Flags()
	f.StringVarP(&synthFlags.out, "out", "o", "", "output directory (required)")
	f.Int64Var(&synthFlags.cfg.Seed, "seed", def.Seed, "random seed")
	f.IntVar(&synthFlags.cfg.Players, "players", def.Players, "number of players")
	f.IntVar(&synthFlags.cfg.Games, "games", def.Games, "games per player")
	f.IntVar(&synthFlags.cfg.ShotsPerGame, "shots-per-game", def.ShotsPerGame, "mean shots per player per game")
	f.Float64Var(&synthFlags.cfg.DuplicateRate, "duplicate-rate", def.DuplicateRate, "share of shots repeated verbatim")
	f.Float64Var(&synthFlags.cfg.UnmappableRate, "unmappable-rate", def.UnmappableRate, "share of roster rows with an unusable position")
	f.Float64Var(&synthFlags.cfg.BackcourtRate, "backcourt-rate", def.BackcourtRate, "share of shots outside the six zones")
	_ = synthCmd.MarkFlagRequired("out")
}

func runSynth(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	data, err := synth.Generate(synthFlags.cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(synthFlags.out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	shots := filepath.Join(synthFlags.out, "shots.csv")
	if err := tables.WriteFile(shots, func(w io.Writer) error { return tables.WriteShotsCSV(w, data.Shots) }); err != nil {
		return err
	}
	roster := filepath.Join(synthFlags.out, "roster.csv")
	if err := tables.WriteFile(roster, func(w io.Writer) error { return tables.WriteRosterCSV(w, data.Roster) }); err != nil {
		return err
	}

	logger.Named("synth").Info(cmd.Context(), "synthetic season written",
		logger.Int("shots", len(data.Shots)),
		logger.Int("players", len(data.Roster)),
		logger.Any("seed", synthFlags.cfg.Seed),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", shots, roster)
	return nil
}
