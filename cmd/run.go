package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/courtprior/internal/app"
)

var errNoInput = errors.New("no input: set --shots or --observations")

var runFlags struct {
	inputFlags
	out      string
	formats  []string
	noExport bool
	asJSON   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Estimate priors and posteriors once and export the tables",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	runFlags.register(runCmd)
	f := runCmd.Flags()
	f.StringVarP(&runFlags.out, "out", "o", "", "output directory (default from config)")
	f.StringSliceVar(&runFlags.formats, "format", nil, "export formats: csv, json, xlsx")
	f.BoolVar(&runFlags.noExport, "no-export", false, "skip writing output tables")
	f.BoolVar(&runFlags.asJSON, "json", false, "print the run result as JSON")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runFlags.apply(cmd, cfg)
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = runFlags.out
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormats = runFlags.formats
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !hasInput(cfg) {
		return errNoInput
	}

	in, err := service.ReadInputs(inputPaths(cfg))
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	svc, err := newService(cmd.Context(), cfg, !runFlags.noExport)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Run(cmd.Context(), in)
	if err != nil {
		return err
	}
	if runFlags.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printResult(cmd.OutOrStdout(), res)
}
