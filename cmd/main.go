// courtprior estimates position-zone Beta priors from a season of shots
// and shrinks each player's zone shooting toward them.
//
// Usage:
//
//	courtprior run    --shots=<csv|xlsx> [--roster=<file>] [--priors=<file>] [--out=<dir>]
//	courtprior serve  [--shots=<file> ...]
//	courtprior lookup <player-name> | --zone=<zone> [--top=<n>]
//	courtprior synth  --out=<dir> [--seed=<n>]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/courtprior/internal/adapters/sqlstore"
	service "github.com/okian/courtprior/internal/app"
	"github.com/okian/courtprior/internal/config"
	"github.com/okian/courtprior/pkg/logger"
	"github.com/okian/courtprior/pkg/metrics"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	envFile    string
}

var rootCmd = &cobra.Command{
	Use:   "courtprior",
	Short: "Empirical-Bayes shooting percentages by court zone",
	Long: "courtprior pools a season of field-goal attempts into Beta priors per\n" +
		"position and court zone, then computes each player's posterior make\n" +
		"rate with a central credible interval.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configPath, "config", "", "YAML config file (overrides $"+config.EnvConfig+")")
	f.StringVar(&rootFlags.envFile, "env-file", "", "dotenv file (overrides $"+config.EnvDotFile+")")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.Version = version
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig resolves configuration and initializes logging on stderr.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if rootFlags.configPath != "" {
		if err := os.Setenv(config.EnvConfig, rootFlags.configPath); err != nil {
			return nil, err
		}
	}
	if rootFlags.envFile != "" {
		if err := os.Setenv(config.EnvDotFile, rootFlags.envFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitWithOptions(cfg.LogFormat, cmd.ErrOrStderr()); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.SetEnabled(cfg.MetricsEnabled)
	return cfg, nil
}

// newService builds the service described by cfg, opening the archive when
// a store driver is configured. export controls table output.
func newService(ctx context.Context, cfg *config.Config, export bool) (*service.Service, error) {
	opts := []service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithMinAttempts(cfg.MinAttempts),
		service.WithCredibleLevel(cfg.CredibleLevel),
		service.WithSolver(cfg.QuantileTolerance, cfg.QuantileMaxIterations),
		service.WithLeagueFallback(cfg.LeagueFallback),
	}
	if export {
		opts = append(opts, service.WithOutput(cfg.OutputDir, cfg.OutputFormats))
	}
	if cfg.StoreDriver != "" {
		store, err := sqlstore.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		opts = append(opts, service.WithArchive(store))
	}
	return service.New(opts...), nil
}

func inputPaths(cfg *config.Config) service.Paths {
	return service.Paths{
		Shots:        cfg.ShotsPath,
		Roster:       cfg.RosterPath,
		Observations: cfg.ObservationsPath,
		Priors:       cfg.PriorsPath,
	}
}

func hasInput(cfg *config.Config) bool {
	return cfg.ShotsPath != "" || cfg.ObservationsPath != ""
}

// inputFlags are shared by run and serve; set flags override config.
type inputFlags struct {
	shots        string
	roster       string
	observations string
	priors       string
	minAttempts  int64
	league       bool
}

func (p *inputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.shots, "shots", "", "shot log (csv or xlsx)")
	f.StringVar(&p.roster, "roster", "", "roster with position codes")
	f.StringVar(&p.observations, "observations", "", "pre-aggregated player-zone counts")
	f.StringVar(&p.priors, "priors", "", "position-zone prior table to use instead of estimating one")
	f.Int64Var(&p.minAttempts, "min-attempts", 0, "smallest player-zone sample kept")
	f.BoolVar(&p.league, "league-fallback", false, "use the league zone prior for missing position-zone pairs")
}

func (p inputFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("shots") {
		cfg.ShotsPath = p.shots
	}
	if f.Changed("roster") {
		cfg.RosterPath = p.roster
	}
	if f.Changed("observations") {
		cfg.ObservationsPath = p.observations
	}
	if f.Changed("priors") {
		cfg.PriorsPath = p.priors
	}
	if f.Changed("min-attempts") {
		cfg.MinAttempts = p.minAttempts
	}
	if f.Changed("league-fallback") {
		cfg.LeagueFallback = p.league
	}
}
