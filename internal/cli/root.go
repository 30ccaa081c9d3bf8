// Package cli implements the koun command-line tool. It reads a session
// sheet, runs the tally and prints the summary or draws the table as PNG.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/sheet"
	service "github.com/acircuit-ctrlV/badminton-koun/internal/app"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/tally"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	verbose  bool
	jsonLogs bool
}

// tariffFlags are the pricing flags of tally and render.
type tariffFlags struct {
	perUnit   float64
	fee       float64
	court     float64
	reference float64
	marker    string
}

func (f *tariffFlags) register(cmd *cobra.Command) {
	d := service.DefaultTariffs
	cmd.Flags().Float64Var(&f.perUnit, "per-unit", d.PerUnitCost.InexactFloat64(), "Cost of one usage mark")
	cmd.Flags().Float64Var(&f.fee, "fee", d.PerPersonFlatFee.InexactFloat64(), "Flat fee added to every named player")
	cmd.Flags().Float64Var(&f.court, "court", d.CourtRentalFee.InexactFloat64(), "Court rental added to the legacy cost")
	cmd.Flags().Float64Var(&f.reference, "reference", d.ReferencePerUnitCost.InexactFloat64(), "Reference cost of one shuttlecock")
	cmd.Flags().StringVar(&f.marker, "marker", string(tally.DefaultMarker), "Character counted in game cells")
}

func (f *tariffFlags) tariffs() model.Tariffs {
	return model.NewTariffs(f.perUnit, f.fee, f.court, f.reference)
}

func (f *tariffFlags) markerRune() (rune, error) {
	if utf8.RuneCountInString(f.marker) != 1 {
		return 0, fmt.Errorf("marker must be a single character, got %q", f.marker)
	}
	r, _ := utf8.DecodeRuneInString(f.marker)
	return r, nil
}

// NewRootCommand builds the koun command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "koun",
		Short: "Badminton session cost calculator",
		Long: `koun reads a session sheet (CSV or XLSX) with one row per player and one
column per game, counts the usage marks, prices every player and compares the
result with the legacy shuttlecock pricing.

Example Usage:
  koun tally --file friday.xlsx --per-unit 20 --fee 60
  koun tally --file friday.csv --format yaml --out friday-priced.xlsx
  koun render --file friday.xlsx --label 2026-10-19 --calculate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd.ErrOrStderr(), opts)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&opts.jsonLogs, "json-logs", false, "Write logs as JSON")

	root.AddCommand(newTallyCommand(), newRenderCommand(), newVersionCommand())
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setupLogging sends logs to w. Only warnings show unless verbose is set.
func setupLogging(w io.Writer, opts *globalOptions) error {
	if err := logger.Init(logger.WithWriter(w), logger.WithJSON(opts.jsonLogs)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// newService builds a stateless service for one command run.
func newService(marker rune) *service.Service {
	log := logger.Named("koun")
	return service.New(
		service.WithLogger(log),
		service.WithEngine(tally.NewEngine(
			tally.WithMarker(marker),
			tally.WithLogger(log.Named("tally")),
		)),
	)
}

// readSheet loads the table stored at path.
func readSheet(path string) (model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Table{}, fmt.Errorf("open sheet: %w", err)
	}
	defer func() { _ = f.Close() }()
	return sheet.Read(path, f)
}

// writeFile creates path and fills it with write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
