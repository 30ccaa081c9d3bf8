package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/sheet"
	service "github.com/acircuit-ctrlV/badminton-koun/internal/app"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/tally"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
)

// Report output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type tallyOptions struct {
	tariffFlags
	file   string
	out    string
	format string
}

func newTallyCommand() *cobra.Command {
	opts := &tallyOptions{}
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Price every player of a session sheet",
		Long: `Read a session sheet, count the usage marks of every named player and
print the per-player prices together with the session summary.

With --out the processed table is written back as CSV or XLSX; the
extension of the path selects the format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTally(cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Session sheet to read (.csv or .xlsx)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the processed table to this .csv or .xlsx file")
	cmd.Flags().StringVar(&opts.format, "format", outputText, "Report format: text, json or yaml")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runTally(cmd *cobra.Command, opts *tallyOptions) error {
	ctx := cmd.Context()
	switch opts.format {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown report format %q", opts.format)
	}
	marker, err := opts.markerRune()
	if err != nil {
		return err
	}

	table, err := readSheet(opts.file)
	if err != nil {
		return err
	}
	calc, err := newService(marker).Tally(ctx, table, opts.tariffs())
	if errors.Is(err, service.ErrNothingToCompute) {
		_, err = fmt.Fprintln(cmd.ErrOrStderr(), tally.NothingToComputeNotice)
		return err
	}
	if err != nil {
		return err
	}

	if opts.out != "" {
		format, err := sheet.FormatOf(opts.out)
		if err != nil {
			return err
		}
		if err := writeFile(opts.out, func(w io.Writer) error {
			return sheet.Write(w, format, calc.Table, &calc.Summary)
		}); err != nil {
			return err
		}
		logger.Named("koun").Info(ctx, "processed table written", logger.String("path", opts.out))
	}

	return printReport(cmd.OutOrStdout(), opts.format, newReport(calc))
}

// playerLine is one priced player of a report.
type playerLine struct {
	Name  string  `json:"name" yaml:"name"`
	Usage int     `json:"usage" yaml:"usage"`
	Price float64 `json:"price" yaml:"price"`
}

// report is the printable outcome of a tally run.
type report struct {
	Players        []playerLine `json:"players" yaml:"players"`
	TotalSlashes   int          `json:"total_slashes" yaml:"total_slashes"`
	Shuttlecocks   float64      `json:"shuttlecocks" yaml:"shuttlecocks"`
	OldSolutionSum float64      `json:"old_solution_sum" yaml:"old_solution_sum"`
	NetPriceSum    float64      `json:"net_price_sum" yaml:"net_price_sum"`
	Delta          float64      `json:"new_solution_minus_old_solution" yaml:"new_solution_minus_old_solution"`
	SumD           float64      `json:"sum_D" yaml:"sum_D"`
	Warnings       []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newReport(calc service.Calculation) report {
	s := calc.Summary
	r := report{
		Players:        []playerLine{},
		TotalSlashes:   s.TotalUnitsConsumed,
		Shuttlecocks:   s.Shuttlecocks().InexactFloat64(),
		OldSolutionSum: s.LegacyTotalCost.InexactFloat64(),
		NetPriceSum:    s.NewTotalCost.InexactFloat64(),
		Delta:          s.CostDelta.InexactFloat64(),
		SumD:           s.SumOfUsageColumn.InexactFloat64(),
		Warnings:       calc.Warnings,
	}
	for _, row := range calc.Table.Rows {
		if row.Name() == "" {
			continue
		}
		price, ok := row.At(model.ColPrice).Number()
		if !ok {
			continue
		}
		usage, _ := row.At(model.ColTotalUsage).Number()
		r.Players = append(r.Players, playerLine{
			Name:  row.Name(),
			Usage: int(usage.IntPart()),
			Price: price.InexactFloat64(),
		})
	}
	return r
}

func printReport(w io.Writer, format string, r report) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return printText(w, r)
	}
}

func printText(w io.Writer, r report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tUSAGE\tPRICE")
	for _, p := range r.Players {
		fmt.Fprintf(tw, "%s\t%d\t%g\n", p.Name, p.Usage, p.Price)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "total_slashes\t%d\n", r.TotalSlashes)
	fmt.Fprintf(tw, "shuttlecocks\t%g\n", r.Shuttlecocks)
	fmt.Fprintf(tw, "old_solution_sum\t%g\n", r.OldSolutionSum)
	fmt.Fprintf(tw, "net_price_sum\t%g\n", r.NetPriceSum)
	fmt.Fprintf(tw, "new_solution_minus_old_solution\t%g\n", r.Delta)
	fmt.Fprintf(tw, "sum_D\t%g\n", r.SumD)
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(r.Warnings) > 0 {
		_, err := fmt.Fprintf(w, "\nwarnings:\n  %s\n", strings.Join(r.Warnings, "\n  "))
		return err
	}
	return nil
}
