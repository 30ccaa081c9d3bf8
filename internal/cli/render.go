package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	service "github.com/acircuit-ctrlV/badminton-koun/internal/app"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/tally"
	"github.com/acircuit-ctrlV/badminton-koun/internal/render"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
)

type renderOptions struct {
	tariffFlags
	file      string
	label     string
	out       string
	calculate bool
	title     string
	fontPath  string
	fontSize  float64
	ink       string
	paper     string
}

func newRenderCommand() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a session sheet as a PNG image",
		Long: `Draw the session table as a PNG image. The title sits on the first
line with the label boxed beside it; the header and the rows follow in
columns aligned to their widest cell. With --calculate the table is priced
first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Session sheet to read (.csv or .xlsx)")
	cmd.Flags().StringVarP(&opts.label, "label", "l", "", "Label drawn above the table")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "PNG path (default derived from the label)")
	cmd.Flags().BoolVar(&opts.calculate, "calculate", false, "Price the table before drawing it")
	cmd.Flags().StringVar(&opts.title, "title", "", "Title drawn above the table")
	cmd.Flags().StringVar(&opts.fontPath, "font", "", "TrueType or OpenType font file")
	cmd.Flags().Float64Var(&opts.fontSize, "font-size", 14, "Font size in points")
	cmd.Flags().StringVar(&opts.ink, "ink", "", "Text color as #rrggbb (default black)")
	cmd.Flags().StringVar(&opts.paper, "paper", "", "Background color as #rrggbb (default white)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	ctx := cmd.Context()
	log := logger.Named("koun")
	marker, err := opts.markerRune()
	if err != nil {
		return err
	}

	ink, err := render.ParseColor(opts.ink)
	if err != nil {
		return fmt.Errorf("--ink: %w", err)
	}
	paper, err := render.ParseColor(opts.paper)
	if err != nil {
		return fmt.Errorf("--paper: %w", err)
	}

	table, err := readSheet(opts.file)
	if err != nil {
		return err
	}

	renderer := render.New(
		render.WithTitle(opts.title),
		render.WithFontFile(opts.fontPath, opts.fontSize),
		render.WithColors(ink, paper),
		render.WithLogger(log.Named("render")),
	)
	if notice := renderer.FontNotice(); notice != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "font: %s\n", notice)
	}
	svc := service.New(
		service.WithLogger(log),
		service.WithEngine(tally.NewEngine(tally.WithMarker(marker), tally.WithLogger(log.Named("tally")))),
		service.WithRenderer(renderer),
	)

	if opts.calculate {
		calc, err := svc.Tally(ctx, table, opts.tariffs())
		switch {
		case errors.Is(err, service.ErrNothingToCompute):
			fmt.Fprintln(cmd.ErrOrStderr(), tally.NothingToComputeNotice)
		case err != nil:
			return err
		default:
			table = calc.Table
			for _, w := range calc.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
		}
	}

	f, err := svc.RenderTable(ctx, table, opts.label)
	if err != nil {
		return err
	}
	path := opts.out
	if path == "" {
		path = f.Name
	}
	if err := writeFile(path, func(w io.Writer) error {
		_, err := w.Write(f.Data)
		return err
	}); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}
