package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/dates"
)

type exportOptions struct {
	Week   int
	Day    string
	Output string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as an iCalendar (.ics) file",
		Long: `Write the events of a week (--week, 0 is the current week) or of a
single day (--day) as iCalendar. Recurring events are exported as their
individual occurrences.`,
		Example: `  calmate export --week 1 -o next-week.ics
  calmate export --day "next friday"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("week") && opts.Day != "" {
				return fmt.Errorf("--week and --day cannot be combined")
			}

			out := cmd.OutOrStdout()
			if opts.Output != "" {
				f, err := os.Create(opts.Output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return runExport(cmd.Context(), opts, out, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVar(&opts.Week, "week", 0, "Week offset from the current week")
	cmd.Flags().StringVar(&opts.Day, "day", "", "Day to export: 'today', 'tomorrow', YYYY-MM-DD or a phrase like 'next friday'")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(ctx context.Context, opts exportOptions, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath, overrides)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, debugMode, errOut)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{Config: cfg, Logger: logger, ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	return exportEvents(ctx, a, opts, out)
}

// exportEvents writes the selected range of a's calendar to out.
func exportEvents(ctx context.Context, a *app, opts exportOptions, out io.Writer) error {
	rng, err := exportRange(a.assistant.Resolver(), opts)
	if err != nil {
		return err
	}

	events, err := a.assistant.Events(ctx, rng)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	return calendar.WriteICS(out, events)
}

func exportRange(resolver *dates.Resolver, opts exportOptions) (dates.Range, error) {
	if opts.Day == "" {
		return resolver.WeekRange(opts.Week), nil
	}
	return resolver.ResolveRange(opts.Day)
}
