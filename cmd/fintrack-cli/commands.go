package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write table headers and the default categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *cli.App) error {
			if err := app.Entry.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			cats, err := app.Entry.Categories(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workbook ready, %d categories\n", len(cats))
			return nil
		})
	},
}

var listRates bool

var rateCmd = &cobra.Command{
	Use:   "rate [YYYY-MM-DD]",
	Short: "Lock the EUR to BDT rate for a date (default today)",
	Long: `Lock the EUR to BDT rate for a date. A stored rate is printed as is;
otherwise the providers are asked and the result is saved to the Rates table.
With --list every stored rate is printed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(app *cli.App) error {
			out := cmd.OutOrStdout()
			if listRates {
				rates, err := app.Ledger.Rates(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tEUR_BDT_RATE")
				for _, r := range rates {
					fmt.Fprintf(tw, "%s\t%s\n", r.Date, core.FormatRate(r.Rate))
				}
				return tw.Flush()
			}

			date := app.Entry.Today()
			if len(args) == 1 {
				d, err := core.ParseDate(args[0])
				if err != nil {
					return err
				}
				date = d
			}
			rate, err := app.Resolver.Resolve(ctx, date)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "Rate resolved", log.FieldRateDate, date.String(), log.FieldRate, rate)
			fmt.Fprintf(out, "%s %s\n", date, core.FormatRate(rate))
			return nil
		})
	},
}

var (
	month string
	view  string
	out   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the summary and table for a month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(app *cli.App) error {
			v := core.ParseView(view)
			rep, err := app.Dashboard.MonthlyReport(ctx, month, v)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if rep.Month == "" {
				fmt.Fprintln(w, "No transactions yet.")
				return nil
			}
			printReport(w, rep.Label, rep.Summary, rep.Table, v)
			return nil
		})
	},
}

func printReport(w io.Writer, label string, s report.Summary, t report.Table, v core.View) {
	fmt.Fprintf(w, "Summary %s\n", label)
	fmt.Fprintf(w, "  Income       %s\n", s.Income.Format(v))
	fmt.Fprintf(w, "  Expense      %s\n", s.Expense.Format(v))
	fmt.Fprintf(w, "  Net Savings  %s\n", s.Net.Format(v))
	fmt.Fprintf(w, "  Debt Net     %s\n\n", s.DebtNet.Format(v))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range t.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range t.Rows {
		for i, c := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a month's table as CSV",
	Long: `Write a month's table as CSV to --out, or to stdout when --out is "-".
Without --out the file is named like the web download.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(app *cli.App) error {
			rep, err := app.Dashboard.MonthlyReport(ctx, month, core.ParseView(view))
			if err != nil {
				return err
			}
			if rep.Month == "" {
				return fmt.Errorf("no transactions to export")
			}

			path := out
			if path == "" {
				path = report.ExportFilename(rep.Month)
			}
			if path == "-" {
				return rep.Table.WriteCSV(cmd.OutOrStdout())
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := rep.Table.WriteCSV(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.InfoContext(ctx, "Report exported",
				log.FieldOperation, log.OpExport,
				log.FieldMonth, rep.Month,
				"rows", len(rep.Table.Rows),
				"path", path)
			return nil
		})
	},
}

func init() {
	rateCmd.Flags().BoolVar(&listRates, "list", false, "print every stored rate")
	for _, c := range []*cobra.Command{reportCmd, exportCmd} {
		c.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default newest)")
		c.Flags().StringVar(&view, "view", "", "eur, eur_bdt or bdt (default eur)")
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout`)
}
