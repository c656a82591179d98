package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/finance"
)

var errYearAndMonth = errors.New("--year and --month go together")

func (cli *commandLine) summaryCmd() *cobra.Command {
	var (
		year  int
		month string
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the overall summary, or the summary of one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				sum finance.Summary
				err error
			)
			switch {
			case year == 0 && month == "":
				sum, err = cli.financeSvc.Overall(cmd.Context())
			case year == 0 || month == "":
				return errYearAndMonth
			default:
				p := finance.Period{Year: core.Year(year), Month: month}
				if err = p.Validate(cli.validate); err != nil {
					return err
				}
				sum, err = cli.financeSvc.Monthly(cmd.Context(), p)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cli.out)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year of the monthly summary")
	cmd.Flags().StringVar(&month, "month", "", "month name of the monthly summary")
	return cmd
}

func (cli *commandLine) reportCmd() *cobra.Command {
	var (
		year  int
		month string
		out   string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the CSV report of one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			p := finance.Period{Year: core.Year(year), Month: month}
			if err = p.Validate(cli.validate); err != nil {
				return err
			}
			rep, err := cli.financeSvc.MonthlyReport(cmd.Context(), p)
			if err != nil {
				return err
			}

			var w io.Writer = cli.out
			if out != "" {
				f, cErr := os.Create(out)
				if cErr != nil {
					return cErr
				}
				defer func() {
					if cErr := f.Close(); err == nil {
						err = cErr
					}
				}()
				w = f
			}
			return rep.WriteCSV(w)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year of the report")
	cmd.Flags().StringVar(&month, "month", "", "month name of the report")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}
