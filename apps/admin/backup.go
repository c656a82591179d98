package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/trezcool/kitabu/core/backup"
)

func (cli *commandLine) backupRunCmd() *cobra.Command {
	var bucket string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Archive the documents into a retention bucket now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := backup.ParseBucket(bucket)
			if err != nil {
				return err
			}
			path, err := cli.rotator.Run(cmd.Context(), b)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "backup written: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", string(backup.Daily), "retention bucket: daily, weekly or monthly")
	return cmd
}

func (cli *commandLine) backupListCmd() *cobra.Command {
	var bucket string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the archives of a retention bucket, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := backup.ParseBucket(bucket)
			if err != nil {
				return err
			}
			archives, err := cli.rotator.List(b)
			if err != nil {
				return err
			}
			if len(archives) == 0 {
				_, _ = fmt.Fprintf(cli.out, "no %s backups\n", b)
				return nil
			}

			tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
			for _, a := range archives {
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", a.Name, a.Size, a.ModTime.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", string(backup.Daily), "retention bucket: daily, weekly or monthly")
	return cmd
}
