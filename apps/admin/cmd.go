package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/trezcool/kitabu/core/backup"
	"github.com/trezcool/kitabu/core/finance"
)

var errHelp = errors.New("help provided")

const cmdTimeout = 5 * time.Minute

type commandLine struct {
	rotator    *backup.Rotator
	financeSvc *finance.Service
	validate   *validator.Validate
	out        io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kitabu-admin",
		Short:         "Kitabu administration tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          helpRunE,
	}

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Run or list backups",
		RunE:  helpRunE,
	}
	backupCmd.AddCommand(cli.backupRunCmd(), cli.backupListCmd())

	root.AddCommand(backupCmd, cli.summaryCmd(), cli.reportCmd())
	return root
}

// helpRunE prints the usage of commands that only group subcommands.
func helpRunE(cmd *cobra.Command, _ []string) error {
	_ = cmd.Usage()
	return errHelp
}

// run executes args (program name included).
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	return root.ExecuteContext(ctx)
}
