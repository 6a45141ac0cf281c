package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/storage/database/seed"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	churches *church.Service
	users    *user.Service
	seeder   seed.Seeder
	out      io.Writer
}

func (cli *commandLine) printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, a...)
}

// rootCmd builds a fresh command tree, so flag values never leak between runs.
func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Igreja administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.AddCommand(
		cli.migrateCmd(),
		cli.seedCmd(),
		cli.addChurchCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
	)
	return root
}

// run executes the command line; args includes the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args[1:])
	return root.ExecuteContext(context.Background())
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(cmd *cobra.Command) (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

// requireFlags prints the usage and returns errHelp when one of the named string flags is empty.
func requireFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if v, _ := cmd.Flags().GetString(name); v == "" {
			_ = cmd.Usage()
			return errHelp
		}
	}
	return nil
}
