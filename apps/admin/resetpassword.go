package main

import (
	"github.com/spf13/cobra"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password. The password is prompted next",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "email"); err != nil {
				return err
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			if err = cli.users.ChangePassword(cmd.Context(), email, pwd); err != nil {
				return err
			}
			cli.printf("password updated\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The user's email")
	return cmd
}
