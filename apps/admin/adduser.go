package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var nu user.NewUser
	var churchName string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user in a church. The password is prompted next",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "church", "name", "email"); err != nil {
				return err
			}
			ch, err := cli.churches.GetByName(cmd.Context(), churchName)
			if err != nil {
				return err
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			nu.Password, nu.PasswordConfirm = pwd, pwd

			actor := core.Actor{ChurchID: ch.ID, Profile: user.ProfileAdmin, Name: "admin"}
			usr, err := cli.users.Create(cmd.Context(), actor, nu)
			if err != nil {
				return err
			}
			cli.printf("user %s created (id %s, profile %s)\n", usr.Email, usr.ID, usr.Profile)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&churchName, "church", "", "The church's name")
	flags.StringVar(&nu.Name, "name", "", "The user's name")
	flags.StringVar(&nu.Email, "email", "", "The user's email")
	flags.StringVar(&nu.Profile, "profile", user.ProfileAdmin, "ADMIN, PASTOR, LIDER, SECRETARIA or FINANCEIRO")
	return cmd
}
