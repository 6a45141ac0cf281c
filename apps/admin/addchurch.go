package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/igreja/core/church"
)

func (cli *commandLine) addChurchCmd() *cobra.Command {
	var nc church.NewChurch
	cmd := &cobra.Command{
		Use:   "addchurch",
		Short: "Register a new church (tenant)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "name"); err != nil {
				return err
			}
			ch, err := cli.churches.Create(cmd.Context(), nc)
			if err != nil {
				return err
			}
			cli.printf("church %q created (id %s, plan %s)\n", ch.Name, ch.ID, ch.Plan)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&nc.Name, "name", "", "The church's name")
	flags.StringVar(&nc.Plan, "plan", church.PlanBasic, "Subscription plan: BASICO, PRO or PREMIUM")
	flags.StringVar(&nc.CNPJ, "cnpj", "", "")
	flags.StringVar(&nc.Email, "email", "", "")
	flags.StringVar(&nc.Phone, "phone", "", "")
	flags.StringVar(&nc.City, "city", "", "")
	flags.StringVar(&nc.State, "state", "", "Two-letter state code")
	return cmd
}
