package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/igreja/storage/database/seed"
)

func (cli *commandLine) seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo data: a church with users, people, ministries, cells and events",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			data, err := loadSeedData(file)
			if err != nil {
				return err
			}
			res, err := cli.seeder.Run(cmd.Context(), data)
			if err != nil {
				return err
			}
			cli.printf("church %q seeded (id %s): %d users, %d people, %d ministries, %d cells, %d events\n",
				res.Church.Name, res.Church.ID, res.Users, res.People, res.Ministries, res.Cells, res.Events)
			return nil
		},
	}
	cmd.Flags().String("file", "", "YAML seed file (defaults to the embedded demo data)")
	return cmd
}

func loadSeedData(file string) (seed.Data, error) {
	if file == "" {
		return seed.Demo()
	}
	f, err := os.Open(file)
	if err != nil {
		return seed.Data{}, errors.Wrap(err, "opening seed file")
	}
	defer func() { _ = f.Close() }()
	return seed.Load(f)
}
