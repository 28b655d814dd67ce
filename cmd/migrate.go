package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/clockwise-hq/clockwise/cmd/flags"
)

type MigrateFlags struct {
	DBFlags *flags.PostgresDatabaseFlags
}

func NewMigrateFlags() *MigrateFlags {
	return &MigrateFlags{
		DBFlags: flags.NewPostgresDatabaseFlags(),
	}
}

func (f *MigrateFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
}

func init() {
	f := NewMigrateFlags()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database schema to the current version",
		Run: func(cmd *cobra.Command, args []string) {
			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				log.WithError(err).Fatal("could not connect to db")
			}

			if err := dbc.UpdateSchema(); err != nil {
				log.WithError(err).Fatal("could not migrate database")
			}
			log.Info("database schema is up to date")
		},
	}

	f.BindFlags(cmd.Flags())
	rootCmd.AddCommand(cmd)
}
