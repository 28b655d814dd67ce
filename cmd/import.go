package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/clockwise-hq/clockwise/cmd/flags"
	v1 "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
)

type ImportFlags struct {
	DBFlags     *flags.PostgresDatabaseFlags
	ConfigFlags *flags.ConfigFlags
	File        string
	CompanyID   uint
	ActorID     uint
}

func NewImportFlags() *ImportFlags {
	return &ImportFlags{
		DBFlags:     flags.NewPostgresDatabaseFlags(),
		ConfigFlags: flags.NewConfigFlags(),
	}
}

func (f *ImportFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
	f.ConfigFlags.BindFlags(fs)
	fs.StringVar(&f.File, "file", f.File, "YAML file of punch rows to import")
	fs.UintVar(&f.CompanyID, "company", f.CompanyID, "Company the punches belong to")
	fs.UintVar(&f.ActorID, "actor", f.ActorID, "Actor recorded in the audit trail for this batch")
}

func init() {
	f := NewImportFlags()

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import punches from a file",
		Run: func(cmd *cobra.Command, args []string) {
			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				log.WithError(err).Fatal("could not connect to db")
			}

			data, err := os.ReadFile(f.File)
			if err != nil {
				log.WithError(err).Fatal("could not read import file")
			}
			var rows []v1.ImportRow
			if err := yaml.Unmarshal(data, &rows); err != nil {
				log.WithError(err).Fatal("could not unmarshal import file")
			}
			if len(rows) == 0 {
				log.Fatal("import file contains no rows")
			}

			config := f.ConfigFlags.LoadConfig()
			if len(rows) > config.Limits.ImportBatchLimit {
				log.Fatalf("import file has %d rows, the batch limit is %d", len(rows), config.Limits.ImportBatchLimit)
			}

			ldg := ledger.New(dbc, config.Limits)
			summary := ldg.Import(f.CompanyID, rows, f.ActorID)

			log.WithFields(log.Fields{
				"batch":      summary.BatchID,
				"inserted":   summary.Inserted,
				"duplicated": summary.Duplicated,
				"invalid":    len(summary.Invalid),
			}).Info("import complete")
			for _, rowErr := range summary.Invalid {
				log.Warnf("row %d: %s", rowErr.Index, rowErr.Reason)
			}
		},
	}

	f.BindFlags(cmd.Flags())
	cmd.MarkFlagRequired("file")    //nolint:errcheck
	cmd.MarkFlagRequired("company") //nolint:errcheck
	cmd.MarkFlagRequired("actor")   //nolint:errcheck
	rootCmd.AddCommand(cmd)
}
