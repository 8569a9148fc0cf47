package cli

import (
	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	"github.com/spf13/cobra"
)

type importFlags struct {
	noUpdate  bool
	noBackup  bool
	delimiter string
}

func newImportCmd(use, short string, cars bool) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			opts := catalog.ImportOptions{
				Options: catalog.Options{
					UpdateExisting: !f.noUpdate,
					CreateBackup:   !f.noBackup,
				},
				Delimiter: f.delimiter,
			}

			var (
				stats catalog.Stats
				err   error
			)
			if cars {
				stats, err = a.Catalog.ImportCarsFile(cmd.Context(), args[0], opts)
			} else {
				stats, err = a.Catalog.ImportPartsFile(cmd.Context(), args[0], opts)
			}
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().BoolVar(&f.noUpdate, "no-update", false, "nie aktualizuj istniejących rekordów")
	cmd.Flags().BoolVar(&f.noBackup, "no-backup", false, "pomiń kopię zapasową przed importem")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "separator kolumn (domyślnie wykrywany)")
	return cmd
}
