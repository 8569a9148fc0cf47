package cli

import (
	"fmt"
	"strconv"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	"github.com/spf13/cobra"
)

func newBackupListCmd() *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "backup-list",
		Short: "Lista kopii zapasowych (od najnowszej)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := appFrom(cmd).Catalog.Backups(typ)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Brak kopii zapasowych.")
				return nil
			}
			return printBackups(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "all", "all | spare_parts | car_models")
	return cmd
}

func newBackupShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup-show <name>",
		Short: "Szczegóły jednej kopii zapasowej",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := appFrom(cmd).Catalog.BackupByName(args[0])
			if err != nil {
				return err
			}
			return printBackups(cmd.OutOrStdout(), []catalog.BackupArtifact{b})
		},
	}
}

func newSeedCompatCmd() *cobra.Command {
	var maxPerPart int

	cmd := &cobra.Command{
		Use:   "seed-compat",
		Short: "Losowe powiązania części bez kompatybilności z modelami aut (dane demo)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if !cmd.Flags().Changed("max") {
				maxPerPart = a.Cfg.CompatSeedMax
			}
			n, err := a.Catalog.SeedCompatibility(cmd.Context(), maxPerPart)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Utworzono powiązań: %d\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxPerPart, "max", 3, "maksymalna liczba modeli na część")
	return cmd
}

func newFulfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fulfill <part_number> <qty>",
		Short: "Wydanie z magazynu (stan nigdy poniżej zera)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("niepoprawna ilość %q: %w", args[1], err)
			}
			p, err := appFrom(cmd).Catalog.Fulfill(cmd.Context(), args[0], qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: pozostało %d (dostępna: %s)\n", p.PartNumber, p.StockQuantity, yn(p.IsAvailable))
			return nil
		},
	}
}

func newLinkIssuesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "link-issues",
		Short: "Nierozwiązane wpisy kompatybilności z importów",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issues, err := appFrom(cmd).Catalog.LinkIssues(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Brak problemów z kompatybilnością.")
				return nil
			}
			return printIssues(cmd.OutOrStdout(), issues)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maksymalna liczba wpisów")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Ścieżki i statystyki ostatnich importów",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Dane:  ", a.DataDir)
			fmt.Fprintln(out, "Config:", a.ConfigPath)
			fmt.Fprintln(out, "Logi:  ", a.LogPath)
			fmt.Fprintln(out, "Baza:  ", a.Cfg.Database.Driver)
			fmt.Fprintln(out, "Kopie: ", a.Cfg.BackupDir)

			for _, entity := range []string{catalog.EntitySpareParts, catalog.EntityCarModels} {
				last, err := a.Catalog.LastRun(cmd.Context(), entity)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				if last == nil {
					fmt.Fprintf(out, "%s: brak importów\n", entity)
					continue
				}
				fmt.Fprintf(out, "%s: ostatni import %s\n", entity, last.FinishedAt.Format("2006-01-02 15:04:05"))
				if err := printStats(out, *last); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
