// Package cli: komendy "catalog" (cobra). Każda komenda otwiera aplikację przez
// internal/app i zamyka ją po sobie.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bartek5186/autoparts-catalog/internal/app"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	dataDir    string
	configPath string
	verbose    bool
}

type appKey struct{}

// newRootCmd buduje drzewo komend. closeApp zamyka aplikację otwartą przez
// komendę (także gdy RunE zwróci błąd).
func newRootCmd(ver string) (root *cobra.Command, closeApp func()) {
	var (
		opts   rootOptions
		opened *app.App
	)

	root = &cobra.Command{
		Use:           "catalog",
		Short:         "Katalog części samochodowych: import, eksport i kopie zapasowe",
		Version:       ver,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsApp(cmd) {
				return nil
			}
			a, err := app.Open(app.Options{
				DataDir:    opts.dataDir,
				ConfigPath: opts.configPath,
				Console:    true,
				Verbose:    opts.verbose,
			})
			if err != nil {
				return err
			}
			opened = a
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "katalog danych (domyślnie: katalog konfiguracji użytkownika)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "ścieżka config.json (domyślnie: <data-dir>/config.json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "logi na poziomie debug")

	root.AddCommand(
		newImportCmd("import-parts", "Import części z CSV/XLSX", false),
		newImportCmd("import-cars", "Import modeli aut z CSV/XLSX", true),
		newExportPartsCmd(),
		newExportCarsCmd(),
		newBackupListCmd(),
		newBackupShowCmd(),
		newSeedCompatCmd(),
		newFulfillCmd(),
		newLinkIssuesCmd(),
		newStatusCmd(),
		newWatchCmd(ver),
	)

	closeApp = func() {
		if opened != nil {
			_ = opened.Close()
			opened = nil
		}
	}
	return root, closeApp
}

// help i completion nie potrzebują bazy ani configu.
func needsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return false
		}
	}
	return true
}

func appFrom(cmd *cobra.Command) *app.App {
	a, _ := cmd.Context().Value(appKey{}).(*app.App)
	return a
}

// Execute uruchamia CLI i zwraca kod wyjścia: 0 sukces, 1 błąd.
func Execute(ver string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root, closeApp := newRootCmd(ver)
	defer closeApp()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Błąd:", err)
		return 1
	}
	return 0
}
