package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bartek5186/autoparts-catalog/internal/app"
	"github.com/bartek5186/autoparts-catalog/internal/syncer"
	"github.com/spf13/cobra"
)

func newWatchCmd(ver string) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Obserwuj katalog incoming i importuj nowe pliki (integracje z config.json)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			s := syncer.New(a.Log, a.Cfg, a.Deps())

			if !interactive {
				if err := s.Start(ctx); err != nil {
					return err
				}
				a.Log.Info().Str("version", ver).Strs("integrations", s.Running()).Msg("watch: działa, Ctrl+C kończy")
				<-ctx.Done()
				s.Stop()
				return nil
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			return commandLoop(ctx, a, s, ver, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prosta pętla poleceń w terminalu")
	return cmd
}

// commandLoop: start | stop | reload | status | paths | quit
func commandLoop(ctx context.Context, a *app.App, s *syncer.Syncer, ver string, in io.Reader, out io.Writer) error {
	defer s.Stop()

	// AutoStart tak jak w trayu
	if a.Cfg.AutoStart {
		if err := s.Start(ctx); err != nil {
			a.Log.Error().Err(err).Msg("AutoStart nieudany")
		}
	}

	fmt.Fprintln(out, "Catalog watch", ver)
	fmt.Fprintln(out, "Komendy: start | stop | reload | status | paths | quit")
	sc := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		switch strings.TrimSpace(strings.ToLower(sc.Text())) {
		case "start":
			if err := s.Start(ctx); err != nil {
				fmt.Fprintln(out, "Błąd startu:", err)
				continue
			}
			fmt.Fprintln(out, "Start OK")
		case "stop":
			s.Stop()
			fmt.Fprintln(out, "Zatrzymano")
		case "reload":
			cfg, err := a.ReloadConfig()
			if err != nil {
				a.Log.Error().Err(err).Msg("Błąd reloadu")
				fmt.Fprintln(out, "Błąd reloadu:", err)
				continue
			}
			s.UpdateConfig(cfg)
			fmt.Fprintln(out, "Konfiguracja przeładowana")
		case "status":
			if s.IsRunning() {
				fmt.Fprintln(out, "Status: DZIAŁA", strings.Join(s.Running(), ", "))
			} else {
				fmt.Fprintln(out, "Status: ZATRZYMANY")
			}
		case "paths":
			fmt.Fprintln(out, "Logi:", a.LogPath)
			fmt.Fprintln(out, "Config:", a.ConfigPath)
		case "quit", "exit":
			return nil
		case "":
			// enter – ignoruj
		default:
			fmt.Fprintln(out, "Nieznana komenda. Użyj: start | stop | reload | status | paths | quit")
		}
	}
}
