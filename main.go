//go:build windows && !dev

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/bartek5186/autoparts-catalog/internal/app"
	"github.com/bartek5186/autoparts-catalog/internal/syncer"
	"github.com/getlantern/systray"
)

// wersję możesz nadpisać przez: -ldflags "-X 'main.ver=1.0.1'"
var ver = "1.0.0"

func main() {
	a, err := app.Open(app.Options{})
	if err != nil {
		panic(err)
	}
	defer a.Close()
	log := a.Log

	// kontekst sterujący życiem procesu (CTRL+C / zamknięcie sesji)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := syncer.New(log, a.Cfg, a.Deps())

	// jeśli proces dostanie sygnał – zatrzymaj syncer i zamknij tray
	go func() {
		<-ctx.Done()
		s.Stop()
		systray.Quit()
	}()

	systray.Run(func() {
		// onReady; ikona obok exe (assets/icon.ico), brak pliku = domyślna
		if iconData := loadIcon(); len(iconData) > 0 {
			systray.SetIcon(iconData)
		}
		systray.SetTooltip(fmt.Sprintf("Autoparts Catalog %s", ver))

		mStart := systray.AddMenuItem("Start obserwacji", "Importuj pliki z katalogu incoming")
		mStop := systray.AddMenuItem("Stop obserwacji", "Zatrzymaj import")
		mStop.Disable()

		systray.AddSeparator()
		mOpenIncoming := systray.AddMenuItem("Otwórz katalog danych", "Pokaż katalog danych aplikacji")
		mOpenLogs := systray.AddMenuItem("Otwórz logi", "Pokaż plik log")
		mOpenCfg := systray.AddMenuItem("Ustawienia (config.json)", "Otwórz plik konfiguracyjny")
		mReload := systray.AddMenuItem("Przeładuj konfigurację", "Wczytaj ponownie config.json")
		systray.AddSeparator()
		mAbout := systray.AddMenuItem(fmt.Sprintf("O programie (%s)", ver), "")
		mQuit := systray.AddMenuItem("Wyjście", "Zamknij aplikację")

		// AutoStart obserwacji (nie mylić z autostartem Windows!)
		if a.Cfg.AutoStart {
			if err := s.Start(ctx); err == nil {
				mStart.Disable()
				mStop.Enable()
				systray.SetTooltip(fmt.Sprintf("Autoparts Catalog %s: działa", ver))
			} else {
				log.Error().Err(err).Msg("AutoStart nieudany")
				systray.SetTooltip(fmt.Sprintf("Autoparts Catalog %s: błąd startu", ver))
			}
		}

		go func() {
			for {
				select {
				case <-mStart.ClickedCh:
					if err := s.Start(ctx); err != nil {
						log.Error().Err(err).Msg("Start error")
						systray.SetTooltip(fmt.Sprintf("Autoparts Catalog %s: błąd startu", ver))
						continue
					}
					mStart.Disable()
					mStop.Enable()
					systray.SetTooltip(fmt.Sprintf("Autoparts Catalog %s: działa", ver))

				case <-mStop.ClickedCh:
					s.Stop()
					mStop.Disable()
					mStart.Enable()
					systray.SetTooltip(fmt.Sprintf("Autoparts Catalog %s: zatrzymane", ver))

				case <-mOpenIncoming.ClickedCh:
					openInExplorer(a.DataDir)

				case <-mOpenLogs.ClickedCh:
					openInExplorer(a.LogPath)

				case <-mOpenCfg.ClickedCh:
					openInExplorer(a.ConfigPath)

				case <-mReload.ClickedCh:
					cfg, err := a.ReloadConfig()
					if err != nil {
						log.Error().Err(err).Msg("Błąd reloadu")
						continue
					}
					s.UpdateConfig(cfg)
					log.Info().Msg("Konfiguracja przeładowana")

				case <-mAbout.ClickedCh:
					log.Info().Msgf("Autoparts Catalog %s | %s", ver, runtime.Version())

				case <-mQuit.ClickedCh:
					// łagodne zamykanie
					cancel()
					s.Stop()
					systray.Quit()
					return
				}
			}
		}()
	}, func() {
		// onExit: daj chwilę loggerowi na flush
		time.Sleep(50 * time.Millisecond)
	})
}

func loadIcon() []byte {
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(exe), "assets", "icon.ico"))
	if err != nil {
		return nil
	}
	return data
}

// przenośne otwieranie plików/katalogów w domyślnej aplikacji
func openInExplorer(path string) {
	switch runtime.GOOS {
	case "windows":
		// "start" musi być uruchomiony przez cmd /C, z pustym tytułem okna ""
		_ = exec.Command("cmd", "/C", "start", "", path).Start()
	case "darwin":
		_ = exec.Command("open", path).Start()
	default:
		_ = exec.Command("xdg-open", path).Start()
	}
}
