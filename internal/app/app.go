// Package app składa aplikację: katalog danych, config, logi, baza i katalog części.
// Wspólne dla CLI i wersji z trayem.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	conf "github.com/bartek5186/autoparts-catalog/internal/config"
	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/bartek5186/autoparts-catalog/internal/integrations"
	"github.com/bartek5186/autoparts-catalog/internal/logs"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const Name = "autoparts-catalog"

type Options struct {
	DataDir    string // puste = os.UserConfigDir()/autoparts-catalog
	ConfigPath string // puste = <data-dir>/config.json
	Console    bool   // logi także na stderr
	Verbose    bool   // wymusza poziom debug
}

type App struct {
	DataDir    string
	ConfigPath string
	LogPath    string
	FirstRun   bool

	Cfg     *conf.Config
	Log     zerolog.Logger
	DB      *db.Handle
	Catalog *catalog.Manager
}

func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, Name), nil
}

func Open(opts Options) (*App, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		d, err := DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("katalog danych: %w", err)
		}
		dataDir = d
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("katalog danych %s: %w", dataDir, err)
	}

	a := &App{DataDir: dataDir, ConfigPath: opts.ConfigPath, LogPath: filepath.Join(dataDir, "app.log")}
	if a.ConfigPath == "" {
		a.ConfigPath = filepath.Join(dataDir, "config.json")
	}

	cfg, firstRun, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	a.Cfg, a.FirstRun = cfg, firstRun

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	a.Log = logs.New(a.LogPath, opts.Console, level)
	if firstRun {
		a.Log.Info().Str("path", a.ConfigPath).Msg("Utworzono domyślną konfigurację")
	}

	h, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := h.Migrate(); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("migracja: %w", err)
	}
	a.DB = h
	a.Log.Debug().Str("driver", h.Driver).Msg("DB ready")

	a.Catalog = catalog.NewManager(a.Log, catalog.NewGormStore(h.DB), catalog.ManagerConfig{
		StorageDir: cfg.StorageDir,
		BackupDir:  cfg.BackupDir,
		Delimiter:  cfg.Delimiter,
		Classifier: classifierFor(cfg),
	})
	return a, nil
}

// loadConfig: plik JSON, potem .env i zmienne CATALOG_*, na końcu ścieżki i walidacja.
func (a *App) loadConfig() (*conf.Config, bool, error) {
	cfg, firstRun, err := conf.LoadOrCreate(a.ConfigPath)
	if err != nil {
		return nil, false, err
	}
	if err := cfg.ApplyEnv(filepath.Join(a.DataDir, ".env"), ".env"); err != nil {
		return nil, false, err
	}
	cfg.ResolvePaths(a.DataDir)
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("config %s: %w", a.ConfigPath, err)
	}
	return cfg, firstRun, nil
}

// ReloadConfig wczytuje config ponownie; baza i katalog zostają bez zmian.
func (a *App) ReloadConfig() (*conf.Config, error) {
	cfg, _, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	a.Cfg = cfg
	return cfg, nil
}

func (a *App) Deps() integrations.Deps {
	return integrations.Deps{DB: a.DB.DB, Catalog: a.Catalog, DataDir: a.DataDir}
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	err := a.DB.Close()
	a.DB = nil
	return err
}

func classifierFor(cfg *conf.Config) *catalog.Classifier {
	rules := lo.Map(cfg.Categories, func(r conf.CategoryRule, _ int) catalog.Rule {
		return catalog.Rule{Keyword: r.Keyword, Category: r.Category}
	})
	return catalog.NewClassifier(rules, cfg.DefaultCategory)
}
