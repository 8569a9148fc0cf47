// internal/config/config.go
package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Obsługiwane sterowniki bazy
const (
	DriverSQLite       = "sqlite"
	DriverSQLiteNoCgo  = "sqlite-nocgo"
	DriverMySQL        = "mysql"
	DriverPostgres     = "postgres"
	DefaultDelimiter   = ";"
	DefaultCategory    = "Разное"
	DefaultSeedMaxLink = 3
)

type DatabaseConfig struct {
	Driver string `json:"driver"` // sqlite | sqlite-nocgo | mysql | postgres
	DSN    string `json:"dsn"`    // dla sqlite ścieżka pliku; pusty = <data-dir>/catalog.db
}

// Pojedyncza reguła klasyfikacji: fragment nazwy -> kategoria
type CategoryRule struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

// Główny config aplikacji
type Config struct {
	AutoStart           bool                       `json:"auto_start"`
	SyncIntervalSeconds int                        `json:"sync_interval_seconds"`
	Integrations        map[string]json.RawMessage `json:"integrations"` // nazwa -> surowy JSON integracji

	Database        DatabaseConfig `json:"database"`
	StorageDir      string         `json:"storage_dir"` // puste = <data-dir>/storage
	BackupDir       string         `json:"backup_dir"`  // puste = <storage_dir>/catalog/backups
	Delimiter       string         `json:"delimiter"`   // puste = wykrywanie z nagłówka
	LogLevel        string         `json:"log_level"`
	DefaultCategory string         `json:"default_category"`
	Categories      []CategoryRule `json:"categories,omitempty"` // puste = tabela wbudowana
	CompatSeedMax   int            `json:"compat_seed_max"`
}

// Domyślny config watchera (integracja "importer")
type ImporterDefaults struct {
	WatchDir       string `json:"watch_dir"`
	PollSec        int    `json:"poll_sec"`
	UpdateExisting bool   `json:"update_existing"`
	Backup         bool   `json:"backup"`
}

func Default() *Config {
	rawImp, _ := json.Marshal(ImporterDefaults{
		WatchDir:       "./incoming",
		PollSec:        10,
		UpdateExisting: true,
		Backup:         true,
	})
	return &Config{
		AutoStart:           false,
		SyncIntervalSeconds: 5,
		Integrations: map[string]json.RawMessage{
			"importer": rawImp,
		},
		Database:        DatabaseConfig{Driver: DriverSQLite},
		LogLevel:        "info",
		DefaultCategory: DefaultCategory,
		CompatSeedMax:   DefaultSeedMaxLink,
	}
}

func LoadOrCreate(path string) (*Config, bool, error) {
	// upewnij się, że katalog istnieje
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("błąd zapisu domyślnego configa: %w", err)
			}
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("błąd otwierania configa: %w", err)
	}
	defer f.Close()

	cfg := Default()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, false, fmt.Errorf("błąd parsowania configa: %w", err)
	}
	if cfg.Integrations == nil {
		cfg.Integrations = map[string]json.RawMessage{}
	}
	return cfg, false, nil
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// Helper do odczytu konkretnej integracji do struktury docelowej
func (c *Config) UnmarshalIntegration(name string, v any) error {
	raw, ok := c.Integrations[name]
	if !ok {
		return fmt.Errorf("brak integracji %q w configu", name)
	}
	return json.Unmarshal(raw, v)
}

// Nadpisania ze zmiennych środowiskowych; puste wartości nie ruszają configa.
type envOverrides struct {
	DBDriver   string `env:"CATALOG_DB_DRIVER"`
	DBDSN      string `env:"CATALOG_DB_DSN"`
	StorageDir string `env:"CATALOG_STORAGE_DIR"`
	BackupDir  string `env:"CATALOG_BACKUP_DIR"`
	LogLevel   string `env:"CATALOG_LOG_LEVEL"`
	Delimiter  string `env:"CATALOG_DELIMITER"`
}

// ApplyEnv wczytuje opcjonalne pliki .env (nie nadpisują już ustawionych zmiennych)
// i nakłada CATALOG_* na config.
func (c *Config) ApplyEnv(envFiles ...string) error {
	for _, p := range envFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("wczytanie %s: %w", p, err)
		}
	}

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Database.Driver, o.DBDriver)
	set(&c.Database.DSN, o.DBDSN)
	set(&c.StorageDir, o.StorageDir)
	set(&c.BackupDir, o.BackupDir)
	set(&c.LogLevel, o.LogLevel)
	set(&c.Delimiter, o.Delimiter)
	return nil
}

// ResolvePaths uzupełnia puste ścieżki względem katalogu danych aplikacji.
func (c *Config) ResolvePaths(dataDir string) {
	if c.StorageDir == "" {
		c.StorageDir = filepath.Join(dataDir, "storage")
	}
	c.StorageDir = absUnder(dataDir, expandHome(c.StorageDir))
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(c.StorageDir, "catalog", "backups")
	}
	c.BackupDir = absUnder(dataDir, expandHome(c.BackupDir))
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" && isSQLite(c.Database.Driver) {
		c.Database.DSN = filepath.Join(dataDir, "catalog.db")
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = DefaultCategory
	}
}

// Validate zbiera wszystkie problemy naraz.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverSQLite, DriverSQLiteNoCgo, DriverMySQL, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver: nieznany sterownik %q", c.Database.Driver))
	}
	if !isSQLite(c.Database.Driver) && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn: wymagany dla mysql/postgres"))
	}
	if c.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(c.Delimiter)
		if size != len(c.Delimiter) || r == '"' || r == '\n' || r == '\r' {
			errs = append(errs, fmt.Errorf("delimiter: niepoprawny separator %q", c.Delimiter))
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: nieznany poziom %q", c.LogLevel))
	}
	if c.SyncIntervalSeconds < 0 {
		errs = append(errs, errors.New("sync_interval_seconds: nie może być ujemny"))
	}
	if c.CompatSeedMax < 0 {
		errs = append(errs, errors.New("compat_seed_max: nie może być ujemny"))
	}
	for i, r := range c.Categories {
		if strings.TrimSpace(r.Keyword) == "" || strings.TrimSpace(r.Category) == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: keyword i category są wymagane", i))
		}
	}
	return errors.Join(errs...)
}

func isSQLite(driver string) bool {
	return driver == DriverSQLite || driver == DriverSQLiteNoCgo
}

func absUnder(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
