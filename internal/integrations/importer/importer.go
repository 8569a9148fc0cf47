// Package importer obserwuje katalog i importuje pojawiające się pliki katalogu
// (parts*.csv|xlsx, cars*.csv|xlsx). Każdy plik jest rejestrowany w import_files
// po sha256, więc ten sam plik nie zostanie zaimportowany dwa razy.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/bartek5186/autoparts-catalog/internal/integrations"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	statusPending = 0
	statusDone    = 1
	statusError   = 2
)

type Config struct {
	WatchDir       string `json:"watch_dir"` // np. ~/autoparts/incoming
	PollSec        int    `json:"poll_sec"`  // np. 5-10s
	UpdateExisting bool   `json:"update_existing"`
	Backup         bool   `json:"backup"`
}

type Importer struct {
	log     zerolog.Logger
	cfg     Config
	dir     string
	db      *gorm.DB
	catalog *catalog.Manager

	ctx    context.Context
	cancel context.CancelFunc
}

func init() {
	integrations.Register("importer", New)
}

func New(log zerolog.Logger, raw json.RawMessage, deps integrations.Deps) (integrations.Integration, error) {
	cfg := Config{PollSec: 10, UpdateExisting: true, Backup: true}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("importer: config: %w", err)
		}
	}
	if cfg.WatchDir == "" {
		return nil, errors.New("importer: watch_dir jest wymagany")
	}
	if deps.DB == nil || deps.Catalog == nil {
		return nil, errors.New("importer: brak bazy lub katalogu w zależnościach")
	}
	dir := expandHome(cfg.WatchDir)
	if !filepath.IsAbs(dir) && deps.DataDir != "" {
		dir = filepath.Join(deps.DataDir, dir)
	}
	return &Importer{log: log, cfg: cfg, dir: dir, db: deps.DB, catalog: deps.Catalog}, nil
}

func (i *Importer) Name() string { return "importer" }
func (i *Importer) Dir() string  { return i.dir }

func (i *Importer) Start(ctx context.Context) error {
	i.ctx, i.cancel = context.WithCancel(ctx)
	i.log.Info().Str("integration", i.Name()).Str("dir", i.dir).Msg("start")

	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return fmt.Errorf("importer: katalog %s: %w", i.dir, err)
	}

	ticker := time.NewTicker(i.interval())
	defer ticker.Stop()

	// pierwszy przebieg
	i.ScanOnce(i.ctx)

	for {
		select {
		case <-i.ctx.Done():
			i.log.Info().Str("integration", i.Name()).Msg("stop")
			return nil
		case <-ticker.C:
			i.ScanOnce(i.ctx)
		}
	}
}

func (i *Importer) Stop() {
	if i.cancel != nil {
		i.cancel()
	}
}

func (i *Importer) interval() time.Duration {
	if i.cfg.PollSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(i.cfg.PollSec) * time.Second
}

// entityFor rozpoznaje typ pliku po nazwie; "" = nie nasz plik.
func entityFor(name string) string {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	if ext != ".csv" && ext != ".xlsx" {
		return ""
	}
	switch {
	case strings.HasPrefix(lower, "parts"), strings.HasPrefix(lower, "spare_parts"):
		return catalog.EntitySpareParts
	case strings.HasPrefix(lower, "cars"), strings.HasPrefix(lower, "car_models"):
		return catalog.EntityCarModels
	}
	return ""
}

// ScanOnce przegląda katalog raz; zwraca liczbę plików zaimportowanych w tym przebiegu.
// Samochody idą przed częściami, żeby kolumna kompatybilności miała do czego się podpiąć.
func (i *Importer) ScanOnce(ctx context.Context) int {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		i.log.Error().Err(err).Str("dir", i.dir).Msg("nie mogę odczytać katalogu")
		return 0
	}

	var cars, parts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch entityFor(e.Name()) {
		case catalog.EntityCarModels:
			cars = append(cars, e.Name())
		case catalog.EntitySpareParts:
			parts = append(parts, e.Name())
		}
	}

	done := 0
	for _, name := range append(cars, parts...) {
		if ctx.Err() != nil {
			return done
		}
		if i.handleFile(ctx, name) {
			done++
		}
	}
	return done
}

func (i *Importer) handleFile(ctx context.Context, name string) bool {
	full := filepath.Join(i.dir, name)
	entity := entityFor(name)

	// dedup po filename/sha
	rec, already, err := i.registerFile(full, name, entity)
	if err != nil {
		i.log.Error().Err(err).Str("file", name).Msg("rejestracja pliku nieudana")
		return false
	}
	if already && rec.Status == statusDone {
		i.log.Debug().Str("file", name).Msg("plik już był i DONE, pomijam")
		return false
	}
	if already {
		i.log.Warn().Str("file", name).Uint("import_id", rec.ImportID).
			Int("status", rec.Status).Msg("plik istnieje, ale nie DONE, ponawiam przetwarzanie")
	}

	opts := catalog.ImportOptions{Options: catalog.Options{
		UpdateExisting: i.cfg.UpdateExisting,
		CreateBackup:   i.cfg.Backup,
	}}
	var stats catalog.Stats
	if entity == catalog.EntityCarModels {
		stats, err = i.catalog.ImportCarsFile(ctx, full, opts)
	} else {
		stats, err = i.catalog.ImportPartsFile(ctx, full, opts)
	}
	if err != nil {
		i.log.Error().Err(err).Str("file", name).Uint("import_id", rec.ImportID).Msg("błąd przetwarzania pliku")
		_ = i.db.Model(&db.ImportFile{}).Where("import_id = ?", rec.ImportID).
			Updates(map[string]any{"status": statusError, "last_error": err.Error(), "run_id": stats.RunID})
		return false
	}

	// sukces: status=1, processed_at=now
	now := time.Now()
	_ = i.db.Model(&db.ImportFile{}).Where("import_id = ?", rec.ImportID).
		Updates(map[string]any{
			"status":       statusDone,
			"last_error":   "",
			"run_id":       stats.RunID,
			"created":      stats.Created,
			"updated":      stats.Updated,
			"skipped":      stats.Skipped,
			"errors":       stats.Errors,
			"processed_at": now,
		})
	i.log.Info().Str("file", name).Uint("import_id", rec.ImportID).Str("run_id", stats.RunID).Msg("przetworzono OK")
	return true
}

// registerFile: idempotencja po SHA albo nazwie. Ta sama treść (pod dowolną nazwą)
// to ten sam plik; ta sama nazwa z nową treścią (np. nadpisany parts.csv) dostaje
// nowy hash i wraca do kolejki.
func (i *Importer) registerFile(fullPath, name, entity string) (db.ImportFile, bool, error) {
	fi, err := os.Stat(fullPath)
	if err != nil {
		return db.ImportFile{}, false, err
	}
	h, err := fileSHA256(fullPath)
	if err != nil {
		return db.ImportFile{}, false, err
	}

	var existing db.ImportFile
	err = i.db.Where("sha256 = ?", h).Take(&existing).Error
	switch {
	case err == nil:
		if existing.Filename != name {
			i.log.Debug().Str("file", name).Str("same_as", existing.Filename).Msg("ta sama treść co inny plik")
		}
		return existing, true, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return db.ImportFile{}, false, err
	}

	err = i.db.Where("filename = ?", name).Take(&existing).Error
	switch {
	case err == nil:
		// nowa treść pod starą nazwą; hash jest wolny, bo sprawdzony wyżej
		existing.SHA256 = h
		existing.SizeBytes = fi.Size()
		existing.Status = statusPending
		existing.ProcessedAt = nil
		if err := i.db.Model(&existing).Select("sha256", "size_bytes", "status", "processed_at").Updates(&existing).Error; err != nil {
			return db.ImportFile{}, false, err
		}
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return db.ImportFile{}, false, err
	}

	rec := db.ImportFile{
		Filename:  name,
		Entity:    entity,
		SHA256:    h,
		SizeBytes: fi.Size(),
		Status:    statusPending,
	}
	if err := i.db.Create(&rec).Error; err != nil {
		return db.ImportFile{}, false, err
	}
	return rec, false, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
