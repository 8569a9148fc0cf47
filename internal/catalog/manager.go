package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bartek5186/autoparts-catalog/internal/csvio"
	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ManagerConfig struct {
	StorageDir string
	BackupDir  string
	Delimiter  string
	Encoding   csvio.Encoding
	Classifier *Classifier
	Now        func() time.Time
}

// Manager spina import, eksport, kopie i operacje pomocnicze; używany przez CLI i watcher.
type Manager struct {
	log        zerolog.Logger
	store      CatalogStore
	cfg        ManagerConfig
	reconciler *Reconciler
	exporter   *Exporter
	backups    *BackupManager
}

func NewManager(log zerolog.Logger, store CatalogStore, cfg ManagerConfig) *Manager {
	backups := NewBackupManager(log, store, cfg.BackupDir, cfg.Now)
	return &Manager{
		log:        log,
		store:      store,
		cfg:        cfg,
		reconciler: NewReconciler(log, store, cfg.Classifier, backups),
		exporter:   NewExporter(log, store, cfg.StorageDir, cfg.Now),
		backups:    backups,
	}
}

// ImportOptions: Options importu plus separator z linii komend.
type ImportOptions struct {
	Options
	Delimiter string
}

func (m *Manager) ImportPartsFile(ctx context.Context, path string, opts ImportOptions) (Stats, error) {
	return m.importFile(ctx, EntitySpareParts, path, opts)
}

func (m *Manager) ImportCarsFile(ctx context.Context, path string, opts ImportOptions) (Stats, error) {
	return m.importFile(ctx, EntityCarModels, path, opts)
}

func (m *Manager) importFile(ctx context.Context, entity, path string, opts ImportOptions) (Stats, error) {
	runID := uuid.NewString()
	stats := Stats{RunID: runID, Entity: entity}

	// brak pliku -> błąd zanim cokolwiek ruszymy (także backup)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return stats, err
	}

	delim := opts.Delimiter
	if delim == "" {
		delim = m.cfg.Delimiter
	}
	minCols := PartMinColumns
	if entity == EntityCarModels {
		minCols = CarMinColumns
	}
	src, err := csvio.Open(path, csvio.Options{
		Delimiter:  delim,
		Encoding:   m.cfg.Encoding,
		MinColumns: minCols,
		HasHeader:  true,
	})
	if err != nil {
		return stats, fmt.Errorf("otwarcie %s: %w", path, err)
	}

	log := m.log.With().Str("run_id", runID).Str("file", path).Logger()
	log.Info().Str("entity", entity).Str("encoding", string(src.Encoding())).
		Str("delimiter", string(src.Delimiter())).Bool("update", opts.UpdateExisting).
		Bool("backup", opts.CreateBackup).Msg("start importu")

	rec := *m.reconciler
	rec.log = log
	if entity == EntityCarModels {
		stats, err = rec.ImportCars(ctx, src, opts.Options)
	} else {
		stats, err = rec.ImportParts(ctx, src, opts.Options)
	}
	stats.RunID = runID
	if err != nil {
		log.Error().Err(err).Int("processed", stats.Processed).Msg("import przerwany")
		return stats, err
	}

	log.Info().
		Int("processed", stats.Processed).
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Int("brands_created", stats.BrandsCreated).
		Int("links_created", stats.LinksCreated).
		Int("link_issues", stats.LinkIssues).
		Msg("import zakończony")

	if raw, err := json.Marshal(stats); err == nil {
		if err := m.store.PutKV(ctx, lastRunKey(entity), string(raw)); err != nil {
			log.Warn().Err(err).Msg("nie zapisano statystyk ostatniego importu")
		}
	}
	return stats, nil
}

func lastRunKey(entity string) string { return "last_run:" + entity }

// LastRun zwraca statystyki ostatniego zakończonego importu encji.
func (m *Manager) LastRun(ctx context.Context, entity string) (*Stats, error) {
	raw, ok, err := m.store.GetKV(ctx, lastRunKey(entity))
	if err != nil || !ok {
		return nil, err
	}
	var s Stats
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("statystyki %s: %w", entity, err)
	}
	return &s, nil
}

func (m *Manager) ExportParts(ctx context.Context, f PartFilter, o ExportOptions) (string, error) {
	return m.exporter.ExportParts(ctx, f, o)
}

func (m *Manager) ExportCars(ctx context.Context, f CarFilter, o ExportOptions) (string, error) {
	return m.exporter.ExportCars(ctx, f, o)
}

func (m *Manager) Backup(ctx context.Context, entity string) (BackupArtifact, error) {
	return m.backups.Backup(ctx, entity)
}

func (m *Manager) Backups(filter string) ([]BackupArtifact, error) {
	return m.backups.List(filter)
}

func (m *Manager) BackupByName(name string) (BackupArtifact, error) {
	return m.backups.Get(name)
}

// Fulfill zdejmuje qty sztuk ze stanu; nigdy poniżej zera.
func (m *Manager) Fulfill(ctx context.Context, partNumber string, qty int) (*db.SparePart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("ilość musi być dodatnia, jest %d", qty)
	}
	p, err := m.store.DecrementStock(ctx, partNumber, qty)
	if err != nil {
		return nil, err
	}
	m.log.Info().Str("part_number", partNumber).Int("qty", qty).Int("stock_left", p.StockQuantity).Msg("wydano z magazynu")
	return p, nil
}

func (m *Manager) LinkIssues(ctx context.Context, limit int) ([]db.LinkIssue, error) {
	return m.store.LinkIssues(ctx, limit)
}
