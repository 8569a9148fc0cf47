package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// BackupArtifact opisuje jeden plik kopii.
type BackupArtifact struct {
	Name      string    `json:"name"`
	Entity    string    `json:"entity"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
}

var (
	partBackupHeader = []string{"id", "part_number", "slug", "name", "description", "price", "stock_quantity",
		"is_available", "manufacturer", "category", "created_at", "updated_at"}
	carBackupHeader = []string{"id", "brand_id", "brand", "model", "generation", "slug", "year_from", "year_to",
		"body_type", "engine_type", "engine_volume", "transmission_type", "is_popular", "description",
		"created_at", "updated_at"}

	reBackupName = regexp.MustCompile(`^(spare_parts|car_models)_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})(?:-\d+)?\.csv$`)
)

// BackupManager: <dir>/<YYYY-MM-DD>/<encja>_<YYYY-MM-DD_HH-MM-SS>.csv, pliki tylko do odczytu.
type BackupManager struct {
	log   zerolog.Logger
	store CatalogStore
	dir   string
	now   func() time.Time
}

func NewBackupManager(log zerolog.Logger, store CatalogStore, dir string, now func() time.Time) *BackupManager {
	if now == nil {
		now = time.Now
	}
	return &BackupManager{log: log, store: store, dir: dir, now: now}
}

func (b *BackupManager) Dir() string { return b.dir }

func (b *BackupManager) Backup(ctx context.Context, entity string) (BackupArtifact, error) {
	ts := b.now()
	dest := filepath.Join(b.dir, ts.Format("2006-01-02"), fmt.Sprintf("%s_%s.csv", entity, ts.Format(tsLayout)))

	var (
		path string
		err  error
	)
	switch entity {
	case EntitySpareParts:
		path, err = publishTable(dest, FormatCSV, partBackupHeader, func(emit func([]string) error) error {
			return b.store.EachPart(ctx, PartFilter{}, exportBatch, func(batch []db.SparePart) error {
				for _, p := range batch {
					if err := emit(partBackupRow(p)); err != nil {
						return err
					}
				}
				return nil
			})
		})
	case EntityCarModels:
		path, err = publishTable(dest, FormatCSV, carBackupHeader, func(emit func([]string) error) error {
			return b.store.EachCarModel(ctx, CarFilter{}, exportBatch, func(batch []db.CarModel) error {
				for _, m := range batch {
					if err := emit(carBackupRow(m)); err != nil {
						return err
					}
				}
				return nil
			})
		})
	default:
		return BackupArtifact{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	if err != nil {
		return BackupArtifact{}, err
	}

	// kopia jest niezmienna
	if err := os.Chmod(path, 0o444); err != nil {
		return BackupArtifact{}, fmt.Errorf("chmod kopii: %w", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return BackupArtifact{}, err
	}
	return BackupArtifact{
		Name:      filepath.Base(path),
		Entity:    entity,
		CreatedAt: ts,
		Size:      st.Size(),
		Path:      path,
	}, nil
}

// List zwraca kopie od najnowszej; filter: "all", "" albo nazwa encji.
func (b *BackupManager) List(filter string) ([]BackupArtifact, error) {
	switch filter {
	case "", "all", EntitySpareParts, EntityCarModels:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, filter)
	}

	days, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []BackupArtifact
	for _, d := range days {
		if !d.IsDir() {
			continue
		}
		dayDir := filepath.Join(b.dir, d.Name())
		files, err := os.ReadDir(dayDir)
		if err != nil {
			b.log.Warn().Err(err).Str("dir", dayDir).Msg("nie mogę odczytać katalogu kopii")
			continue
		}
		for _, f := range files {
			m := reBackupName.FindStringSubmatch(f.Name())
			if m == nil || f.IsDir() {
				continue
			}
			if filter != "" && filter != "all" && m[1] != filter {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			created, err := time.ParseInLocation(tsLayout, m[2], time.Local)
			if err != nil {
				created = info.ModTime()
			}
			out = append(out, BackupArtifact{
				Name:      f.Name(),
				Entity:    m[1],
				CreatedAt: created,
				Size:      info.Size(),
				Path:      filepath.Join(dayDir, f.Name()),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// Get szuka kopii po nazwie pliku (jak w List).
func (b *BackupManager) Get(name string) (BackupArtifact, error) {
	all, err := b.List("all")
	if err != nil {
		return BackupArtifact{}, err
	}
	art, ok := lo.Find(all, func(a BackupArtifact) bool { return a.Name == name })
	if !ok {
		return BackupArtifact{}, fmt.Errorf("%w: kopia %q", ErrNotFound, name)
	}
	return art, nil
}

func partBackupRow(p db.SparePart) []string {
	return []string{
		strconv.FormatUint(uint64(p.ID), 10), p.PartNumber, p.Slug, p.Name, p.Description,
		p.Price.StringFixed(2), strconv.Itoa(p.StockQuantity), boolStr(p.IsAvailable), p.Manufacturer,
		p.Category, p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
	}
}

func carBackupRow(m db.CarModel) []string {
	return []string{
		strconv.FormatUint(uint64(m.ID), 10), strconv.FormatUint(uint64(m.BrandID), 10), m.Brand.Name,
		m.Name, m.Generation, m.Slug, intPtrStr(m.YearStart), intPtrStr(m.YearEnd), m.BodyType,
		m.EngineType, floatStr(m.EngineVolume), m.TransmissionType, boolStr(m.IsPopular), m.Description,
		m.CreatedAt.Format(time.RFC3339), m.UpdatedAt.Format(time.RFC3339),
	}
}
