package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	exportBatch = 100
	tsLayout    = "2006-01-02_15-04-05"
)

var (
	partExportHeader = []string{"part_number", "name", "description", "price", "stock_quantity",
		"manufacturer", "category", "slug", "is_available"}
	carExportHeader = []string{"brand", "model", "generation", "year_from", "year_to", "body_type",
		"engine_type", "engine_volume", "transmission_type", "is_popular", "country", "description"}
)

type ExportOptions struct {
	Path   string // puste = <storage_dir>/catalog/<encja>_<czas>.<ext>
	Format string // csv (domyślnie) | xlsx
}

// Exporter zapisuje katalog do CSV (BOM, ";") albo XLSX, paczkami po 100 rekordów.
type Exporter struct {
	log   zerolog.Logger
	store CatalogStore
	dir   string
	now   func() time.Time
}

func NewExporter(log zerolog.Logger, store CatalogStore, storageDir string, now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{log: log, store: store, dir: filepath.Join(storageDir, "catalog"), now: now}
}

func (e *Exporter) ExportParts(ctx context.Context, f PartFilter, o ExportOptions) (string, error) {
	dest, format, err := e.target(EntitySpareParts, o)
	if err != nil {
		return "", err
	}
	n := 0
	path, err := publishTable(dest, format, partExportHeader, func(emit func([]string) error) error {
		return e.store.EachPart(ctx, f, exportBatch, func(batch []db.SparePart) error {
			for _, p := range batch {
				if err := emit(partExportRow(p)); err != nil {
					return err
				}
				n++
			}
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	e.log.Info().Str("entity", EntitySpareParts).Str("path", path).Int("rows", n).Msg("eksport zakończony")
	return path, nil
}

func (e *Exporter) ExportCars(ctx context.Context, f CarFilter, o ExportOptions) (string, error) {
	dest, format, err := e.target(EntityCarModels, o)
	if err != nil {
		return "", err
	}
	n := 0
	path, err := publishTable(dest, format, carExportHeader, func(emit func([]string) error) error {
		return e.store.EachCarModel(ctx, f, exportBatch, func(batch []db.CarModel) error {
			for _, m := range batch {
				if err := emit(carExportRow(m)); err != nil {
					return err
				}
				n++
			}
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	e.log.Info().Str("entity", EntityCarModels).Str("path", path).Int("rows", n).Msg("eksport zakończony")
	return path, nil
}

func (e *Exporter) target(entity string, o ExportOptions) (string, string, error) {
	format := strings.ToLower(o.Format)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(o.Path)), ".")
	known := ext == FormatCSV || ext == FormatXLSX
	if format == "" {
		// bez --format decyduje rozszerzenie, na końcu CSV
		format = FormatCSV
		if known {
			format = ext
		}
	}
	switch format {
	case FormatCSV, FormatXLSX:
	default:
		return "", "", fmt.Errorf("nieobsługiwany format %q", o.Format)
	}
	if o.Path != "" {
		if known && ext != format {
			return "", "", fmt.Errorf("format %q nie pasuje do rozszerzenia pliku %s", format, o.Path)
		}
		return o.Path, format, nil
	}
	return filepath.Join(e.dir, fmt.Sprintf("%s_%s.%s", entity, e.now().Format(tsLayout), format)), format, nil
}

func partExportRow(p db.SparePart) []string {
	return []string{
		p.PartNumber, p.Name, p.Description, p.Price.StringFixed(2), strconv.Itoa(p.StockQuantity),
		p.Manufacturer, p.Category, p.Slug, boolStr(p.IsAvailable),
	}
}

func carExportRow(m db.CarModel) []string {
	return []string{
		m.Brand.Name, m.Name, m.Generation, intPtrStr(m.YearStart), intPtrStr(m.YearEnd), m.BodyType,
		m.EngineType, floatStr(m.EngineVolume), m.TransmissionType, boolStr(m.IsPopular), m.Brand.Country,
		m.Description,
	}
}

// publishTable pisze do pliku tymczasowego w katalogu docelowym i dopiero gotowy plik
// podpina pod świeżą nazwę. Istniejący plik nigdy nie jest nadpisywany.
func publishTable(dest, format string, header []string, fill func(emit func([]string) error) error) (string, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("katalog eksportu: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("plik tymczasowy: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	switch format {
	case FormatXLSX:
		err = writeXLSX(tmp, header, fill)
	default:
		err = writeCSV(tmp, header, fill)
	}
	if err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return linkFresh(tmp.Name(), dest)
}

func writeCSV(w io.Writer, header []string, fill func(emit func([]string) error) error) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := fill(cw.Write); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, header []string, fill func(emit func([]string) error) error) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(f.GetSheetName(0))
	if err != nil {
		return err
	}
	rowNo := 0
	emit := func(rec []string) error {
		rowNo++
		cell, err := excelize.CoordinatesToCellName(1, rowNo)
		if err != nil {
			return err
		}
		vals := make([]any, len(rec))
		for i, v := range rec {
			vals[i] = v
		}
		return sw.SetRow(cell, vals)
	}
	if err := emit(header); err != nil {
		return err
	}
	if err := fill(emit); err != nil {
		return err
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// linkFresh podpina gotowy plik pod dest albo dest-2, dest-3, ... jeśli nazwa zajęta.
func linkFresh(tmpPath, dest string) (string, error) {
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	candidate := dest
	for n := 2; n < 1000; n++ {
		err := os.Link(tmpPath, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			// system plików bez twardych linków: kopia z O_EXCL
			err = copyExclusive(tmpPath, candidate)
			if err == nil {
				return candidate, nil
			}
			if !errors.Is(err, os.ErrExist) {
				return "", fmt.Errorf("zapis %s: %w", candidate, err)
			}
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
	return "", fmt.Errorf("brak wolnej nazwy dla %s", dest)
}

func copyExclusive(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func intPtrStr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatStr(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}
