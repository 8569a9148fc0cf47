package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedCatalog(t *testing.T, store *GormStore) {
	t.Helper()
	ctx := context.Background()
	rec := NewReconciler(zerolog.Nop(), store, nil, nil)
	_, err := rec.ImportParts(ctx, partsSource(
		[]string{"Bosch", "0001", "Масляный фильтр", "10", "350,50"},
		[]string{"Mann", "0002", "Воздушный фильтр", "0", "120"},
		[]string{"Brembo", "0003", "Колодки тормозные", "4", "2500"},
	), Options{})
	require.NoError(t, err)
	_, err = rec.ImportCars(ctx, carsSource(
		[]string{"Toyota", "Camry", "XV70", "2017", "-", "Япония", "1"},
		[]string{"Lada", "Vesta", "", "2015", "2022", "Россия", "0"},
	), Options{})
	require.NoError(t, err)
}

func readExport(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "\ufeff"), "brak BOM")
	return strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")), "\n")
}

func TestExportParts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	seedCatalog(t, store)

	storage := t.TempDir()
	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.Local)
	ex := NewExporter(zerolog.Nop(), store, storage, fixedClock(at))

	path, err := ex.ExportParts(ctx, PartFilter{}, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(storage, "catalog", "spare_parts_2024-06-01_08-30-00.csv"), path)

	lines := readExport(t, path)
	require.Len(t, lines, 4)
	assert.Equal(t, "part_number;name;description;price;stock_quantity;manufacturer;category;slug;is_available", lines[0])
	assert.Equal(t, "0001;Масляный фильтр;Запчасть Масляный фильтр производителя Bosch;350.50;10;Bosch;Фильтры;maslyanyy-filtr-0001;1", lines[1])

	// ten sam znacznik czasu -> nowy plik, stary zostaje
	second, err := ex.ExportParts(ctx, PartFilter{Category: "Фильтры", Manufacturer: "man"}, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(storage, "catalog", "spare_parts_2024-06-01_08-30-00-2.csv"), second)
	lines = readExport(t, second)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "0002;"))
	assert.Len(t, readExport(t, path), 4)

	// żadnych plików tymczasowych
	entries, err := os.ReadDir(filepath.Join(storage, "catalog"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".export-"), e.Name())
	}
}

func TestExportCars(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	seedCatalog(t, store)

	ex := NewExporter(zerolog.Nop(), store, t.TempDir(), nil)
	out := filepath.Join(t.TempDir(), "cars.csv")

	path, err := ex.ExportCars(ctx, CarFilter{Popular: true}, ExportOptions{Path: out})
	require.NoError(t, err)
	assert.Equal(t, out, path)
	lines := readExport(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "Toyota;Camry;XV70;2017;;;;;;1;Япония;Toyota Camry XV70", lines[1])

	path, err = ex.ExportCars(ctx, CarFilter{Brand: "lada"}, ExportOptions{Path: out})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(out), "cars-2.csv"), path)
	lines = readExport(t, path)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "Lada;Vesta;;2015;2022;"))
}

func TestExportXLSXAndUnknownFormat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	seedCatalog(t, store)
	ex := NewExporter(zerolog.Nop(), store, t.TempDir(), nil)

	path, err := ex.ExportParts(ctx, PartFilter{}, ExportOptions{Format: FormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "part_number", rows[0][0])
	assert.Equal(t, "0003", rows[3][0])

	_, err = ex.ExportParts(ctx, PartFilter{}, ExportOptions{Format: "pdf"})
	assert.Error(t, err)
}

func TestExportFormatFollowsExtension(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	seedCatalog(t, store)
	dir := t.TempDir()
	ex := NewExporter(zerolog.Nop(), store, dir, nil)

	path, err := ex.ExportParts(ctx, PartFilter{}, ExportOptions{Path: filepath.Join(dir, "parts.xlsx")})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "PK"), "xlsx to archiwum zip")

	path, err = ex.ExportParts(ctx, PartFilter{}, ExportOptions{Path: filepath.Join(dir, "parts.txt")})
	require.NoError(t, err)
	assert.Len(t, readExport(t, path), 4)

	_, err = ex.ExportParts(ctx, PartFilter{}, ExportOptions{Path: filepath.Join(dir, "other.xlsx"), Format: FormatCSV})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "other.xlsx"))
}
