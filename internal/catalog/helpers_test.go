package catalog

import (
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/bartek5186/autoparts-catalog/internal/csvio"
	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	h, err := db.Open("sqlite-nocgo", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	require.NoError(t, h.Migrate())
	t.Cleanup(func() { _ = h.Close() })
	return NewGormStore(h.DB)
}

// sliceSource podaje wiersze z pamięci zamiast z pliku.
type sliceSource struct {
	header  []string
	rows    [][]string
	minCols int
}

func (s sliceSource) Header() []string { return s.header }

func (s sliceSource) Rows() iter.Seq2[csvio.Row, error] {
	return func(yield func(csvio.Row, error) bool) {
		for i, f := range s.rows {
			row := csvio.Row{Line: i + 2, Fields: f, Short: len(f) < s.minCols}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func partsSource(rows ...[]string) sliceSource {
	return sliceSource{
		header:  []string{"бренд", "артикул", "наименование", "количество", "цена", "применимость"},
		rows:    rows,
		minCols: PartMinColumns,
	}
}

func carsSource(rows ...[]string) sliceSource {
	return sliceSource{
		header:  []string{"brand", "model", "generation", "year_from", "year_to", "country", "is_popular"},
		rows:    rows,
		minCols: CarMinColumns,
	}
}

func writeTestFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
