package catalog_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"iter"
	"testing"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	"github.com/bartek5186/autoparts-catalog/internal/catalog/mocks"
	"github.com/bartek5186/autoparts-catalog/internal/csvio"
	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type rows [][]string

func (r rows) Header() []string { return []string{"brand", "part_number", "name", "quantity", "price"} }

func (r rows) Rows() iter.Seq2[csvio.Row, error] {
	return func(yield func(csvio.Row, error) bool) {
		for i, f := range r {
			if !yield(csvio.Row{Line: i + 2, Fields: f}, nil) {
				return
			}
		}
	}
}

// failingRows zwraca błąd odczytu po pierwszym wierszu.
type failingRows struct{ rows }

func (r failingRows) Rows() iter.Seq2[csvio.Row, error] {
	return func(yield func(csvio.Row, error) bool) {
		if !yield(csvio.Row{Line: 2, Fields: r.rows[0]}, nil) {
			return
		}
		yield(csvio.Row{}, errors.New("unexpected EOF"))
	}
}

func passTx(store *mocks.MockStore) {
	store.On("WithinTx", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, fn func(catalog.Store) error) error { return fn(store) })
}

func TestImportPartsWithMockStore(t *testing.T) {
	t.Parallel()

	type deps struct {
		store *mocks.MockStore
	}

	pn1 := gofakeit.Numerify("PN-#####")
	pn2 := gofakeit.Numerify("QX-#####")
	input := rows{
		{gofakeit.Company(), pn1, "Масляный фильтр", "3", "10"},
		{gofakeit.Company(), pn2, "Свеча зажигания", "4", "20"},
	}

	type testCase struct {
		name   string
		src    catalog.RowSource
		setup  func(d deps)
		assert func(t *testing.T, stats catalog.Stats, err error, d deps)
	}

	tests := []testCase{
		{
			name: "row write error is counted, run continues",
			src:  input,
			setup: func(d deps) {
				passTx(d.store)
				d.store.On("PartByNumber", mock.Anything, mock.Anything).Return(nil, nil)
				d.store.On("PartSlugTaken", mock.Anything, mock.Anything).Return(false, nil)
				d.store.On("CreatePart", mock.Anything, mock.MatchedBy(func(p *db.SparePart) bool { return p.PartNumber == pn1 })).
					Return(errors.New("UNIQUE constraint failed: spare_parts.slug")).Once()
				d.store.On("CreatePart", mock.Anything, mock.MatchedBy(func(p *db.SparePart) bool {
					return p.PartNumber == pn2 && p.Category == "Система зажигания" && p.StockQuantity == 4
				})).Return(nil).Once()
			},
			assert: func(t *testing.T, stats catalog.Stats, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, 2, stats.Processed)
				assert.Equal(t, 1, stats.Errors)
				assert.Equal(t, 1, stats.Created)
				assert.True(t, stats.Balanced())
			},
		},
		{
			name: "lost connection aborts the run",
			src:  input,
			setup: func(d deps) {
				passTx(d.store)
				d.store.On("PartByNumber", mock.Anything, pn1).Return(nil, driver.ErrBadConn).Once()
			},
			assert: func(t *testing.T, stats catalog.Stats, err error, d deps) {
				require.ErrorIs(t, err, driver.ErrBadConn)
				assert.Equal(t, 1, stats.Processed)
				assert.Zero(t, stats.Errors)
				d.store.AssertNotCalled(t, "PartByNumber", mock.Anything, pn2)
			},
		},
		{
			name: "existing part keeps slug, stock is updated",
			src:  rows{{"Bosch", pn1, "Другое имя", "7", "15,5"}},
			setup: func(d deps) {
				passTx(d.store)
				d.store.On("PartByNumber", mock.Anything, pn1).
					Return(&db.SparePart{ID: 9, PartNumber: pn1, Slug: "old-slug", StockQuantity: 1}, nil).Once()
				d.store.On("UpdatePartStock", mock.Anything, mock.MatchedBy(func(p *db.SparePart) bool {
					return p.ID == 9 && p.Slug == "old-slug" && p.StockQuantity == 7 && p.IsAvailable &&
						p.Price.String() == "15.5"
				})).Return(nil).Once()
			},
			assert: func(t *testing.T, stats catalog.Stats, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, 1, stats.Updated)
				d.store.AssertNotCalled(t, "PartSlugTaken", mock.Anything, mock.Anything)
			},
		},
		{
			name: "read error mid-file is fatal",
			src:  failingRows{rows: input},
			setup: func(d deps) {
				passTx(d.store)
				d.store.On("PartByNumber", mock.Anything, pn1).Return(nil, nil).Once()
				d.store.On("PartSlugTaken", mock.Anything, mock.Anything).Return(false, nil).Once()
				d.store.On("CreatePart", mock.Anything, mock.Anything).Return(nil).Once()
			},
			assert: func(t *testing.T, stats catalog.Stats, err error, d deps) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unexpected EOF")
				assert.Equal(t, 1, stats.Created)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := deps{store: mocks.NewMockStore(t)}
			tt.setup(d)

			rec := catalog.NewReconciler(zerolog.Nop(), d.store, nil, nil)
			stats, err := rec.ImportParts(context.Background(), tt.src, catalog.Options{UpdateExisting: true})
			tt.assert(t, stats, err, d)
		})
	}
}
