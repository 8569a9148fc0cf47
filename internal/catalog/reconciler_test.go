package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T) (*Reconciler, *GormStore) {
	t.Helper()
	store := newTestStore(t)
	return NewReconciler(zerolog.Nop(), store, NewClassifier(nil, ""), nil), store
}

func mustPart(t *testing.T, store *GormStore, pn string) *db.SparePart {
	t.Helper()
	p, err := store.PartByNumber(context.Background(), pn)
	require.NoError(t, err)
	require.NotNil(t, p, pn)
	return p
}

func TestImportPartsCreatesThenUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, store := newTestReconciler(t)

	first := partsSource([]string{"Bosch", "0001", "Масляный фильтр", "10", "350,50"})
	stats, err := rec.ImportParts(ctx, first, Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Created)

	p := mustPart(t, store, "0001")
	assert.Equal(t, "maslyanyy-filtr-0001", p.Slug)
	assert.Equal(t, "Фильтры", p.Category)
	assert.Equal(t, 10, p.StockQuantity)
	assert.True(t, p.IsAvailable)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("350.50")))
	assert.Equal(t, "Запчасть Масляный фильтр производителя Bosch", p.Description)

	second := partsSource([]string{"Bosch", "0001", "Масляный фильтр", "0", "400"})
	stats, err = rec.ImportParts(ctx, second, Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, Stats{Entity: EntitySpareParts, Processed: 1, Updated: 1}, withoutTimes(stats))

	p = mustPart(t, store, "0001")
	assert.Equal(t, 0, p.StockQuantity)
	assert.False(t, p.IsAvailable)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, "maslyanyy-filtr-0001", p.Slug, "slug się nie zmienia")

	third := partsSource([]string{"Bosch", "0001", "Масляный фильтр", "99", "1"})
	stats, err = rec.ImportParts(ctx, third, Options{UpdateExisting: false})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, mustPart(t, store, "0001").StockQuantity)
}

func TestImportPartsRowRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, store := newTestReconciler(t)

	src := partsSource(
		[]string{"Bosch", "A1", "Фильтр", "5", "100"},
		[]string{"Bosch", "A1", "Фильтр другой", "7", "200"}, // duplikat w pliku
		[]string{"Mann", "B2", "Колодки", "-3", "10"},        // ujemny stan -> 0
		[]string{"Mann", "C3", "Свеча", "2"},                 // bez ceny -> 0
		[]string{"Mann", "D4"},                               // za krótki
		[]string{"Mann", "E5", "Ремень", "dużo", "1"},        // zła ilość
		[]string{"Mann", "", "Без номера", "1", "1"},         // brak numeru
	)
	stats, err := rec.ImportParts(ctx, src, Options{UpdateExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 7, stats.Processed)
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 4, stats.Skipped)
	assert.Zero(t, stats.Errors)
	assert.True(t, stats.Balanced())

	assert.Equal(t, 5, mustPart(t, store, "A1").StockQuantity)

	b2 := mustPart(t, store, "B2")
	assert.Zero(t, b2.StockQuantity)
	assert.False(t, b2.IsAvailable)

	assert.True(t, mustPart(t, store, "C3").Price.IsZero())
}

func TestImportPartsSlugCollision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, store := newTestReconciler(t)

	src := partsSource(
		[]string{"Bosch", "ABCDEFGH-1", "Фильтр", "1", "1"},
		[]string{"Bosch", "ABCDEFGH-2", "Фильтр", "1", "1"},
		[]string{"Bosch", "ABCDEFGH-3", "Фильтр", "1", "1"},
	)
	stats, err := rec.ImportParts(ctx, src, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, stats.Created)

	assert.Equal(t, "filtr-abcdefgh", mustPart(t, store, "ABCDEFGH-1").Slug)
	assert.Equal(t, "filtr-abcdefgh-2", mustPart(t, store, "ABCDEFGH-2").Slug)
	assert.Equal(t, "filtr-abcdefgh-3", mustPart(t, store, "ABCDEFGH-3").Slug)
}

func TestImportPartsCompatibility(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, store := newTestReconciler(t)

	_, err := rec.ImportCars(ctx, carsSource(
		[]string{"Toyota", "Camry", "XV50", "2011", "2017", "Япония", "1"},
		[]string{"Toyota", "Camry", "XV70", "2017", "-", "Япония", "1"},
		[]string{"Kia", "Rio", "", "2017", "", "Корея", "0"},
	), Options{})
	require.NoError(t, err)

	src := partsSource(
		[]string{"Bosch", "0001", "Масляный фильтр", "10", "350", "Toyota Camry XV70|Kia Rio|Lada Vesta"},
		[]string{"Bosch", "0002", "Воздушный фильтр", "3", "150", "Toyota Camry, Kia/Rio"},
	)
	stats, err := rec.ImportParts(ctx, src, Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.LinksCreated)
	assert.Equal(t, 2, stats.LinkIssues)

	issues, err := store.LinkIssues(ctx, 0)
	require.NoError(t, err)
	reasons := map[string]string{}
	for _, is := range issues {
		reasons[is.Reference] = is.Reason
	}
	assert.Equal(t, IssueMissingCarModel, reasons["Lada Vesta"])
	assert.Equal(t, IssueAmbiguousCarModel, reasons["Toyota Camry"])

	// ponowny import nie dubluje powiązań ani zgłoszeń
	stats, err = rec.ImportParts(ctx, src, Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Zero(t, stats.LinksCreated)
	issues, err = store.LinkIssues(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, issues, 2)
}

func TestImportPartsStatsBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, _ := newTestReconciler(t)
	faker := gofakeit.New(42)

	var rows [][]string
	for i := range 60 {
		pn := fmt.Sprintf("PN-%03d", faker.IntRange(0, 40)) // celowe duplikaty
		row := []string{faker.Company(), pn, faker.ProductName(), fmt.Sprint(faker.IntRange(-5, 50)), fmt.Sprintf("%.2f", faker.Price(1, 5000))}
		if i%10 == 0 {
			row = row[:2]
		}
		rows = append(rows, row)
	}

	stats, err := rec.ImportParts(ctx, partsSource(rows...), Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 60, stats.Processed)
	assert.True(t, stats.Balanced(), "%+v", stats)

	again, err := rec.ImportParts(ctx, partsSource(rows...), Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, stats.Created+stats.Updated, again.Updated)
	assert.True(t, again.Balanced())
}

func TestImportPartsCancelled(t *testing.T) {
	t.Parallel()
	rec, _ := newTestReconciler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rec.ImportParts(ctx, partsSource([]string{"Bosch", "0001", "Фильтр", "1", "1"}), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportPartsBackupFailureIsFatal(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	// katalog kopii wskazuje na plik -> MkdirAll się nie uda
	blocker := writeTestFile(t, "blocker", "x")
	backups := NewBackupManager(zerolog.Nop(), store, blocker, nil)
	rec := NewReconciler(zerolog.Nop(), store, nil, backups)

	stats, err := rec.ImportParts(context.Background(), partsSource([]string{"Bosch", "0001", "Фильтр", "1", "1"}), Options{CreateBackup: true})
	require.Error(t, err)
	assert.Zero(t, stats.Processed)

	p, err := store.PartByNumber(context.Background(), "0001")
	require.NoError(t, err)
	assert.Nil(t, p, "bez kopii nic nie zapisujemy")
}

func withoutTimes(s Stats) Stats {
	s.StartedAt, s.FinishedAt = time.Time{}, time.Time{}
	return s
}
