package catalog

import (
	"context"
	"testing"

	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCars(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, store := newTestReconciler(t)

	src := carsSource(
		[]string{"Toyota", "Camry", "XV70", "2017", "-", "Япония", "1"},
		[]string{"Toyota", "Corolla", "E210", "2018", "", "Япония", "да"},
		[]string{"Lada", "Vesta", "", "2015", "2022", "Россия", "0"},
		[]string{"toyota", "camry", "xv70", "2017", "", "", ""}, // duplikat (wielkość liter)
		[]string{"Lada", "Granta", "", "2020", "2010", "", ""},  // lata odwrotnie
		[]string{"Lada"},                                        // za krótki
	)
	stats, err := rec.ImportCars(ctx, src, Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Processed)
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 2, stats.BrandsCreated)
	assert.True(t, stats.Balanced())

	toyota, err := store.BrandByName(ctx, "TOYOTA")
	require.NoError(t, err)
	require.NotNil(t, toyota)
	assert.Equal(t, "Япония", toyota.Country)

	camry, err := store.CarModelByKey(ctx, toyota.ID, "Camry", "XV70")
	require.NoError(t, err)
	require.NotNil(t, camry)
	assert.Equal(t, "toyota-camry-xv70", camry.Slug)
	require.NotNil(t, camry.YearStart)
	assert.Equal(t, 2017, *camry.YearStart)
	assert.Nil(t, camry.YearEnd)
	assert.True(t, camry.IsPopular)

	// aktualizacja atrybutów, marki nie są tworzone drugi raz
	stats, err = rec.ImportCars(ctx, carsSource(
		[]string{"Toyota", "Camry", "XV70", "2017", "2024", "Япония", "0"},
	), Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Zero(t, stats.BrandsCreated)

	camry, err = store.CarModelByKey(ctx, toyota.ID, "camry", "xv70")
	require.NoError(t, err)
	require.NotNil(t, camry.YearEnd)
	assert.Equal(t, 2024, *camry.YearEnd)
	assert.False(t, camry.IsPopular)

	var count int64
	require.NoError(t, store.db.Model(&db.CarModel{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestImportCarsNoUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, _ := newTestReconciler(t)

	row := []string{"Kia", "Rio", "", "2017", "", "Корея", "1"}
	_, err := rec.ImportCars(ctx, carsSource(row), Options{})
	require.NoError(t, err)

	stats, err := rec.ImportCars(ctx, carsSource(row), Options{UpdateExisting: false})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Updated)
}

func TestImportCarsBrandSlugCollision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, store := newTestReconciler(t)

	stats, err := rec.ImportCars(ctx, carsSource(
		[]string{"Mercedes-Benz", "E-Class", "W213", "2016", "", "", ""},
		[]string{"Mercedes Benz", "C-Class", "W206", "2021", "", "", ""},
		[]string{"!!!", "Model", "", "", "", "", ""},
	), Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Created)
	assert.Zero(t, stats.Errors)
	assert.Equal(t, 3, stats.BrandsCreated)

	var slugs []string
	require.NoError(t, store.db.Model(&db.CarBrand{}).Order("id").Pluck("slug", &slugs).Error)
	assert.Equal(t, []string{"mercedes-benz", "mercedes-benz-2", "brand"}, slugs)
}

func TestImportCarsDedupFoldsWhitespace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec, _ := newTestReconciler(t)

	stats, err := rec.ImportCars(ctx, carsSource(
		[]string{"Toyota", "Land Cruiser", "J200", "2007", "", "", ""},
		[]string{"Toyota ", "Land  Cruiser", "j200", "2008", "", "", ""},
	), Options{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Updated)
}
