package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bartek5186/autoparts-catalog/internal/csvio"
	"github.com/bartek5186/autoparts-catalog/internal/db"
)

var carAliases = []csvio.Alias{
	{Field: "brand", Names: []string{"brand", "марка", "бренд"}},
	{Field: "model", Names: []string{"model", "модель"}},
	{Field: "generation", Names: []string{"generation", "поколение", "кузов_код"}},
	{Field: "year_from", Names: []string{"year_from", "year_start", "год_начала", "год с", "год от"}},
	{Field: "year_to", Names: []string{"year_to", "year_end", "год_окончания", "год по", "год до"}},
	{Field: "body_type", Names: []string{"body_type", "тип кузова", "кузов"}},
	{Field: "engine_type", Names: []string{"engine_type", "тип двигателя", "двигатель"}},
	{Field: "engine_volume", Names: []string{"engine_volume", "объем", "объём"}},
	{Field: "transmission_type", Names: []string{"transmission_type", "transmission", "кпп", "коробка"}},
	{Field: "is_popular", Names: []string{"is_popular", "popular", "популярная", "популярный"}},
	{Field: "country", Names: []string{"country", "страна"}},
	{Field: "description", Names: []string{"description", "описание"}},
}

var carPositional = csvio.Columns{
	"brand": 0, "model": 1, "generation": 2, "year_from": 3, "year_to": 4, "body_type": 5,
	"engine_type": 6, "engine_volume": 7, "transmission_type": 8, "is_popular": 9, "country": 10,
}

const CarMinColumns = 2

type carInput struct {
	Line             int
	Brand            string
	Model            string
	Generation       string
	YearStart        *int
	YearEnd          *int
	BodyType         string
	EngineType       string
	EngineVolume     float64
	TransmissionType string
	IsPopular        bool
	Country          string
	Description      string
}

func (c carInput) key() string {
	return db.FoldKey(c.Brand) + "\x00" + db.FoldKey(c.Model) + "\x00" + db.FoldKey(c.Generation)
}

func parseCarRow(row csvio.Row, cols csvio.Columns) (carInput, error) {
	in := carInput{
		Line:             row.Line,
		Brand:            cols.Get(row.Fields, "brand"),
		Model:            cols.Get(row.Fields, "model"),
		Generation:       cols.Get(row.Fields, "generation"),
		BodyType:         cols.Get(row.Fields, "body_type"),
		EngineType:       cols.Get(row.Fields, "engine_type"),
		EngineVolume:     csvio.ParseFloat(cols.Get(row.Fields, "engine_volume")),
		TransmissionType: cols.Get(row.Fields, "transmission_type"),
		IsPopular:        csvio.ParseBool(cols.Get(row.Fields, "is_popular")),
		Country:          cols.Get(row.Fields, "country"),
		Description:      cols.Get(row.Fields, "description"),
	}
	if in.Brand == "" || in.Model == "" {
		return in, errors.New("brak marki lub modelu")
	}
	var err error
	if in.YearStart, err = csvio.ParseOptionalInt(cols.Get(row.Fields, "year_from")); err != nil {
		return in, fmt.Errorf("year_from: %w", err)
	}
	if in.YearEnd, err = csvio.ParseOptionalInt(cols.Get(row.Fields, "year_to")); err != nil {
		return in, fmt.Errorf("year_to: %w", err)
	}
	if in.YearStart != nil && in.YearEnd != nil && *in.YearEnd < *in.YearStart {
		return in, fmt.Errorf("year_to %d < year_from %d", *in.YearEnd, *in.YearStart)
	}
	return in, nil
}

// ImportCars: tożsamość modelu to (marka, model, generacja); brakujące marki tworzone w locie.
func (r *Reconciler) ImportCars(ctx context.Context, src RowSource, opts Options) (Stats, error) {
	stats := Stats{Entity: EntityCarModels, StartedAt: time.Now()}
	log := r.log.With().Str("entity", EntityCarModels).Logger()

	if opts.CreateBackup {
		art, err := r.backup(ctx, EntityCarModels)
		if err != nil {
			return stats, err
		}
		stats.Backup = &art
	}

	if len(src.Header()) == 0 {
		return stats, ErrBadHeader
	}
	cols, ok := csvio.ResolveColumns(src.Header(), carAliases, []string{"brand", "model"}, carPositional)
	if !ok {
		log.Warn().Strs("header", src.Header()).Msg("nagłówek nierozpoznany, układ pozycyjny")
	}

	seen := map[string]struct{}{}
	for row, err := range src.Rows() {
		if err != nil {
			return stats, fatal(fmt.Errorf("odczyt pliku: %w", err))
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++

		if row.Short {
			stats.Skipped++
			log.Debug().Int("line", row.Line).Msg("za mało kolumn, pomijam")
			continue
		}
		in, err := parseCarRow(row, cols)
		if err != nil {
			stats.Skipped++
			log.Warn().Err(err).Int("line", row.Line).Msg("niepoprawny wiersz, pomijam")
			continue
		}
		if _, dup := seen[in.key()]; dup {
			stats.Skipped++
			log.Debug().Int("line", row.Line).Str("brand", in.Brand).Str("model", in.Model).Msg("duplikat w pliku, pomijam")
			continue
		}
		seen[in.key()] = struct{}{}

		var (
			res          outcome
			brandCreated bool
		)
		err = r.store.WithinTx(ctx, func(tx Store) error {
			var txErr error
			res, brandCreated, txErr = r.reconcileCar(ctx, tx, in, opts)
			return txErr
		})
		if err != nil {
			if isFatal(err) {
				return stats, err
			}
			stats.Errors++
			log.Error().Err(err).Int("line", row.Line).Str("brand", in.Brand).Str("model", in.Model).Msg("błąd zapisu wiersza")
			continue
		}
		if brandCreated {
			stats.BrandsCreated++
		}
		switch res {
		case outcomeCreated:
			stats.Created++
		case outcomeUpdated:
			stats.Updated++
		default:
			stats.Skipped++
		}
	}

	stats.FinishedAt = time.Now()
	return stats, nil
}

func (r *Reconciler) reconcileCar(ctx context.Context, tx Store, in carInput, opts Options) (outcome, bool, error) {
	brand, err := tx.BrandByName(ctx, in.Brand)
	if err != nil {
		return outcomeSkipped, false, err
	}
	brandCreated := false
	if brand == nil {
		base := Slugify(in.Brand)
		if base == "" {
			base = "brand"
		}
		slug, err := uniqueSlug(ctx, base, tx.BrandSlugTaken)
		if err != nil {
			return outcomeSkipped, false, err
		}
		brand = &db.CarBrand{Name: in.Brand, Slug: slug, Country: in.Country, IsPopular: in.IsPopular}
		if err := tx.CreateBrand(ctx, brand); err != nil {
			return outcomeSkipped, false, fmt.Errorf("zapis marki %q: %w", in.Brand, err)
		}
		brandCreated = true
	}

	existing, err := tx.CarModelByKey(ctx, brand.ID, in.Model, in.Generation)
	if err != nil {
		return outcomeSkipped, brandCreated, err
	}

	if existing == nil {
		slug, err := uniqueSlug(ctx, CarModelSlug(in.Brand, in.Model, in.Generation), tx.CarModelSlugTaken)
		if err != nil {
			return outcomeSkipped, brandCreated, err
		}
		m := &db.CarModel{
			BrandID:    brand.ID,
			Name:       in.Model,
			Generation: in.Generation,
			Slug:       slug,
		}
		applyCarAttrs(m, in)
		if err := tx.CreateCarModel(ctx, m); err != nil {
			return outcomeSkipped, brandCreated, fmt.Errorf("zapis modelu: %w", err)
		}
		return outcomeCreated, brandCreated, nil
	}

	if !opts.UpdateExisting {
		return outcomeSkipped, brandCreated, nil
	}
	applyCarAttrs(existing, in)
	if err := tx.UpdateCarModel(ctx, existing); err != nil {
		return outcomeSkipped, brandCreated, fmt.Errorf("aktualizacja modelu: %w", err)
	}
	return outcomeUpdated, brandCreated, nil
}

func applyCarAttrs(m *db.CarModel, in carInput) {
	m.YearStart = in.YearStart
	m.YearEnd = in.YearEnd
	m.BodyType = in.BodyType
	m.EngineType = in.EngineType
	m.EngineVolume = in.EngineVolume
	m.TransmissionType = in.TransmissionType
	m.IsPopular = in.IsPopular
	if in.Description != "" {
		m.Description = in.Description
	} else if m.Description == "" {
		m.Description = fmt.Sprintf("%s %s %s", in.Brand, in.Model, in.Generation)
		m.Description = strings.TrimSpace(m.Description)
	}
}
