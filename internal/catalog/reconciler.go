package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/bartek5186/autoparts-catalog/internal/csvio"
	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	EntitySpareParts = "spare_parts"
	EntityCarModels  = "car_models"

	progressEvery = 500
)

// Options sterują importem.
type Options struct {
	UpdateExisting bool
	CreateBackup   bool
}

// Stats: processed = created + updated + skipped + errors po każdym zakończonym imporcie.
type Stats struct {
	RunID         string          `json:"run_id"`
	Entity        string          `json:"entity"`
	Processed     int             `json:"processed"`
	Created       int             `json:"created"`
	Updated       int             `json:"updated"`
	Skipped       int             `json:"skipped"`
	Errors        int             `json:"errors"`
	BrandsCreated int             `json:"brands_created"`
	LinksCreated  int             `json:"links_created"`
	LinkIssues    int             `json:"link_issues"`
	Backup        *BackupArtifact `json:"backup,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
}

func (s Stats) Balanced() bool {
	return s.Processed == s.Created+s.Updated+s.Skipped+s.Errors
}

// RowSource to wszystko, co daje nagłówek i wiersze (csvio.Reader).
type RowSource interface {
	Header() []string
	Rows() iter.Seq2[csvio.Row, error]
}

// Backuper robi kopię tabeli przed importem.
type Backuper interface {
	Backup(ctx context.Context, entity string) (BackupArtifact, error)
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeUpdated
)

var partAliases = []csvio.Alias{
	{Field: "manufacturer", Names: []string{"бренд", "brand", "производитель", "manufacturer", "марка"}},
	{Field: "part_number", Names: []string{"артикул", "part_number", "partnumber", "номер", "код"}},
	{Field: "name", Names: []string{"наименование", "название", "name", "title"}},
	{Field: "quantity", Names: []string{"количество", "кол-во", "qty", "quantity", "stock_quantity", "остаток"}},
	{Field: "price", Names: []string{"цена", "стоимость", "price"}},
	{Field: "category", Names: []string{"категория", "category"}},
	{Field: "description", Names: []string{"описание", "description"}},
	{Field: "compatibility", Names: []string{"применимость", "совместимость", "compatibility", "cars"}},
}

// układ bez rozpoznanego nagłówka: producent;numer;nazwa;ilość;[cena]
var partPositional = csvio.Columns{"manufacturer": 0, "part_number": 1, "name": 2, "quantity": 3, "price": 4}

const PartMinColumns = 4

type partInput struct {
	Line          int
	Manufacturer  string
	PartNumber    string
	Name          string
	Quantity      int
	Price         decimal.Decimal
	Category      string
	Description   string
	Compatibility string
}

func parsePartRow(row csvio.Row, cols csvio.Columns) (partInput, error) {
	in := partInput{
		Line:          row.Line,
		Manufacturer:  cols.Get(row.Fields, "manufacturer"),
		PartNumber:    cols.Get(row.Fields, "part_number"),
		Name:          cols.Get(row.Fields, "name"),
		Price:         csvio.ParsePrice(cols.Get(row.Fields, "price")),
		Category:      cols.Get(row.Fields, "category"),
		Description:   cols.Get(row.Fields, "description"),
		Compatibility: cols.Get(row.Fields, "compatibility"),
	}
	if in.PartNumber == "" {
		return in, errors.New("brak numeru części")
	}
	if in.Name == "" {
		return in, errors.New("brak nazwy")
	}
	qty, err := csvio.ParseInt(cols.Get(row.Fields, "quantity"))
	if err != nil {
		return in, fmt.Errorf("ilość: %w", err)
	}
	in.Quantity = qty
	return in, nil
}

// Reconciler uzgadnia wiersze pliku z katalogiem: tworzy, aktualizuje albo pomija.
type Reconciler struct {
	log        zerolog.Logger
	store      Store
	classifier *Classifier
	backups    Backuper
}

func NewReconciler(log zerolog.Logger, store Store, classifier *Classifier, backups Backuper) *Reconciler {
	if classifier == nil {
		classifier = NewClassifier(nil, "")
	}
	return &Reconciler{log: log, store: store, classifier: classifier, backups: backups}
}

// ImportParts. Każdy wiersz w osobnej transakcji; błąd fatalny przerywa run,
// a wcześniej zatwierdzone wiersze zostają.
func (r *Reconciler) ImportParts(ctx context.Context, src RowSource, opts Options) (Stats, error) {
	stats := Stats{Entity: EntitySpareParts, StartedAt: time.Now()}
	log := r.log.With().Str("entity", EntitySpareParts).Logger()

	if opts.CreateBackup {
		art, err := r.backup(ctx, EntitySpareParts)
		if err != nil {
			return stats, err
		}
		stats.Backup = &art
	}

	if len(src.Header()) == 0 {
		return stats, ErrBadHeader
	}
	cols, ok := csvio.ResolveColumns(src.Header(), partAliases, []string{"part_number", "name"}, partPositional)
	if !ok {
		log.Warn().Strs("header", src.Header()).Msg("nagłówek nierozpoznany, układ pozycyjny")
	}

	linker := NewLinker(log)
	seen := map[string]struct{}{}

	for row, err := range src.Rows() {
		if err != nil {
			return stats, fatal(fmt.Errorf("odczyt pliku: %w", err))
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++
		if stats.Processed%progressEvery == 0 {
			log.Debug().Int("processed", stats.Processed).Msg("postęp importu")
		}

		if row.Short {
			stats.Skipped++
			log.Debug().Int("line", row.Line).Int("columns", len(row.Fields)).Msg("za mało kolumn, pomijam")
			continue
		}
		in, err := parsePartRow(row, cols)
		if err != nil {
			stats.Skipped++
			log.Warn().Err(err).Int("line", row.Line).Msg("niepoprawny wiersz, pomijam")
			continue
		}
		if _, dup := seen[in.PartNumber]; dup {
			stats.Skipped++
			log.Debug().Int("line", row.Line).Str("part_number", in.PartNumber).Msg("duplikat w pliku, pomijam")
			continue
		}
		seen[in.PartNumber] = struct{}{}

		var (
			res   outcome
			links linkResult
		)
		err = r.store.WithinTx(ctx, func(tx Store) error {
			var txErr error
			res, links, txErr = r.reconcilePart(ctx, tx, linker, in, opts)
			return txErr
		})
		if err != nil {
			if isFatal(err) {
				return stats, err
			}
			stats.Errors++
			log.Error().Err(err).Int("line", row.Line).Str("part_number", in.PartNumber).Msg("błąd zapisu wiersza")
			continue
		}

		switch res {
		case outcomeCreated:
			stats.Created++
		case outcomeUpdated:
			stats.Updated++
		default:
			stats.Skipped++
		}
		stats.LinksCreated += links.Linked
		stats.LinkIssues += links.Issues
	}

	stats.FinishedAt = time.Now()
	return stats, nil
}

func (r *Reconciler) reconcilePart(ctx context.Context, tx Store, linker *Linker, in partInput, opts Options) (outcome, linkResult, error) {
	existing, err := tx.PartByNumber(ctx, in.PartNumber)
	if err != nil {
		return outcomeSkipped, linkResult{}, err
	}

	stock := max(in.Quantity, 0)

	if existing == nil {
		slug, err := uniqueSlug(ctx, PartSlug(in.Name, in.PartNumber), tx.PartSlugTaken)
		if err != nil {
			return outcomeSkipped, linkResult{}, err
		}
		category := in.Category
		if category == "" {
			category = r.classifier.Classify(in.Name)
		}
		description := in.Description
		if description == "" {
			description = defaultDescription(in.Name, in.Manufacturer)
		}
		part := &db.SparePart{
			PartNumber:    in.PartNumber,
			Name:          in.Name,
			Slug:          slug,
			Description:   description,
			Price:         in.Price,
			StockQuantity: stock,
			IsAvailable:   stock > 0,
			Manufacturer:  in.Manufacturer,
			Category:      category,
		}
		if err := tx.CreatePart(ctx, part); err != nil {
			return outcomeSkipped, linkResult{}, fmt.Errorf("zapis części: %w", err)
		}
		links, err := r.link(ctx, tx, linker, part, in.Compatibility)
		return outcomeCreated, links, err
	}

	if !opts.UpdateExisting {
		return outcomeSkipped, linkResult{}, nil
	}

	existing.Price = in.Price
	existing.StockQuantity = stock
	existing.IsAvailable = stock > 0
	if err := tx.UpdatePartStock(ctx, existing); err != nil {
		return outcomeSkipped, linkResult{}, fmt.Errorf("aktualizacja części: %w", err)
	}
	links, err := r.link(ctx, tx, linker, existing, in.Compatibility)
	return outcomeUpdated, links, err
}

func (r *Reconciler) link(ctx context.Context, tx Store, linker *Linker, part *db.SparePart, raw string) (linkResult, error) {
	if strings.TrimSpace(raw) == "" {
		return linkResult{}, nil
	}
	return linker.Link(ctx, tx, part, raw)
}

func (r *Reconciler) backup(ctx context.Context, entity string) (BackupArtifact, error) {
	if r.backups == nil {
		return BackupArtifact{}, fatal(errors.New("backup włączony, ale brak menedżera kopii"))
	}
	art, err := r.backups.Backup(ctx, entity)
	if err != nil {
		return art, fatal(fmt.Errorf("backup %s: %w", entity, err))
	}
	r.log.Info().Str("entity", entity).Str("path", art.Path).Int64("size", art.Size).Msg("backup utworzony")
	return art, nil
}

// uniqueSlug dokleja -2, -3, ... aż slug będzie wolny.
func uniqueSlug(ctx context.Context, base string, taken func(context.Context, string) (bool, error)) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		busy, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("sprawdzenie sluga: %w", err)
		}
		if !busy {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func defaultDescription(name, manufacturer string) string {
	if manufacturer == "" {
		return "Запчасть " + name
	}
	return fmt.Sprintf("Запчасть %s производителя %s", name, manufacturer)
}
