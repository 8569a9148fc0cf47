package catalog

import (
	"context"

	"github.com/bartek5186/autoparts-catalog/internal/db"
)

// CarRef to jeden wpis z kolumny kompatybilności: marka, model, opcjonalnie generacja.
type CarRef struct {
	Brand      string
	Model      string
	Generation string
}

// Store: operacje zapisu używane przez import; każdy wiersz idzie w jednej transakcji.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	PartByNumber(ctx context.Context, partNumber string) (*db.SparePart, error) // nil, nil gdy brak
	PartSlugTaken(ctx context.Context, slug string) (bool, error)
	CreatePart(ctx context.Context, p *db.SparePart) error
	UpdatePartStock(ctx context.Context, p *db.SparePart) error

	FindCarModels(ctx context.Context, ref CarRef) ([]db.CarModel, error)
	AttachCarModel(ctx context.Context, partID, modelID uint, notes string) (bool, error)
	SaveLinkIssue(ctx context.Context, issue *db.LinkIssue) error

	BrandByName(ctx context.Context, name string) (*db.CarBrand, error) // nil, nil gdy brak
	CreateBrand(ctx context.Context, b *db.CarBrand) error
	CarModelByKey(ctx context.Context, brandID uint, name, generation string) (*db.CarModel, error)
	BrandSlugTaken(ctx context.Context, slug string) (bool, error)
	CarModelSlugTaken(ctx context.Context, slug string) (bool, error)
	CreateCarModel(ctx context.Context, m *db.CarModel) error
	UpdateCarModel(ctx context.Context, m *db.CarModel) error
}

type PartFilter struct {
	Category     string // dokładna nazwa kategorii
	Manufacturer string // fragment, bez rozróżniania wielkości liter
}

type CarFilter struct {
	Brand   string // nazwa marki (bez rozróżniania wielkości liter)
	BrandID uint
	Popular bool
}

// CatalogStore: pełny zestaw operacji używany przez Manager.
type CatalogStore interface {
	Store

	EachPart(ctx context.Context, f PartFilter, batch int, fn func([]db.SparePart) error) error
	EachCarModel(ctx context.Context, f CarFilter, batch int, fn func([]db.CarModel) error) error

	PartIDsWithoutLinks(ctx context.Context) ([]uint, error)
	CarModelIDs(ctx context.Context) ([]uint, error)

	DecrementStock(ctx context.Context, partNumber string, qty int) (*db.SparePart, error)
	LinkIssues(ctx context.Context, limit int) ([]db.LinkIssue, error)

	PutKV(ctx context.Context, k, v string) error
	GetKV(ctx context.Context, k string) (string, bool, error)
}
