package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/bartek5186/autoparts-catalog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implementuje CatalogStore na gorm (sqlite/mysql/postgres).
type GormStore struct {
	db *gorm.DB
}

var _ CatalogStore = (*GormStore)(nil)

func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) PartByNumber(ctx context.Context, partNumber string) (*db.SparePart, error) {
	var p db.SparePart
	err := s.db.WithContext(ctx).Where("part_number = ?", partNumber).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) PartSlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&db.SparePart{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (s *GormStore) CreatePart(ctx context.Context, p *db.SparePart) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) UpdatePartStock(ctx context.Context, p *db.SparePart) error {
	return s.db.WithContext(ctx).Model(p).
		Updates(map[string]any{
			"price":          p.Price,
			"stock_quantity": p.StockQuantity,
			"is_available":   p.IsAvailable,
		}).Error
}

func (s *GormStore) FindCarModels(ctx context.Context, ref CarRef) ([]db.CarModel, error) {
	q := s.db.WithContext(ctx).
		Select("car_models.*").
		Joins("JOIN car_brands ON car_brands.id = car_models.brand_id").
		Where("car_brands.name_key = ?", db.FoldKey(ref.Brand)).
		Where("car_models.name_key = ?", db.FoldKey(ref.Model))
	if ref.Generation != "" {
		q = q.Where("car_models.generation_key = ?", db.FoldKey(ref.Generation))
	}
	var out []db.CarModel
	err := q.Order("car_models.id").Find(&out).Error
	return out, err
}

// AttachCarModel dodaje powiązanie; false gdy już istniało.
func (s *GormStore) AttachCarModel(ctx context.Context, partID, modelID uint, notes string) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.CompatibilityLink{SparePartID: partID, CarModelID: modelID, Notes: notes})
	return res.RowsAffected > 0, res.Error
}

// SaveLinkIssue: upsert po (part_number, reason, reference).
func (s *GormStore) SaveLinkIssue(ctx context.Context, issue *db.LinkIssue) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "part_number"}, {Name: "reason"}, {Name: "reference"}},
		DoUpdates: clause.AssignmentColumns([]string{"spare_part_id", "candidates", "updated_at"}),
	}).Create(issue).Error
}

func (s *GormStore) BrandByName(ctx context.Context, name string) (*db.CarBrand, error) {
	var b db.CarBrand
	err := s.db.WithContext(ctx).Where("name_key = ?", db.FoldKey(name)).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *GormStore) CreateBrand(ctx context.Context, b *db.CarBrand) error {
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *GormStore) CarModelByKey(ctx context.Context, brandID uint, name, generation string) (*db.CarModel, error) {
	var m db.CarModel
	err := s.db.WithContext(ctx).
		Where("brand_id = ? AND name_key = ? AND generation_key = ?", brandID, db.FoldKey(name), db.FoldKey(generation)).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) BrandSlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&db.CarBrand{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (s *GormStore) CarModelSlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&db.CarModel{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (s *GormStore) CreateCarModel(ctx context.Context, m *db.CarModel) error {
	return s.db.WithContext(ctx).Omit("Brand").Create(m).Error
}

func (s *GormStore) UpdateCarModel(ctx context.Context, m *db.CarModel) error {
	return s.db.WithContext(ctx).Model(m).
		Select("year_start", "year_end", "body_type", "engine_type", "engine_volume",
			"transmission_type", "is_popular", "description", "updated_at").
		Updates(m).Error
}

func (s *GormStore) EachPart(ctx context.Context, f PartFilter, batch int, fn func([]db.SparePart) error) error {
	q := s.db.WithContext(ctx).Model(&db.SparePart{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Manufacturer != "" {
		q = q.Where("LOWER(manufacturer) LIKE ?", "%"+strings.ToLower(f.Manufacturer)+"%")
	}
	var rows []db.SparePart
	return q.FindInBatches(&rows, batch, func(_ *gorm.DB, _ int) error {
		return fn(rows)
	}).Error
}

func (s *GormStore) EachCarModel(ctx context.Context, f CarFilter, batch int, fn func([]db.CarModel) error) error {
	q := s.db.WithContext(ctx).Model(&db.CarModel{}).Preload("Brand")
	if f.BrandID != 0 {
		q = q.Where("brand_id = ?", f.BrandID)
	}
	if f.Brand != "" {
		q = q.Where("brand_id IN (?)",
			s.db.Model(&db.CarBrand{}).Select("id").Where("name_key = ?", db.FoldKey(f.Brand)))
	}
	if f.Popular {
		q = q.Where("is_popular = ?", true)
	}
	var rows []db.CarModel
	return q.FindInBatches(&rows, batch, func(_ *gorm.DB, _ int) error {
		return fn(rows)
	}).Error
}

func (s *GormStore) PartIDsWithoutLinks(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&db.SparePart{}).
		Where("id NOT IN (?)", s.db.Model(&db.CompatibilityLink{}).Select("spare_part_id")).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *GormStore) CarModelIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&db.CarModel{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// DecrementStock zmniejsza stan tylko gdy wystarcza (warunek w samym UPDATE).
func (s *GormStore) DecrementStock(ctx context.Context, partNumber string, qty int) (*db.SparePart, error) {
	var out *db.SparePart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.SparePart{}).
			Where("part_number = ? AND stock_quantity >= ?", partNumber, qty).
			Updates(map[string]any{
				"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
				"is_available":   gorm.Expr("stock_quantity - ? > 0", qty),
			})
		if res.Error != nil {
			return res.Error
		}
		var p db.SparePart
		if err := tx.Where("part_number = ?", partNumber).Take(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}
		out = &p
		return nil
	})
	return out, err
}

func (s *GormStore) LinkIssues(ctx context.Context, limit int) ([]db.LinkIssue, error) {
	var out []db.LinkIssue
	q := s.db.WithContext(ctx).Order("updated_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (s *GormStore) PutKV(ctx context.Context, k, v string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v"}),
	}).Create(&db.KV{K: k, V: v}).Error
}

func (s *GormStore) GetKV(ctx context.Context, k string) (string, bool, error) {
	var kv db.KV
	err := s.db.WithContext(ctx).Where("k = ?", k).Take(&kv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return kv.V, true, nil
}
