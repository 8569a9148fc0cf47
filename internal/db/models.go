// internal/db/models.go
package db

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shopspring/decimal"
)

// car_brands
type CarBrand struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:120;not null"`
	NameKey   string `gorm:"size:120;uniqueIndex"` // FoldKey(Name)
	Slug      string `gorm:"size:160;uniqueIndex"`
	Country   string `gorm:"size:80"`
	IsPopular bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *CarBrand) BeforeSave(*gorm.DB) error {
	b.NameKey = FoldKey(b.Name)
	return nil
}

// car_models; tożsamość = (brand_id, name, generation) bez rozróżniania wielkości liter
type CarModel struct {
	ID               uint     `gorm:"primaryKey"`
	BrandID          uint     `gorm:"not null;uniqueIndex:uniq_car_model,priority:1"`
	Brand            CarBrand `gorm:"foreignKey:BrandID"`
	Name             string   `gorm:"size:120;not null"`
	NameKey          string   `gorm:"size:120;not null;uniqueIndex:uniq_car_model,priority:2"`
	Generation       string   `gorm:"size:80;not null;default:''"`
	GenerationKey    string   `gorm:"size:80;not null;default:'';uniqueIndex:uniq_car_model,priority:3"`
	Slug             string   `gorm:"size:255;uniqueIndex"`
	YearStart        *int
	YearEnd          *int // nil = produkowany nadal
	BodyType         string  `gorm:"size:60"`
	EngineType       string  `gorm:"size:60"`
	EngineVolume     float64 `gorm:"type:decimal(4,1)"`
	TransmissionType string  `gorm:"size:60"`
	IsPopular        bool    `gorm:"index"`
	Description      string  `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (m *CarModel) BeforeSave(*gorm.DB) error {
	m.NameKey = FoldKey(m.Name)
	m.GenerationKey = FoldKey(m.Generation)
	return nil
}

// FoldKey: klucz porównań bez wielkości liter (sqlite LOWER() nie zna cyrylicy).
func FoldKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// spare_parts
type SparePart struct {
	ID            uint            `gorm:"primaryKey"`
	PartNumber    string          `gorm:"size:100;not null;uniqueIndex"`
	Name          string          `gorm:"size:255;not null"`
	Slug          string          `gorm:"size:255;not null;uniqueIndex"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	StockQuantity int             `gorm:"not null;default:0"`
	IsAvailable   bool            `gorm:"index"`
	Manufacturer  string          `gorm:"size:120;index"`
	Category      string          `gorm:"size:120;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// car_model_spare_part (powiązanie wiele-do-wielu z notatką)
type CompatibilityLink struct {
	SparePartID uint   `gorm:"primaryKey"`
	CarModelID  uint   `gorm:"primaryKey;index"`
	Notes       string `gorm:"size:255"`
	CreatedAt   time.Time
}

func (CompatibilityLink) TableName() string { return "car_model_spare_part" }

// link_issues: wpisy kompatybilności, których nie dało się rozwiązać
type LinkIssue struct {
	ID          uint   `gorm:"primaryKey"`
	SparePartID uint   `gorm:"index"`
	PartNumber  string `gorm:"size:100;not null"`
	Reason      string `gorm:"size:40;not null"` // missing_car_model | ambiguous_car_model
	Reference   string `gorm:"size:255;not null"`
	Candidates  string `gorm:"type:text"` // id modeli przy niejednoznaczności, np. "3,7"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// import_files (watcher)
type ImportFile struct {
	ImportID    uint   `gorm:"primaryKey;column:import_id"`
	Filename    string `gorm:"uniqueIndex"`
	Entity      string `gorm:"size:20"`
	SHA256      string `gorm:"uniqueIndex"`
	SizeBytes   int64
	RunID       string    `gorm:"size:36;index"`
	Status      int       `gorm:"index"` // 0=pending, 1=done, 2=error
	LastError   string    `gorm:"type:text"`
	Created     int
	Updated     int
	Skipped     int
	Errors      int
	ReceivedAt  time.Time `gorm:"autoCreateTime"`
	ProcessedAt *time.Time
}

// kv: ostatnie statystyki importów itp.
type KV struct {
	K string `gorm:"primaryKey"`
	V string
}
