package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialLibrary - Malzeme kütüphanesi kaydı (fiyatlandırma ve kitler buna bağlanır)
type MaterialLibrary struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null;unique"`
	Category  string `gorm:"size:50;index"` // boya, alçı, elektrik vs.
	Unit      string `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaterialPricing - Malzeme için piyasa fiyat aralığı.
// Hesaplayıcı temkinli davranıp MaxPrice'ı baz alır.
type MaterialPricing struct {
	ID                uint            `gorm:"primaryKey"`
	MaterialLibraryID uint            `gorm:"uniqueIndex;not null"`
	Material          MaterialLibrary `gorm:"foreignKey:MaterialLibraryID"`
	MinPrice          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	MaxPrice          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MaterialKit - Tek seferde teklife eklenebilen malzeme paketi
type MaterialKit struct {
	ID          uint              `gorm:"primaryKey"`
	Name        string            `gorm:"size:150;not null;unique"`
	Description string            `gorm:"size:255"`
	Items       []MaterialKitItem `gorm:"foreignKey:MaterialKitID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaterialKitItem - Kit satırı: malzeme + miktar + fire ve kâr yüzdeleri
type MaterialKitItem struct {
	ID                uint            `gorm:"primaryKey"`
	MaterialKitID     uint            `gorm:"index;not null"`
	MaterialLibraryID uint            `gorm:"index;not null"` // Zayıf referans: malzeme silinmiş olabilir
	Quantity          decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	WasteFactorPct    decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"` // Fire payı yüzdesi
	DefaultMarkupPct  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"` // Varsayılan kâr marjı yüzdesi
	SortOrder         int             `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
