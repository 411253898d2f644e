package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusSent      EstimateStatus = "sent"
	EstimateStatusApproved  EstimateStatus = "approved"
	EstimateStatusRejected  EstimateStatus = "rejected"
	EstimateStatusConverted EstimateStatus = "converted" // Terminal: geri dönüşü yok
)

// JobEstimate - Müşteriye verilen maliyet teklifi.
// converted durumuna geçiş tek yönlü ve tek seferliktir; bu geçişi yalnızca
// dönüşüm motoru yapar (bkz. internal/estimate).
type JobEstimate struct {
	ID              uint            `gorm:"primaryKey"`
	Title           string          `gorm:"size:150;not null"`
	ClientProfileID *uint           `gorm:"index"`
	Client          *ClientProfile  `gorm:"foreignKey:ClientProfileID"`
	Status          EstimateStatus  `gorm:"size:20;not null;default:draft;index"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Items           []EstimateItem  `gorm:"foreignKey:JobEstimateID"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EstimateItem - Teklif satırı. SortOrder teklifteki sırayı korur;
// dönüşüm raporu da bu sırayla üretilir.
type EstimateItem struct {
	ID              uint            `gorm:"primaryKey"`
	JobEstimateID   uint            `gorm:"index;not null"`
	Description     string          `gorm:"size:255;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	InventoryItemID *uint           `gorm:"index"` // Doluysa dönüşümde stoktan düşülür
	SupplierID      *uint           `gorm:"index"`
	SupplierName    string          `gorm:"size:150"` // Denormalize (tedarikçi silinse de satır okunabilsin)
	SortOrder       int             `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
