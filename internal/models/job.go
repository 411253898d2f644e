package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
)

// Job - Faturalanabilir iş. Dönüşümle ya da elle açılır.
// Materials listesi teklif satırlarının dönüşüm anındaki KOPYASIDIR:
// teklif sonradan düzenlense bile devam eden işin malzeme listesi değişmez.
// LinkedEstimateID doluysa tekildir (bir teklif en fazla bir işe dönüşür).
type Job struct {
	ID               uint            `gorm:"primaryKey"`
	Title            string          `gorm:"size:150;not null"`
	LinkedEstimateID *uint           `gorm:"index"`
	ClientProfileID  *uint           `gorm:"index"`
	Client           *ClientProfile  `gorm:"foreignKey:ClientProfileID"`
	Budget           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Status           JobStatus       `gorm:"size:20;not null;default:pending;index"`
	Materials        []JobMaterial   `gorm:"foreignKey:JobID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// JobMaterial - İşin malzeme listesi satırı (teklif satırının anlık kopyası
// ya da sonradan eklenen ek iş kalemi).
type JobMaterial struct {
	ID              uint            `gorm:"primaryKey"`
	JobID           uint            `gorm:"index;not null"`
	Description     string          `gorm:"size:255;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	InventoryItemID *uint           `gorm:"index"`
	SupplierID      *uint           `gorm:"index"`
	SupplierName    string          `gorm:"size:150"`
	SortOrder       int             `gorm:"not null;default:0"`
	IsChangeOrder   bool            `gorm:"not null;default:false"` // Ek iş (change order) ile mi eklendi
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
