package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem - Depodaki stok kalemi.
// Quantity alanı tek yetkili bakiyedir ve SADECE ledger üzerinden değişir:
// her yazım bir StockTransaction ile eşleşmek zorundadır.
// Version alanı eşzamanlı güncellemelere karşı optimistic lock için kullanılır.
type InventoryItem struct {
	ID                uint            `gorm:"primaryKey"`
	ItemName          string          `gorm:"size:150;not null;index"`
	Quantity          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"` // Eldeki miktar, asla negatif olmaz
	Unit              string          `gorm:"size:20;not null"`                      // adet, m2, kg, kutu vs.
	ReorderPoint      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"` // Bu seviyenin altı/eşiti = kritik stok
	SupplierID        *uint           `gorm:"index"`
	Supplier          *Supplier
	MaterialLibraryID *uint `gorm:"index"` // Malzeme kütüphanesine zayıf referans
	Version           uint  `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsLowStock - Yeniden sipariş noktası kontrolü
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity.LessThanOrEqual(i.ReorderPoint)
}
