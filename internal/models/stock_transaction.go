package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockTransactionType string

const (
	StockTxRestock          StockTransactionType = "restock"
	StockTxManualAdjustment StockTransactionType = "manual_adjustment"
	StockTxJobDeduction     StockTransactionType = "job_deduction"
	StockTxReturn           StockTransactionType = "return"
)

// StockTransaction - Stok hareket defteri kaydı (append-only).
// Normal akışta asla güncellenmez ve silinmez. QuantityChange, stoğa fiilen
// işlenen imzalı deltadır; bir kalemin tüm hareketleri baştan oynatıldığında
// güncel Quantity değerine ulaşılır.
type StockTransaction struct {
	ID              uint                 `gorm:"primaryKey"`
	InventoryItemID uint                 `gorm:"index;not null"`
	Item            InventoryItem        `gorm:"foreignKey:InventoryItemID"`
	QuantityChange  decimal.Decimal      `gorm:"type:decimal(20,4);not null"` // pozitif = giriş, negatif = çıkış
	Type            StockTransactionType `gorm:"size:30;not null;index"`
	ReferenceID     *uint                `gorm:"index"`     // Sebep olan kayıt (ör. iş ID'si)
	ReferenceNote   string               `gorm:"size:255"`  // Serbest açıklama
	BatchID         string               `gorm:"size:36;index"` // Aynı işlemin ürettiği hareketleri gruplar (uuid)
	Date            time.Time            `gorm:"index;not null"`
	CreatedAt       time.Time
}
