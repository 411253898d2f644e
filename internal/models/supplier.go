package models

import "time"

// Supplier - Tedarikçi (stok kalemleri ve teklif satırları buna bağlanabilir)
type Supplier struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:150;not null;unique"`
	ContactName string `gorm:"size:100"` // Sipariş için aranacak kişi
	Phone       string `gorm:"size:50"`
	Email       string `gorm:"size:100"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
