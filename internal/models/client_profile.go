package models

import "time"

// ClientProfile - Müşteri kartı (teklif ve işler buna bağlanır)
type ClientProfile struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null;index"`
	Email     string `gorm:"size:100"`
	Phone     string `gorm:"size:50"` // Opsiyonel telefon
	Address   string `gorm:"size:255"`
	Note      string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
