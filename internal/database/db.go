package database

import (
	"github.com/sirupsen/logrus"

	"ustapanel-backend/internal/config"
	"ustapanel-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	// InventoryItem.version migration: optimistic lock kolonu sonradan eklendi,
	// mevcut kayıtlarda NULL kalmasın (AutoMigrate'ten ÖNCE)
	if DB.Migrator().HasTable(&models.InventoryItem{}) {
		if DB.Migrator().HasColumn(&models.InventoryItem{}, "version") {
			var nullCount int64
			DB.Raw("SELECT COUNT(*) FROM inventory_items WHERE version IS NULL").Scan(&nullCount)
			if nullCount > 0 {
				logrus.Infof("inventory_items tablosunda %d adet NULL version kaydı bulundu, 1 ile güncelleniyor...", nullCount)
				DB.Exec("UPDATE inventory_items SET version = 1 WHERE version IS NULL")
			}
		}
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.Supplier{},
		&models.MaterialLibrary{},
		&models.MaterialPricing{},
		&models.MaterialKit{},
		&models.MaterialKitItem{},
		&models.InventoryItem{},
		&models.StockTransaction{},
		&models.JobEstimate{},
		&models.EstimateItem{},
		&models.Job{},
		&models.JobMaterial{},
		&models.AuditLog{},
	)
	if err != nil {
		logrus.Fatalf("AutoMigrate hatası: %v", err)
	}

	// Bir teklif en fazla bir işe dönüşebilir: linked_estimate_id doluysa tekil olmalı.
	// AutoMigrate partial index üretmediği için elle ekliyoruz.
	if err := DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_jobs_linked_estimate
		ON jobs(linked_estimate_id)
		WHERE linked_estimate_id IS NOT NULL
	`).Error; err != nil {
		logrus.Warnf("uniq_jobs_linked_estimate index'i eklenemedi: %v", err)
	}

	logrus.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
