package audit

import (
	"fmt"
	"testing"

	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Her test kendi isimli in-memory veritabanını kullanır; cache=shared
	// olmadan gorm'un havuzundaki her bağlantı ayrı bir boş DB görür.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	if err := db.AutoMigrate(
		&models.ClientProfile{},
		&models.Supplier{},
		&models.MaterialLibrary{},
		&models.InventoryItem{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("AutoMigrate hatası: %v", err)
	}

	// Servis global DB üzerinden çalışır
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return db
}

func TestUndoLog_DeleteRestoresOriginalEntity(t *testing.T) {
	db := newTestDB(t)

	clientProfile := models.ClientProfile{
		Name:    "Ahmet Usta",
		Phone:   "0555 123 45 67",
		Address: "Karşıyaka",
	}
	if err := db.Create(&clientProfile).Error; err != nil {
		t.Fatalf("müşteri oluşturulamadı: %v", err)
	}

	// Delete handler'larının yazdığı şekilde: silinen hal Before'da, After boş
	if err := WriteLog(LogOptions{
		UserID:      1,
		UserName:    "Admin",
		EntityType:  "client_profile",
		EntityID:    clientProfile.ID,
		Action:      models.AuditActionDelete,
		Description: "Müşteri silindi: Ahmet Usta",
		Before:      &clientProfile,
		After:       nil,
	}); err != nil {
		t.Fatalf("audit log yazılamadı: %v", err)
	}
	if err := db.Delete(&models.ClientProfile{}, "id = ?", clientProfile.ID).Error; err != nil {
		t.Fatalf("müşteri silinemedi: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log, "entity_type = ?", "client_profile").Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}

	if err := UndoLog(log.ID, 1, "Admin"); err != nil {
		t.Fatalf("UndoLog hata döndü: %v", err)
	}

	var restored models.ClientProfile
	if err := db.First(&restored).Error; err != nil {
		t.Fatalf("geri yüklenen müşteri okunamadı: %v", err)
	}
	if restored.Name != "Ahmet Usta" {
		t.Errorf("geri yüklenen müşteri adı %q, %q olmalıydı", restored.Name, "Ahmet Usta")
	}
	if restored.Phone != "0555 123 45 67" {
		t.Errorf("telefon %q, %q olmalıydı", restored.Phone, "0555 123 45 67")
	}
}

func TestUndoLog_UpdateRestoresPreviousState(t *testing.T) {
	db := newTestDB(t)

	supplier := models.Supplier{Name: "Yapı Market A", ContactName: "Veli"}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("tedarikçi oluşturulamadı: %v", err)
	}

	before := supplier
	supplier.Name = "Yapı Market B"
	supplier.ContactName = "Ali"
	if err := db.Save(&supplier).Error; err != nil {
		t.Fatalf("tedarikçi güncellenemedi: %v", err)
	}
	if err := WriteLog(LogOptions{
		UserID:     1,
		UserName:   "Admin",
		EntityType: "supplier",
		EntityID:   supplier.ID,
		Action:     models.AuditActionUpdate,
		Before:     &before,
		After:      &supplier,
	}); err != nil {
		t.Fatalf("audit log yazılamadı: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log, "entity_type = ?", "supplier").Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}
	if err := UndoLog(log.ID, 1, "Admin"); err != nil {
		t.Fatalf("UndoLog hata döndü: %v", err)
	}

	var restored models.Supplier
	if err := db.First(&restored, supplier.ID).Error; err != nil {
		t.Fatalf("tedarikçi okunamadı: %v", err)
	}
	if restored.Name != "Yapı Market A" || restored.ContactName != "Veli" {
		t.Errorf("önceki hal geri gelmeliydi, %q/%q geldi", restored.Name, restored.ContactName)
	}
}

func TestUndoLog_RefusesLedgerEntities(t *testing.T) {
	db := newTestDB(t)

	if err := WriteLog(LogOptions{
		UserID:     1,
		UserName:   "Admin",
		EntityType: "inventory_item",
		EntityID:   7,
		Action:     models.AuditActionUpdate,
	}); err != nil {
		t.Fatalf("audit log yazılamadı: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}
	if err := UndoLog(log.ID, 1, "Admin"); err == nil {
		t.Fatal("stok kalemine dokunan bir log undo edilememeli")
	}
}

func TestUndoLog_RefusesDoubleUndo(t *testing.T) {
	db := newTestDB(t)

	clientProfile := models.ClientProfile{Name: "Tek Seferlik"}
	if err := db.Create(&clientProfile).Error; err != nil {
		t.Fatalf("müşteri oluşturulamadı: %v", err)
	}
	if err := WriteLog(LogOptions{
		UserID:     1,
		UserName:   "Admin",
		EntityType: "client_profile",
		EntityID:   clientProfile.ID,
		Action:     models.AuditActionCreate,
		After:      &clientProfile,
	}); err != nil {
		t.Fatalf("audit log yazılamadı: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}

	if err := UndoLog(log.ID, 1, "Admin"); err != nil {
		t.Fatalf("ilk undo başarılı olmalıydı: %v", err)
	}
	if err := UndoLog(log.ID, 1, "Admin"); err == nil {
		t.Fatal("aynı log ikinci kez undo edilememeli")
	}
}
