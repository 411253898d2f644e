package estimate

import (
	"errors"
	"fmt"
	"testing"

	"ustapanel-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
		&models.InventoryItem{},
		&models.StockTransaction{},
		&models.JobEstimate{},
		&models.EstimateItem{},
		&models.Job{},
		&models.JobMaterial{},
	); err != nil {
		t.Fatalf("AutoMigrate hatası: %v", err)
	}

	return db
}

func createInventoryItem(t *testing.T, db *gorm.DB, name string, qty, reorder int64) *models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		ItemName:     name,
		Quantity:     decimal.NewFromInt(qty),
		Unit:         "adet",
		ReorderPoint: decimal.NewFromInt(reorder),
		Version:      1,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("stok kalemi oluşturulamadı: %v", err)
	}
	return &item
}

func createApprovedEstimate(t *testing.T, db *gorm.DB, title string, items []models.EstimateItem) *models.JobEstimate {
	t.Helper()
	total := decimal.Zero
	for i := range items {
		items[i].SortOrder = i
		total = total.Add(items[i].Total)
	}
	est := models.JobEstimate{
		Title:       title,
		Status:      models.EstimateStatusApproved,
		TotalAmount: total,
		Items:       items,
	}
	if err := db.Create(&est).Error; err != nil {
		t.Fatalf("teklif oluşturulamadı: %v", err)
	}
	return &est
}

func lineItem(desc string, qty, unitCost int64, invID *uint) models.EstimateItem {
	q := decimal.NewFromInt(qty)
	u := decimal.NewFromInt(unitCost)
	return models.EstimateItem{
		Description:     desc,
		Quantity:        q,
		UnitCost:        u,
		Total:           q.Mul(u),
		InventoryItemID: invID,
	}
}

func TestConvertToJob_CreatesJobAndDeductsStock(t *testing.T) {
	db := newTestDB(t)
	item := createInventoryItem(t, db, "Alçı levha", 10, 5)

	est := createApprovedEstimate(t, db, "Banyo tadilatı", []models.EstimateItem{
		lineItem("Alçı levha", 8, 120, &item.ID),
		lineItem("İşçilik", 1, 5000, nil), // stoğa bağlı değil, düşüm raporuna girmez
	})

	job, report, err := ConvertToJob(db, est.ID)
	if err != nil {
		t.Fatalf("ConvertToJob hata döndü: %v", err)
	}

	// İş teklifin kopyasını almış olmalı
	if job.LinkedEstimateID == nil || *job.LinkedEstimateID != est.ID {
		t.Errorf("LinkedEstimateID teklif %d olmalı, %v geldi", est.ID, job.LinkedEstimateID)
	}
	if !job.Budget.Equal(est.TotalAmount) {
		t.Errorf("bütçe teklif toplamı %s olmalı, %s geldi", est.TotalAmount, job.Budget)
	}
	var materials []models.JobMaterial
	if err := db.Where("job_id = ?", job.ID).Order("sort_order asc").Find(&materials).Error; err != nil {
		t.Fatalf("malzeme listesi okunamadı: %v", err)
	}
	if len(materials) != 2 {
		t.Fatalf("malzeme listesi 2 satır olmalı, %d var", len(materials))
	}

	// Teklif durumu terminal hale gelmiş olmalı
	var fresh models.JobEstimate
	if err := db.First(&fresh, est.ID).Error; err != nil {
		t.Fatalf("teklif okunamadı: %v", err)
	}
	if fresh.Status != models.EstimateStatusConverted {
		t.Errorf("teklif durumu converted olmalı, %s geldi", fresh.Status)
	}

	// Düşüm raporu: sadece stoğa bağlı satır
	if len(report) != 1 {
		t.Fatalf("raporda 1 satır beklenirdi, %d var", len(report))
	}
	entry := report[0]
	if entry.Error != "" {
		t.Fatalf("başarılı düşüm beklenirdi, hata geldi: %s", entry.Error)
	}
	if entry.Item != "Alçı levha" {
		t.Errorf("rapor satırı kalem adını taşımalı, %q geldi", entry.Item)
	}
	if entry.Deducted == nil || !entry.Deducted.Equal(decimal.NewFromInt(8)) {
		t.Errorf("düşülen 8 olmalı, %v geldi", entry.Deducted)
	}
	if entry.Remaining == nil || !entry.Remaining.Equal(decimal.NewFromInt(2)) {
		t.Errorf("kalan 2 olmalı, %v geldi", entry.Remaining)
	}
	if entry.IsLowStock == nil || !*entry.IsLowStock {
		t.Error("2 <= 5 iken is_low_stock true olmalı")
	}

	// Hareket kaydı: job_deduction tipinde, işe referanslı
	var txns []models.StockTransaction
	if err := db.Where("inventory_item_id = ?", item.ID).Find(&txns).Error; err != nil {
		t.Fatalf("hareketler okunamadı: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("tam 1 hareket beklenirdi, %d var", len(txns))
	}
	if txns[0].Type != models.StockTxJobDeduction {
		t.Errorf("hareket tipi job_deduction olmalı, %s geldi", txns[0].Type)
	}
	if txns[0].ReferenceID == nil || *txns[0].ReferenceID != job.ID {
		t.Errorf("hareket referansı iş %d olmalı, %v geldi", job.ID, txns[0].ReferenceID)
	}
	if txns[0].BatchID == "" {
		t.Error("hareket bir batch'e bağlı olmalı")
	}
}

func TestConvertToJob_SecondCallFailsWithoutSideEffects(t *testing.T) {
	db := newTestDB(t)
	item := createInventoryItem(t, db, "Boya (beyaz)", 20, 5)

	est := createApprovedEstimate(t, db, "Salon boyası", []models.EstimateItem{
		lineItem("Boya (beyaz)", 4, 350, &item.ID),
	})

	if _, _, err := ConvertToJob(db, est.ID); err != nil {
		t.Fatalf("ilk dönüşüm hata döndü: %v", err)
	}

	_, _, err := ConvertToJob(db, est.ID)
	if !errors.Is(err, ErrAlreadyConverted) {
		t.Fatalf("ikinci dönüşüm ErrAlreadyConverted döndürmeli, %v geldi", err)
	}

	// Tek iş, tek hareket: çift düşüm yok
	var jobCount, txnCount int64
	db.Model(&models.Job{}).Count(&jobCount)
	db.Model(&models.StockTransaction{}).Count(&txnCount)
	if jobCount != 1 {
		t.Errorf("tam 1 iş beklenirdi, %d var", jobCount)
	}
	if txnCount != 1 {
		t.Errorf("tam 1 hareket beklenirdi, %d var", txnCount)
	}

	var current models.InventoryItem
	db.First(&current, item.ID)
	if !current.Quantity.Equal(decimal.NewFromInt(16)) {
		t.Errorf("miktar 16 kalmalı (tek düşüm), %s geldi", current.Quantity)
	}
}

func TestConvertToJob_EstimateNotFound(t *testing.T) {
	db := newTestDB(t)

	_, _, err := ConvertToJob(db, 9999)
	if !errors.Is(err, ErrEstimateNotFound) {
		t.Fatalf("ErrEstimateNotFound beklenirdi, %v geldi", err)
	}

	var jobCount int64
	db.Model(&models.Job{}).Count(&jobCount)
	if jobCount != 0 {
		t.Errorf("iş oluşturulmamalıydı, %d var", jobCount)
	}
}

func TestConvertToJob_PartialDeductionFailureStillCreatesJob(t *testing.T) {
	db := newTestDB(t)
	item := createInventoryItem(t, db, "Seramik 60x60", 30, 10)
	missingID := uint(9999) // Silinmiş stok kalemi

	est := createApprovedEstimate(t, db, "Mutfak zemini", []models.EstimateItem{
		lineItem("Seramik 60x60", 12, 95, &item.ID),
		lineItem("Derz dolgusu", 3, 80, &missingID),
	})

	job, report, err := ConvertToJob(db, est.ID)
	if err != nil {
		t.Fatalf("tek satırın hatası dönüşümü iptal etmemeli: %v", err)
	}
	if job == nil || job.ID == 0 {
		t.Fatal("iş yine de oluşmalıydı")
	}

	if len(report) != 2 {
		t.Fatalf("raporda 2 satır beklenirdi, %d var", len(report))
	}

	// Rapor sırası teklif satır sırasını izler
	if report[0].Error != "" {
		t.Errorf("ilk satır başarılı olmalı, hata geldi: %s", report[0].Error)
	}
	if report[0].Remaining == nil || !report[0].Remaining.Equal(decimal.NewFromInt(18)) {
		t.Errorf("kalan 18 olmalı, %v geldi", report[0].Remaining)
	}
	if report[1].Error != "Stok güncellenemedi" {
		t.Errorf("ikinci satır hata kaydı olmalı, %+v geldi", report[1])
	}
	if report[1].Item != "Derz dolgusu" {
		t.Errorf("hata satırı teklif açıklamasını taşımalı, %q geldi", report[1].Item)
	}

	// Başarısız satır için hareket yazılmamış olmalı
	var txnCount int64
	db.Model(&models.StockTransaction{}).Count(&txnCount)
	if txnCount != 1 {
		t.Errorf("sadece başarılı düşüm hareket yazmalı, %d kayıt var", txnCount)
	}
}

func TestConvertToJob_OneBatchPerConversion(t *testing.T) {
	db := newTestDB(t)
	itemA := createInventoryItem(t, db, "Kablo (3x2.5)", 100, 20)
	itemB := createInventoryItem(t, db, "Priz kasası", 50, 10)

	est := createApprovedEstimate(t, db, "Elektrik tesisatı", []models.EstimateItem{
		lineItem("Kablo (3x2.5)", 40, 18, &itemA.ID),
		lineItem("Priz kasası", 12, 9, &itemB.ID),
	})

	if _, _, err := ConvertToJob(db, est.ID); err != nil {
		t.Fatalf("ConvertToJob hata döndü: %v", err)
	}

	var txns []models.StockTransaction
	if err := db.Order("id asc").Find(&txns).Error; err != nil {
		t.Fatalf("hareketler okunamadı: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("2 hareket beklenirdi, %d var", len(txns))
	}
	if txns[0].BatchID == "" || txns[0].BatchID != txns[1].BatchID {
		t.Errorf("tek dönüşümün hareketleri aynı batch'i taşımalı: %q / %q", txns[0].BatchID, txns[1].BatchID)
	}
}

func TestConvertToJob_MaterialSnapshotDecoupledFromEstimate(t *testing.T) {
	db := newTestDB(t)
	item := createInventoryItem(t, db, "Laminat parke", 80, 15)

	est := createApprovedEstimate(t, db, "Yatak odası zemini", []models.EstimateItem{
		lineItem("Laminat parke", 25, 210, &item.ID),
	})

	job, _, err := ConvertToJob(db, est.ID)
	if err != nil {
		t.Fatalf("ConvertToJob hata döndü: %v", err)
	}

	// Teklif satırı sonradan (başka bir yoldan) değişse bile işin kopyası sabit kalır
	db.Model(&models.EstimateItem{}).
		Where("job_estimate_id = ?", est.ID).
		Updates(map[string]interface{}{"quantity": decimal.NewFromInt(99), "unit_cost": decimal.NewFromInt(1)})

	var materials []models.JobMaterial
	if err := db.Where("job_id = ?", job.ID).Find(&materials).Error; err != nil {
		t.Fatalf("malzeme listesi okunamadı: %v", err)
	}
	if len(materials) != 1 {
		t.Fatalf("1 malzeme satırı beklenirdi, %d var", len(materials))
	}
	if !materials[0].Quantity.Equal(decimal.NewFromInt(25)) {
		t.Errorf("kopya miktarı 25 kalmalı, %s geldi", materials[0].Quantity)
	}
	if !materials[0].UnitCost.Equal(decimal.NewFromInt(210)) {
		t.Errorf("kopya birim fiyatı 210 kalmalı, %s geldi", materials[0].UnitCost)
	}
}
