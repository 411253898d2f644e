package procurement

import (
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
		&models.JobEstimate{},
		&models.EstimateItem{},
	); err != nil {
		t.Fatalf("AutoMigrate hatası: %v", err)
	}

	return db
}

func createSupplier(t *testing.T, db *gorm.DB, name string) *models.Supplier {
	t.Helper()
	s := models.Supplier{Name: name}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("tedarikçi oluşturulamadı: %v", err)
	}
	return &s
}

func createEstimate(t *testing.T, db *gorm.DB, title string, status models.EstimateStatus, items []models.EstimateItem) *models.JobEstimate {
	t.Helper()
	total := decimal.Zero
	for i := range items {
		items[i].SortOrder = i
		total = total.Add(items[i].Total)
	}
	est := models.JobEstimate{Title: title, Status: status, TotalAmount: total, Items: items}
	if err := db.Create(&est).Error; err != nil {
		t.Fatalf("teklif oluşturulamadı: %v", err)
	}
	return &est
}

func item(desc string, total int64, supplierID *uint) models.EstimateItem {
	return models.EstimateItem{
		Description: desc,
		Quantity:    decimal.NewFromInt(1),
		UnitCost:    decimal.NewFromInt(total),
		Total:       decimal.NewFromInt(total),
		SupplierID:  supplierID,
	}
}

func TestBuildCallList_MergesSuppliersAcrossEstimates(t *testing.T) {
	db := newTestDB(t)
	yapiMarket := createSupplier(t, db, "Yapı Market A.Ş.")
	boyaci := createSupplier(t, db, "Boya Dünyası")

	createEstimate(t, db, "Banyo tadilatı", models.EstimateStatusApproved, []models.EstimateItem{
		item("Seramik", 1200, &yapiMarket.ID),
		item("Boya", 400, &boyaci.ID),
	})
	createEstimate(t, db, "Mutfak dolabı", models.EstimateStatusApproved, []models.EstimateItem{
		item("Sunta", 900, &yapiMarket.ID),
	})

	groups, err := BuildCallList(db)
	if err != nil {
		t.Fatalf("BuildCallList hata döndü: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("2 tedarikçi grubu beklenirdi, %d var", len(groups))
	}

	// Ada göre sıralı: "Boya Dünyası" önce gelir
	if groups[0].SupplierName != "Boya Dünyası" || groups[1].SupplierName != "Yapı Market A.Ş." {
		t.Fatalf("gruplar ada göre sıralı olmalı: %q, %q", groups[0].SupplierName, groups[1].SupplierName)
	}

	ym := groups[1]
	// Aynı tedarikçi iki teklifte de geçiyor: tek grup, toplamlar birleşir
	if !ym.TotalCost.Equal(decimal.NewFromInt(2100)) {
		t.Errorf("Yapı Market toplamı 1200+900=2100 olmalı, %s geldi", ym.TotalCost)
	}
	if ym.ItemCount != 2 {
		t.Errorf("Yapı Market 2 satır toplamalı, %d geldi", ym.ItemCount)
	}
	if len(ym.Estimates) != 2 {
		t.Fatalf("Yapı Market altında 2 teklif grubu beklenirdi, %d var", len(ym.Estimates))
	}
	if !ym.Estimates[0].Subtotal.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("ilk teklifin ara toplamı 1200 olmalı, %s geldi", ym.Estimates[0].Subtotal)
	}
}

func TestBuildCallList_UnassignedBucketAndStatusFilter(t *testing.T) {
	db := newTestDB(t)
	s := createSupplier(t, db, "Yapı Market A.Ş.")

	createEstimate(t, db, "Onaylı iş", models.EstimateStatusApproved, []models.EstimateItem{
		item("Seramik", 500, &s.ID),
		item("İşçilik", 3000, nil), // tedarikçisiz satır
	})
	// Taslak teklif listeye girmemeli
	createEstimate(t, db, "Taslak iş", models.EstimateStatusDraft, []models.EstimateItem{
		item("Kablo", 800, &s.ID),
	})

	groups, err := BuildCallList(db)
	if err != nil {
		t.Fatalf("BuildCallList hata döndü: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("2 grup beklenirdi (tedarikçi + atanmamış), %d var", len(groups))
	}

	// Atanmamış kova en sonda
	last := groups[len(groups)-1]
	if last.SupplierID != nil || last.SupplierName != "Atanmamış" {
		t.Errorf("son grup atanmamış kova olmalı, %+v geldi", last)
	}
	if !last.TotalCost.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("atanmamış kova toplamı 3000 olmalı, %s geldi", last.TotalCost)
	}

	// Taslak teklifin satırı hiçbir gruba girmemeli
	if !groups[0].TotalCost.Equal(decimal.NewFromInt(500)) {
		t.Errorf("tedarikçi toplamı sadece onaylı tekliften 500 olmalı, %s geldi", groups[0].TotalCost)
	}
}

func TestBuildCallList_EmptyWhenNoApprovedEstimates(t *testing.T) {
	db := newTestDB(t)

	groups, err := BuildCallList(db)
	if err != nil {
		t.Fatalf("BuildCallList hata döndü: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("onaylı teklif yokken liste boş olmalı, %d grup var", len(groups))
	}
}
