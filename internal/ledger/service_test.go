package ledger

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
		&models.Supplier{},
		&models.InventoryItem{},
		&models.StockTransaction{},
	); err != nil {
		t.Fatalf("AutoMigrate hatası: %v", err)
	}

	return db
}

func createItem(t *testing.T, db *gorm.DB, name string, qty, reorder int64) *models.InventoryItem {
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

func TestAdjust_DeductionWritesMatchingTransaction(t *testing.T) {
	db := newTestDB(t)
	item := createItem(t, db, "Alçı levha", 10, 5)

	res, err := Adjust(db, AdjustInput{
		ItemID:  item.ID,
		Delta:   decimal.NewFromInt(-8),
		Type:    models.StockTxManualAdjustment,
		Note:    "sayım düzeltmesi",
		BatchID: NewBatchID(),
	})
	if err != nil {
		t.Fatalf("Adjust hata döndü: %v", err)
	}

	if !res.NewQuantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("yeni miktar 2 olmalı, %s geldi", res.NewQuantity)
	}
	if !res.IsLowStock {
		t.Error("miktar 2 <= reorder 5 iken IsLowStock true olmalı")
	}
	if res.Clamped {
		t.Error("stok yeterliyken kırpma olmamalı")
	}

	var txns []models.StockTransaction
	if err := db.Where("inventory_item_id = ?", item.ID).Find(&txns).Error; err != nil {
		t.Fatalf("hareketler okunamadı: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("tam 1 hareket beklenirdi, %d bulundu", len(txns))
	}
	if !txns[0].QuantityChange.Equal(decimal.NewFromInt(-8)) {
		t.Errorf("hareket deltası -8 olmalı, %s geldi", txns[0].QuantityChange)
	}
	if txns[0].Type != models.StockTxManualAdjustment {
		t.Errorf("hareket tipi manual_adjustment olmalı, %s geldi", txns[0].Type)
	}
}

func TestAdjust_ClampsAtZeroAndRecordsEffectiveDelta(t *testing.T) {
	db := newTestDB(t)
	item := createItem(t, db, "Vida kutusu", 10, 3)

	res, err := Adjust(db, AdjustInput{
		ItemID: item.ID,
		Delta:  decimal.NewFromInt(-15),
		Type:   models.StockTxManualAdjustment,
		Note:   "fire",
	})
	if err != nil {
		t.Fatalf("Adjust hata döndü: %v", err)
	}

	if !res.NewQuantity.Equal(decimal.Zero) {
		t.Errorf("miktar asla negatif olmamalı, %s geldi", res.NewQuantity)
	}
	if !res.Clamped {
		t.Error("istenen -15 stok 10'u aşıyor, Clamped true olmalı")
	}
	if !res.Requested.Equal(decimal.NewFromInt(-15)) {
		t.Errorf("Requested -15 olmalı, %s geldi", res.Requested)
	}
	if !res.Effective.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("Effective -10 olmalı, %s geldi", res.Effective)
	}

	// Defter korunumu: deftere işlenen delta fiilen uygulanan deltadır
	var txn models.StockTransaction
	if err := db.First(&txn, "inventory_item_id = ?", item.ID).Error; err != nil {
		t.Fatalf("hareket okunamadı: %v", err)
	}
	if !txn.QuantityChange.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("kırpılmış hareket deltası -10 olmalı, %s geldi", txn.QuantityChange)
	}
}

func TestAdjust_ItemNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := Adjust(db, AdjustInput{
		ItemID: 9999,
		Delta:  decimal.NewFromInt(5),
		Type:   models.StockTxRestock,
	})
	if err != ErrItemNotFound {
		t.Fatalf("ErrItemNotFound beklenirdi, %v geldi", err)
	}

	// Hiçbir yazım yapılmamış olmalı
	var count int64
	db.Model(&models.StockTransaction{}).Count(&count)
	if count != 0 {
		t.Errorf("hareket yazılmamalıydı, %d kayıt var", count)
	}
}

func TestDeduct_SetsTypeAndJobReference(t *testing.T) {
	db := newTestDB(t)
	item := createItem(t, db, "Boya (beyaz)", 20, 5)

	batchID := NewBatchID()
	res, err := Deduct(db, item.ID, decimal.NewFromInt(4), 42, "İş #42 dönüşümü", batchID)
	if err != nil {
		t.Fatalf("Deduct hata döndü: %v", err)
	}
	if !res.NewQuantity.Equal(decimal.NewFromInt(16)) {
		t.Errorf("yeni miktar 16 olmalı, %s geldi", res.NewQuantity)
	}
	if res.IsLowStock {
		t.Error("16 > 5 iken IsLowStock false olmalı")
	}

	var txn models.StockTransaction
	if err := db.First(&txn, "inventory_item_id = ?", item.ID).Error; err != nil {
		t.Fatalf("hareket okunamadı: %v", err)
	}
	if txn.Type != models.StockTxJobDeduction {
		t.Errorf("hareket tipi job_deduction olmalı, %s geldi", txn.Type)
	}
	if txn.ReferenceID == nil || *txn.ReferenceID != 42 {
		t.Errorf("ReferenceID iş 42 olmalı, %v geldi", txn.ReferenceID)
	}
	if txn.BatchID != batchID {
		t.Errorf("BatchID %q olmalı, %q geldi", batchID, txn.BatchID)
	}
}

func TestAdjust_LowStockAtExactReorderPoint(t *testing.T) {
	db := newTestDB(t)
	item := createItem(t, db, "Silikon", 8, 5)

	res, err := Adjust(db, AdjustInput{
		ItemID: item.ID,
		Delta:  decimal.NewFromInt(-3),
		Type:   models.StockTxManualAdjustment,
	})
	if err != nil {
		t.Fatalf("Adjust hata döndü: %v", err)
	}
	// 5 <= 5: tam sınırda da kritik stok sayılır
	if !res.IsLowStock {
		t.Error("miktar tam reorder point'teyken IsLowStock true olmalı")
	}
}

func TestAdjust_LedgerReplayReproducesQuantity(t *testing.T) {
	db := newTestDB(t)
	item := createItem(t, db, "Kablo (3x2.5)", 50, 10)
	initial := decimal.NewFromInt(50)

	deltas := []int64{-12, 30, -7, -80, 15} // -80 kırpılacak
	for _, d := range deltas {
		if _, err := Adjust(db, AdjustInput{
			ItemID: item.ID,
			Delta:  decimal.NewFromInt(d),
			Type:   models.StockTxManualAdjustment,
		}); err != nil {
			t.Fatalf("Adjust(%d) hata döndü: %v", d, err)
		}
	}

	var current models.InventoryItem
	if err := db.First(&current, item.ID).Error; err != nil {
		t.Fatalf("kalem okunamadı: %v", err)
	}

	var txns []models.StockTransaction
	if err := db.Where("inventory_item_id = ?", item.ID).Order("id asc").Find(&txns).Error; err != nil {
		t.Fatalf("hareketler okunamadı: %v", err)
	}
	if len(txns) != len(deltas) {
		t.Fatalf("her Adjust tam 1 hareket yazmalı: %d beklenirdi, %d var", len(deltas), len(txns))
	}

	replayed := initial
	for _, txn := range txns {
		replayed = replayed.Add(txn.QuantityChange)
	}
	if !replayed.Equal(current.Quantity) {
		t.Errorf("defter oynatması %s verdi, güncel miktar %s", replayed, current.Quantity)
	}
}
