package ledger

import (
	"errors"
	"fmt"
	"time"

	"ustapanel-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Stok defteri: eldeki miktara dokunan TEK yer burasıdır.
// Her miktar yazımı aynı mantıksal işlem içinde bir StockTransaction ile
// eşleşir; miktar asla negatife düşmez (sıfırda kırpılır).

type AdjustInput struct {
	ItemID      uint
	Delta       decimal.Decimal // pozitif = giriş, negatif = çıkış
	Type        models.StockTransactionType
	ReferenceID *uint  // Sebep olan kayıt (ör. iş ID'si), opsiyonel
	Note        string // Serbest açıklama
	BatchID     string // Aynı işlemin hareketlerini gruplar, boş olabilir
}

type AdjustResult struct {
	Item        models.InventoryItem
	NewQuantity decimal.Decimal
	Requested   decimal.Decimal // İstenen delta
	Effective   decimal.Decimal // Fiilen işlenen delta (kırpma sonrası)
	Clamped     bool            // Delta sıfır tabanında kırpıldı mı
	IsLowStock  bool            // newQuantity <= reorder_point
}

// Eşzamanlı güncellemede version eşleşmezse bu kadar kez yeniden okuyup denenir
const maxCASAttempts = 3

// NewBatchID - Tek bir mantıksal işlemin ürettiği hareketleri gruplayacak kimlik
func NewBatchID() string {
	return uuid.NewString()
}

// Adjust - Stok miktarını günceller ve eşleşen hareket kaydını yazar.
//
// Okuma-hesapla-yazma akışı version kolonu üzerinden compare-and-swap ile
// korunur: araya başka bir güncelleme girdiyse yeniden okunur, denemeler
// tükenirse ErrConflict döner. Deftere işlenen delta, kırpma sonrası FİİLEN
// uygulanan deltadır; böylece bir kalemin hareketleri baştan oynatıldığında
// güncel miktara her zaman ulaşılır. Kırpma olduysa istenen miktar nota düşülür.
func Adjust(db *gorm.DB, in AdjustInput) (*AdjustResult, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var item models.InventoryItem
		if err := db.First(&item, "id = ?", in.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}

		newQty := item.Quantity.Add(in.Delta)
		clamped := false
		if newQty.IsNegative() {
			// Negatif stok yok: sıfırda kırp
			newQty = decimal.Zero
			clamped = true
		}
		effective := newQty.Sub(item.Quantity)

		res := db.Model(&models.InventoryItem{}).
			Where("id = ? AND version = ?", item.ID, item.Version).
			Updates(map[string]interface{}{
				"quantity": newQty,
				"version":  item.Version + 1,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// Araya başka bir güncelleme girdi, güncel halini okuyup tekrar dene
			continue
		}

		note := in.Note
		if clamped {
			note = fmt.Sprintf("%s (istenen delta %s, stok sıfırda kırpıldı)", in.Note, in.Delta.String())
		}

		txn := models.StockTransaction{
			InventoryItemID: item.ID,
			QuantityChange:  effective,
			Type:            in.Type,
			ReferenceID:     in.ReferenceID,
			ReferenceNote:   note,
			BatchID:         in.BatchID,
			Date:            time.Now(),
		}
		if err := db.Create(&txn).Error; err != nil {
			// Miktar yazıldı ama defter kaydı yazılamadı: bu tutarsızlığı
			// asla sessizce geçme, logla ve çağırana bildir
			logrus.Errorf("Stok hareketi yazılamadı (kalem %d, batch %q): %v", item.ID, in.BatchID, err)
			return nil, fmt.Errorf("%w: %v", ErrInconsistent, err)
		}

		item.Quantity = newQty
		item.Version++

		return &AdjustResult{
			Item:        item,
			NewQuantity: newQty,
			Requested:   in.Delta,
			Effective:   effective,
			Clamped:     clamped,
			IsLowStock:  newQty.LessThanOrEqual(item.ReorderPoint),
		}, nil
	}

	return nil, ErrConflict
}

// Deduct - İş dönüşümünde tüketilen malzemeyi stoktan düşer.
// Adjust'ın job_deduction tipine ve negatif deltaya sabitlenmiş halidir.
func Deduct(db *gorm.DB, itemID uint, quantity decimal.Decimal, jobID uint, note, batchID string) (*AdjustResult, error) {
	refID := jobID
	return Adjust(db, AdjustInput{
		ItemID:      itemID,
		Delta:       quantity.Neg(),
		Type:        models.StockTxJobDeduction,
		ReferenceID: &refID,
		Note:        note,
		BatchID:     batchID,
	})
}
