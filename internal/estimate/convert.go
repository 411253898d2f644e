package estimate

import (
	"errors"
	"fmt"

	"ustapanel-backend/internal/ledger"
	"ustapanel-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrEstimateNotFound = errors.New("teklif bulunamadı")
	ErrAlreadyConverted = errors.New("teklif zaten işe dönüştürülmüş")
)

// DeductionEntry - Dönüşüm raporunun satırı. Başarılıysa miktar alanları dolu,
// başarısızsa sadece Item ve Error dolu gelir. Rapor teklif satır sırasını izler.
type DeductionEntry struct {
	Item       string           `json:"item"`
	Requested  *decimal.Decimal `json:"requested,omitempty"`
	Deducted   *decimal.Decimal `json:"deducted,omitempty"`
	Remaining  *decimal.Decimal `json:"remaining,omitempty"`
	IsLowStock *bool            `json:"is_low_stock,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ConvertToJob - Onaylanmış bir teklifi faturalanabilir işe dönüştürür.
//
// Akış: teklifi yükle → durumu koşullu UPDATE ile 'converted'a çek (iki
// eşzamanlı çağrıdan yalnızca biri bu claim'i kazanabilir) → işi ve malzeme
// listesi kopyasını oluştur → stoğa bağlı her satır için sırayla düşüm yap.
//
// İş oluştuktan sonra tek tek düşüm hataları dönüşümü İPTAL ETMEZ: veritabanı
// çapraz-doküman garantisi vermediği için tasarım "iş kesin oluşur, düşümler
// best-effort ve raporlanır" tarafını seçer. Her satırın sonucu raporda döner,
// hiçbir hata sessizce yutulmaz.
func ConvertToJob(db *gorm.DB, estimateID uint) (*models.Job, []DeductionEntry, error) {
	var est models.JobEstimate
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc, id asc")
		}).
		First(&est, "id = ?", estimateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEstimateNotFound
		}
		return nil, nil, err
	}

	if est.Status == models.EstimateStatusConverted {
		return nil, nil, ErrAlreadyConverted
	}

	// Atomik claim: iki eşzamanlı dönüşüm de yukarıdaki kontrolü geçebilir,
	// ama bu koşullu UPDATE'i yalnızca biri kazanır (RowsAffected == 0 = kaybeden)
	claim := db.Model(&models.JobEstimate{}).
		Where("id = ? AND status <> ?", est.ID, models.EstimateStatusConverted).
		Update("status", models.EstimateStatusConverted)
	if claim.Error != nil {
		return nil, nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, nil, ErrAlreadyConverted
	}

	// Malzeme listesi teklif satırlarının ANLIK KOPYASIDIR: teklif sonradan
	// düzenlense bile devam eden iş etkilenmez
	job := models.Job{
		Title:            est.Title,
		LinkedEstimateID: &est.ID,
		ClientProfileID:  est.ClientProfileID,
		Budget:           est.TotalAmount,
		Status:           models.JobStatusPending,
	}
	for _, item := range est.Items {
		job.Materials = append(job.Materials, models.JobMaterial{
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitCost:        item.UnitCost,
			Total:           item.Total,
			InventoryItemID: item.InventoryItemID,
			SupplierID:      item.SupplierID,
			SupplierName:    item.SupplierName,
			SortOrder:       item.SortOrder,
		})
	}

	if err := db.Create(&job).Error; err != nil {
		// İş oluşmadıysa claim'i geri bırak, teklif tekrar dönüştürülebilsin
		if relErr := db.Model(&models.JobEstimate{}).
			Where("id = ?", est.ID).
			Update("status", est.Status).Error; relErr != nil {
			logrus.Errorf("Teklif %d için dönüşüm claim'i geri bırakılamadı: %v", est.ID, relErr)
		}
		return nil, nil, fmt.Errorf("iş oluşturulamadı: %w", err)
	}

	// Bu dönüşümün ürettiği tüm stok hareketleri tek batch altında toplanır;
	// otomatik rollback yok, batch sonradan denetim/elle düzeltme içindir
	batchID := ledger.NewBatchID()

	// Düşümler teklif satır sırasıyla ve TEK TEK yapılır: rapor sırası teklif
	// sırasına eşit kalır ve aynı kaleme giden iki satır birbiriyle yarışmaz
	report := make([]DeductionEntry, 0, len(est.Items))
	for _, item := range est.Items {
		if item.InventoryItemID == nil || !item.Quantity.IsPositive() {
			continue
		}

		note := fmt.Sprintf("İş #%d dönüşümü: %s", job.ID, item.Description)
		res, err := ledger.Deduct(db, *item.InventoryItemID, item.Quantity, job.ID, note, batchID)
		if err != nil {
			logrus.Warnf("Teklif %d dönüşümünde satır düşümü başarısız (kalem %d): %v",
				est.ID, *item.InventoryItemID, err)
			report = append(report, DeductionEntry{
				Item:  item.Description,
				Error: "Stok güncellenemedi",
			})
			continue
		}

		deducted := res.Effective.Neg()
		remaining := res.NewQuantity
		low := res.IsLowStock
		requested := item.Quantity
		report = append(report, DeductionEntry{
			Item:       res.Item.ItemName,
			Requested:  &requested,
			Deducted:   &deducted,
			Remaining:  &remaining,
			IsLowStock: &low,
		})
	}

	return &job, report, nil
}
