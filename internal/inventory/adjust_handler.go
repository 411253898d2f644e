package inventory

import (
	"errors"
	"fmt"

	"ustapanel-backend/internal/auth"
	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/ledger"
	"ustapanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AdjustStockRequest struct {
	QuantityChange  float64                     `json:"quantity_change"`  // pozitif = giriş, negatif = çıkış
	TransactionType models.StockTransactionType `json:"transaction_type"` // restock, manual_adjustment, return
	ReferenceNote   string                      `json:"reference_note"`
}

type AdjustStockResponse struct {
	ItemID      uint    `json:"item_id"`
	ItemName    string  `json:"item_name"`
	NewQuantity float64 `json:"new_quantity"`
	Requested   float64 `json:"requested"`
	Effective   float64 `json:"effective"`
	Clamped     bool    `json:"clamped"`
	IsLowStock  bool    `json:"is_low_stock"`
}

type StockTransactionResponse struct {
	ID             uint    `json:"id"`
	QuantityChange float64 `json:"quantity_change"`
	Type           string  `json:"type"`
	ReferenceID    *uint   `json:"reference_id"`
	ReferenceNote  string  `json:"reference_note"`
	BatchID        string  `json:"batch_id"`
	Date           string  `json:"date"`
}

// POST /api/inventory/:id/adjust
// Stok miktarını elle düzeltmenin TEK yolu. Her çağrı deftere bir hareket yazar.
func AdjustStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok kalemi ID")
		}

		var body AdjustStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.QuantityChange == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity_change sıfır olamaz")
		}

		switch body.TransactionType {
		case models.StockTxRestock, models.StockTxManualAdjustment, models.StockTxReturn:
			// geçerli
		case models.StockTxJobDeduction:
			return fiber.NewError(fiber.StatusBadRequest, "job_deduction hareketleri sadece teklif dönüşümünden yazılır")
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz hareket tipi")
		}

		// Kimlik açık parametre olarak nota taşınır (ambient state yok)
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		note := body.ReferenceNote
		if note == "" {
			note = fmt.Sprintf("Elle düzeltme (%s)", user.Name)
		}

		res, err := ledger.Adjust(database.DB, ledger.AdjustInput{
			ItemID: uint(id),
			Delta:  decimal.NewFromFloat(body.QuantityChange),
			Type:   body.TransactionType,
			Note:   note,
		})
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrItemNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
			case errors.Is(err, ledger.ErrConflict):
				return fiber.NewError(fiber.StatusConflict, "Stok aynı anda başka bir işlemle güncellendi, tekrar deneyin")
			case errors.Is(err, ledger.ErrInconsistent):
				// Miktar yazıldı ama defter kaydı yok: operatör elle düzeltmeli
				return fiber.NewError(fiber.StatusInternalServerError,
					"Miktar güncellendi ama hareket kaydı yazılamadı, denetim kaydını elle kontrol edin")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Stok düzeltilemedi")
			}
		}

		return c.JSON(AdjustStockResponse{
			ItemID:      res.Item.ID,
			ItemName:    res.Item.ItemName,
			NewQuantity: res.NewQuantity.InexactFloat64(),
			Requested:   res.Requested.InexactFloat64(),
			Effective:   res.Effective.InexactFloat64(),
			Clamped:     res.Clamped,
			IsLowStock:  res.IsLowStock,
		})
	}
}

// GET /api/inventory/:id/transactions?batch_id=...
// Kalemin hareket geçmişi, en yeniden eskiye.
func ListStockTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok kalemi ID")
		}

		var item models.InventoryItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
		}

		dbq := database.DB.Where("inventory_item_id = ?", item.ID)
		if batchID := c.Query("batch_id"); batchID != "" {
			dbq = dbq.Where("batch_id = ?", batchID)
		}

		var txns []models.StockTransaction
		if err := dbq.Order("date DESC, id DESC").Find(&txns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		resp := make([]StockTransactionResponse, 0, len(txns))
		for _, txn := range txns {
			resp = append(resp, StockTransactionResponse{
				ID:             txn.ID,
				QuantityChange: txn.QuantityChange.InexactFloat64(),
				Type:           string(txn.Type),
				ReferenceID:    txn.ReferenceID,
				ReferenceNote:  txn.ReferenceNote,
				BatchID:        txn.BatchID,
				Date:           txn.Date.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}
