package estimate

import (
	"fmt"

	"ustapanel-backend/internal/audit"
	"ustapanel-backend/internal/auth"
	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"
	"ustapanel-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type EstimateItemRequest struct {
	Description     string  `json:"description" validate:"required,min=2,max=255"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
	UnitCost        float64 `json:"unit_cost" validate:"gte=0"`
	InventoryItemID *uint   `json:"inventory_item_id"` // Doluysa dönüşümde stoktan düşülür
	SupplierID      *uint   `json:"supplier_id"`
	SupplierName    string  `json:"supplier_name"`
}

type CreateEstimateRequest struct {
	Title           string                `json:"title" validate:"required,min=2,max=150"`
	ClientProfileID *uint                 `json:"client_profile_id"`
	Items           []EstimateItemRequest `json:"items" validate:"dive"`
}

type UpdateEstimateRequest struct {
	Title           *string               `json:"title"`
	ClientProfileID *uint                 `json:"client_profile_id"`
	Items           []EstimateItemRequest `json:"items" validate:"dive"` // Satırlar komple değiştirilir
}

type UpdateEstimateStatusRequest struct {
	Status models.EstimateStatus `json:"status"`
}

type EstimateItemResponse struct {
	ID              uint    `json:"id"`
	Description     string  `json:"description"`
	Quantity        float64 `json:"quantity"`
	UnitCost        float64 `json:"unit_cost"`
	Total           float64 `json:"total"`
	InventoryItemID *uint   `json:"inventory_item_id"`
	SupplierID      *uint   `json:"supplier_id"`
	SupplierName    string  `json:"supplier_name"`
}

type EstimateResponse struct {
	ID              uint                   `json:"id"`
	Title           string                 `json:"title"`
	ClientProfileID *uint                  `json:"client_profile_id"`
	ClientName      string                 `json:"client_name"`
	Status          models.EstimateStatus  `json:"status"`
	TotalAmount     float64                `json:"total_amount"`
	Items           []EstimateItemResponse `json:"items"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

func toEstimateResponse(est *models.JobEstimate) EstimateResponse {
	resp := EstimateResponse{
		ID:              est.ID,
		Title:           est.Title,
		ClientProfileID: est.ClientProfileID,
		Status:          est.Status,
		TotalAmount:     est.TotalAmount.InexactFloat64(),
		Items:           make([]EstimateItemResponse, 0, len(est.Items)),
		CreatedAt:       est.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:       est.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	if est.Client != nil {
		resp.ClientName = est.Client.Name
	}
	for _, item := range est.Items {
		resp.Items = append(resp.Items, EstimateItemResponse{
			ID:              item.ID,
			Description:     item.Description,
			Quantity:        item.Quantity.InexactFloat64(),
			UnitCost:        item.UnitCost.InexactFloat64(),
			Total:           item.Total.InexactFloat64(),
			InventoryItemID: item.InventoryItemID,
			SupplierID:      item.SupplierID,
			SupplierName:    item.SupplierName,
		})
	}
	return resp
}

// Satırları modele çevir, satır toplamlarını ve teklif toplamını hesapla
func buildItems(reqs []EstimateItemRequest) ([]models.EstimateItem, decimal.Decimal) {
	items := make([]models.EstimateItem, 0, len(reqs))
	total := decimal.Zero
	for i, r := range reqs {
		qty := decimal.NewFromFloat(r.Quantity)
		unitCost := decimal.NewFromFloat(r.UnitCost)
		lineTotal := qty.Mul(unitCost).Round(2)
		items = append(items, models.EstimateItem{
			Description:     r.Description,
			Quantity:        qty,
			UnitCost:        unitCost,
			Total:           lineTotal,
			InventoryItemID: r.InventoryItemID,
			SupplierID:      r.SupplierID,
			SupplierName:    r.SupplierName,
			SortOrder:       i,
		})
		total = total.Add(lineTotal)
	}
	return items, total
}

func loadEstimate(id uint) (*models.JobEstimate, error) {
	var est models.JobEstimate
	err := database.DB.
		Preload("Client").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc, id asc")
		}).
		First(&est, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// -------------------------
// Teklif CRUD
// -------------------------

// POST /api/estimates
func CreateEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEstimateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz teklif: "+err.Error())
		}

		if body.ClientProfileID != nil {
			var client models.ClientProfile
			if err := database.DB.First(&client, "id = ?", *body.ClientProfileID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Müşteri bulunamadı")
			}
		}

		items, total := buildItems(body.Items)
		est := models.JobEstimate{
			Title:           body.Title,
			ClientProfileID: body.ClientProfileID,
			Status:          models.EstimateStatusDraft,
			TotalAmount:     total,
			Items:           items,
		}

		if err := database.DB.Create(&est).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Teklif kaydedilemedi")
		}

		writeEstimateAudit(c, est.ID, models.AuditActionCreate,
			fmt.Sprintf("Teklif oluşturuldu: %s", est.Title), nil, &est)

		return c.Status(fiber.StatusCreated).JSON(toEstimateResponse(&est))
	}
}

// GET /api/estimates?status=approved
func ListEstimatesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.
			Preload("Client").
			Preload("Items", func(tx *gorm.DB) *gorm.DB {
				return tx.Order("sort_order asc, id asc")
			})

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var ests []models.JobEstimate
		if err := dbq.Order("created_at DESC").Find(&ests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Teklifler listelenemedi")
		}

		resp := make([]EstimateResponse, 0, len(ests))
		for i := range ests {
			resp = append(resp, toEstimateResponse(&ests[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/estimates/:id
func GetEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz teklif ID")
		}

		est, err := loadEstimate(uint(id))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Teklif bulunamadı")
		}
		return c.JSON(toEstimateResponse(est))
	}
}

// PUT /api/estimates/:id
func UpdateEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz teklif ID")
		}

		est, err := loadEstimate(uint(id))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Teklif bulunamadı")
		}

		// Dönüşmüş teklif donmuştur: iş zaten malzeme kopyasını aldı,
		// geriye dönük düzenleme kafa karıştırmaktan başka işe yaramaz
		if est.Status == models.EstimateStatusConverted {
			return fiber.NewError(fiber.StatusConflict, "Dönüştürülmüş teklif düzenlenemez")
		}

		var body UpdateEstimateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz teklif: "+err.Error())
		}

		before := *est

		if body.Title != nil {
			est.Title = *body.Title
		}
		if body.ClientProfileID != nil {
			var client models.ClientProfile
			if err := database.DB.First(&client, "id = ?", *body.ClientProfileID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Müşteri bulunamadı")
			}
			est.ClientProfileID = body.ClientProfileID
		}

		if body.Items != nil {
			// Satırlar komple değiştirilir
			if err := database.DB.Delete(&models.EstimateItem{}, "job_estimate_id = ?", est.ID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Teklif satırları güncellenemedi")
			}
			items, total := buildItems(body.Items)
			for i := range items {
				items[i].JobEstimateID = est.ID
			}
			if len(items) > 0 {
				if err := database.DB.Create(&items).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Teklif satırları kaydedilemedi")
				}
			}
			est.Items = items
			est.TotalAmount = total
		}

		if err := database.DB.Model(&models.JobEstimate{}).Where("id = ?", est.ID).Updates(map[string]interface{}{
			"title":             est.Title,
			"client_profile_id": est.ClientProfileID,
			"total_amount":      est.TotalAmount,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Teklif güncellenemedi")
		}

		writeEstimateAudit(c, est.ID, models.AuditActionUpdate,
			fmt.Sprintf("Teklif güncellendi: %s", est.Title), &before, est)

		return c.JSON(toEstimateResponse(est))
	}
}

// PUT /api/estimates/:id/status
// converted buradan verilemez; o geçişi yalnızca dönüşüm motoru yapar.
func UpdateEstimateStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz teklif ID")
		}

		var body UpdateEstimateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		switch body.Status {
		case models.EstimateStatusDraft, models.EstimateStatusSent,
			models.EstimateStatusApproved, models.EstimateStatusRejected:
			// geçerli
		case models.EstimateStatusConverted:
			return fiber.NewError(fiber.StatusBadRequest, "converted durumu elle verilemez, dönüşüm endpoint'ini kullan")
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz durum")
		}

		var est models.JobEstimate
		if err := database.DB.First(&est, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Teklif bulunamadı")
		}
		if est.Status == models.EstimateStatusConverted {
			return fiber.NewError(fiber.StatusConflict, "Dönüştürülmüş teklifin durumu değiştirilemez")
		}

		before := est
		if err := database.DB.Model(&est).Update("status", body.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Durum güncellenemedi")
		}
		est.Status = body.Status

		writeEstimateAudit(c, est.ID, models.AuditActionUpdate,
			fmt.Sprintf("Teklif durumu: %s -> %s", before.Status, est.Status), &before, &est)

		return c.JSON(fiber.Map{"id": est.ID, "status": est.Status})
	}
}

// DELETE /api/estimates/:id (sadece admin)
func DeleteEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz teklif ID")
		}

		est, err := loadEstimate(uint(id))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Teklif bulunamadı")
		}
		if est.Status == models.EstimateStatusConverted {
			return fiber.NewError(fiber.StatusConflict, "Dönüştürülmüş teklif silinemez (bağlı iş var)")
		}

		if err := database.DB.Delete(&models.EstimateItem{}, "job_estimate_id = ?", est.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Teklif satırları silinemedi")
		}
		if err := database.DB.Delete(&models.JobEstimate{}, "id = ?", est.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Teklif silinemedi")
		}

		writeEstimateAudit(c, est.ID, models.AuditActionDelete,
			fmt.Sprintf("Teklif silindi: %s", est.Title), est, nil)

		return c.JSON(fiber.Map{"message": "Teklif silindi"})
	}
}

// Yardımcı: audit log yaz (yazılamazsa akışı bozma, logla)
func writeEstimateAudit(c *fiber.Ctx, estimateID uint, action models.AuditAction, desc string, before, after any) {
	userID, _, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return
	}
	if logErr := audit.WriteLog(audit.LogOptions{
		UserID:      user.ID,
		UserName:    user.Name,
		EntityType:  "job_estimate",
		EntityID:    estimateID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}
}
