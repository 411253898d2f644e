package material

import (
	"fmt"
	"strings"

	"ustapanel-backend/internal/audit"
	"ustapanel-backend/internal/auth"
	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"
	"ustapanel-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateMaterialRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Category string `json:"category" validate:"max=50"`
	Unit     string `json:"unit" validate:"max=20"`
}

type UpdateMaterialRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Unit     *string `json:"unit"`
}

type MaterialResponse struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Unit     string   `json:"unit"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

func toMaterialResponse(m *models.MaterialLibrary, pricing *models.MaterialPricing) MaterialResponse {
	resp := MaterialResponse{
		ID:       m.ID,
		Name:     m.Name,
		Category: m.Category,
		Unit:     m.Unit,
	}
	if pricing != nil {
		minP := pricing.MinPrice.InexactFloat64()
		maxP := pricing.MaxPrice.InexactFloat64()
		resp.MinPrice = &minP
		resp.MaxPrice = &maxP
	}
	return resp
}

func writeMaterialAudit(c *fiber.Ctx, entityType string, entityID uint, action models.AuditAction, desc string, before, after any) {
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
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}
}

// ----------------------------------------
// MALZEME KÜTÜPHANESİ
// ----------------------------------------

// POST /api/materials
func CreateMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		body.Name = strings.TrimSpace(body.Name)
		if err := validation.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Malzeme adı 2-150 karakter olmalı")
		}

		var exists int64
		database.DB.Model(&models.MaterialLibrary{}).Where("name = ?", body.Name).Count(&exists)
		if exists > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bir malzeme zaten var")
		}

		material := models.MaterialLibrary{
			Name:     body.Name,
			Category: strings.TrimSpace(body.Category),
			Unit:     strings.TrimSpace(body.Unit),
		}
		if err := database.DB.Create(&material).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme oluşturulamadı")
		}

		writeMaterialAudit(c, "material_library", material.ID, models.AuditActionCreate,
			fmt.Sprintf("Malzeme eklendi: %s", material.Name), nil, &material)

		return c.Status(fiber.StatusCreated).JSON(toMaterialResponse(&material, nil))
	}
}

// GET /api/materials?q=boya&category=elektrik
func ListMaterialsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.MaterialLibrary{})
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name ILIKE ?", "%"+q+"%")
		}
		if cat := strings.TrimSpace(c.Query("category")); cat != "" {
			dbq = dbq.Where("category = ?", cat)
		}

		var materials []models.MaterialLibrary
		if err := dbq.Order("name asc").Find(&materials).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}

		// Fiyatları tek sorguda çek
		ids := make([]uint, 0, len(materials))
		for i := range materials {
			ids = append(ids, materials[i].ID)
		}
		priceByMaterial := map[uint]*models.MaterialPricing{}
		if len(ids) > 0 {
			var pricings []models.MaterialPricing
			database.DB.Where("material_library_id IN ?", ids).Find(&pricings)
			for i := range pricings {
				priceByMaterial[pricings[i].MaterialLibraryID] = &pricings[i]
			}
		}

		resp := make([]MaterialResponse, 0, len(materials))
		for i := range materials {
			resp = append(resp, toMaterialResponse(&materials[i], priceByMaterial[materials[i].ID]))
		}
		return c.JSON(resp)
	}
}

// GET /api/materials/:id
func GetMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz malzeme ID")
		}

		var material models.MaterialLibrary
		if err := database.DB.First(&material, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var pricing models.MaterialPricing
		var pricingPtr *models.MaterialPricing
		if err := database.DB.First(&pricing, "material_library_id = ?", material.ID).Error; err == nil {
			pricingPtr = &pricing
		}
		return c.JSON(toMaterialResponse(&material, pricingPtr))
	}
}

// PUT /api/materials/:id
func UpdateMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz malzeme ID")
		}

		var material models.MaterialLibrary
		if err := database.DB.First(&material, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body UpdateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		before := material

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Malzeme adı boş olamaz")
			}
			material.Name = name
		}
		if body.Category != nil {
			material.Category = strings.TrimSpace(*body.Category)
		}
		if body.Unit != nil {
			material.Unit = strings.TrimSpace(*body.Unit)
		}

		if err := database.DB.Save(&material).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme güncellenemedi")
		}

		writeMaterialAudit(c, "material_library", material.ID, models.AuditActionUpdate,
			fmt.Sprintf("Malzeme güncellendi: %s", material.Name), &before, &material)

		return c.JSON(toMaterialResponse(&material, nil))
	}
}

// DELETE /api/materials/:id (sadece admin)
func DeleteMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz malzeme ID")
		}

		var material models.MaterialLibrary
		if err := database.DB.First(&material, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		// Fiyat kaydı da gitsin; kit satırları zayıf referans, kalır
		database.DB.Delete(&models.MaterialPricing{}, "material_library_id = ?", material.ID)
		if err := database.DB.Delete(&models.MaterialLibrary{}, "id = ?", material.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme silinemedi")
		}

		writeMaterialAudit(c, "material_library", material.ID, models.AuditActionDelete,
			fmt.Sprintf("Malzeme silindi: %s", material.Name), &material, nil)

		return c.JSON(fiber.Map{"message": "Malzeme silindi"})
	}
}

// ----------------------------------------
// FİYAT ARALIĞI (upsert)
// ----------------------------------------

type UpsertPricingRequest struct {
	MinPrice float64 `json:"min_price" validate:"gte=0"`
	MaxPrice float64 `json:"max_price" validate:"gte=0"`
}

// PUT /api/materials/:id/pricing
func UpsertPricingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz malzeme ID")
		}

		var material models.MaterialLibrary
		if err := database.DB.First(&material, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body UpsertPricingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if err := validation.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyatlar negatif olamaz")
		}
		if body.MaxPrice < body.MinPrice {
			return fiber.NewError(fiber.StatusBadRequest, "Maksimum fiyat minimumdan küçük olamaz")
		}

		minPrice := decimal.NewFromFloat(body.MinPrice)
		maxPrice := decimal.NewFromFloat(body.MaxPrice)

		var pricing models.MaterialPricing
		err = database.DB.First(&pricing, "material_library_id = ?", material.ID).Error
		switch {
		case err == nil:
			before := pricing
			pricing.MinPrice = minPrice
			pricing.MaxPrice = maxPrice
			if err := database.DB.Save(&pricing).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Fiyat güncellenemedi")
			}
			writeMaterialAudit(c, "material_pricing", pricing.ID, models.AuditActionUpdate,
				fmt.Sprintf("Fiyat aralığı güncellendi: %s", material.Name), &before, &pricing)

		case err == gorm.ErrRecordNotFound:
			pricing = models.MaterialPricing{
				MaterialLibraryID: material.ID,
				MinPrice:          minPrice,
				MaxPrice:          maxPrice,
			}
			if err := database.DB.Create(&pricing).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Fiyat kaydedilemedi")
			}
			writeMaterialAudit(c, "material_pricing", pricing.ID, models.AuditActionCreate,
				fmt.Sprintf("Fiyat aralığı girildi: %s", material.Name), nil, &pricing)

		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat sorgulanamadı")
		}

		return c.JSON(fiber.Map{
			"material_id": material.ID,
			"min_price":   pricing.MinPrice.InexactFloat64(),
			"max_price":   pricing.MaxPrice.InexactFloat64(),
		})
	}
}
