package material

import (
	"fmt"
	"strings"

	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"
	"ustapanel-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type KitItemRequest struct {
	MaterialLibraryID uint    `json:"material_library_id" validate:"required"`
	Quantity          float64 `json:"quantity" validate:"gt=0"`
	WasteFactorPct    float64 `json:"waste_factor_pct" validate:"gte=0"`
	DefaultMarkupPct  float64 `json:"default_markup_pct" validate:"gte=0"`
}

type CreateKitRequest struct {
	Name        string           `json:"name" validate:"required,min=2,max=150"`
	Description string           `json:"description" validate:"max=255"`
	Items       []KitItemRequest `json:"items" validate:"required,min=1,dive"`
}

type KitItemResponse struct {
	ID                uint    `json:"id"`
	MaterialLibraryID uint    `json:"material_library_id"`
	MaterialName      string  `json:"material_name"`
	Quantity          float64 `json:"quantity"`
	WasteFactorPct    float64 `json:"waste_factor_pct"`
	DefaultMarkupPct  float64 `json:"default_markup_pct"`
}

type KitResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Items       []KitItemResponse `json:"items"`
}

func toKitResponse(kit *models.MaterialKit) KitResponse {
	// Malzeme adlarını tek sorguda çöz (silinmiş olabilirler)
	ids := make([]uint, 0, len(kit.Items))
	for i := range kit.Items {
		ids = append(ids, kit.Items[i].MaterialLibraryID)
	}
	nameByID := map[uint]string{}
	if len(ids) > 0 {
		var materials []models.MaterialLibrary
		database.DB.Where("id IN ?", ids).Find(&materials)
		for i := range materials {
			nameByID[materials[i].ID] = materials[i].Name
		}
	}

	resp := KitResponse{
		ID:          kit.ID,
		Name:        kit.Name,
		Description: kit.Description,
		Items:       make([]KitItemResponse, 0, len(kit.Items)),
	}
	for i := range kit.Items {
		item := &kit.Items[i]
		resp.Items = append(resp.Items, KitItemResponse{
			ID:                item.ID,
			MaterialLibraryID: item.MaterialLibraryID,
			MaterialName:      nameByID[item.MaterialLibraryID],
			Quantity:          item.Quantity.InexactFloat64(),
			WasteFactorPct:    item.WasteFactorPct.InexactFloat64(),
			DefaultMarkupPct:  item.DefaultMarkupPct.InexactFloat64(),
		})
	}
	return resp
}

func buildKitItems(items []KitItemRequest) []models.MaterialKitItem {
	rows := make([]models.MaterialKitItem, 0, len(items))
	for i, item := range items {
		rows = append(rows, models.MaterialKitItem{
			MaterialLibraryID: item.MaterialLibraryID,
			Quantity:          decimal.NewFromFloat(item.Quantity),
			WasteFactorPct:    decimal.NewFromFloat(item.WasteFactorPct),
			DefaultMarkupPct:  decimal.NewFromFloat(item.DefaultMarkupPct),
			SortOrder:         i,
		})
	}
	return rows
}

// POST /api/material-kits
func CreateKitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateKitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		body.Name = strings.TrimSpace(body.Name)
		if err := validation.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kit adı ve en az bir satır gerekli, miktarlar pozitif olmalı")
		}

		var exists int64
		database.DB.Model(&models.MaterialKit{}).Where("name = ?", body.Name).Count(&exists)
		if exists > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bir kit zaten var")
		}

		kit := models.MaterialKit{
			Name:        body.Name,
			Description: body.Description,
			Items:       buildKitItems(body.Items),
		}
		if err := database.DB.Create(&kit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kit oluşturulamadı")
		}

		writeMaterialAudit(c, "material_kit", kit.ID, models.AuditActionCreate,
			fmt.Sprintf("Malzeme kiti eklendi: %s", kit.Name), nil, &kit)

		return c.Status(fiber.StatusCreated).JSON(toKitResponse(&kit))
	}
}

// GET /api/material-kits
func ListKitsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var kits []models.MaterialKit
		if err := database.DB.
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
			Order("name asc").
			Find(&kits).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kitler listelenemedi")
		}

		resp := make([]KitResponse, 0, len(kits))
		for i := range kits {
			resp = append(resp, toKitResponse(&kits[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/material-kits/:id
func GetKitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kit ID")
		}

		var kit models.MaterialKit
		if err := database.DB.
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
			First(&kit, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kit bulunamadı")
		}
		return c.JSON(toKitResponse(&kit))
	}
}

// PUT /api/material-kits/:id - Başlık ve satırlar topluca değiştirilir
func UpdateKitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kit ID")
		}

		var kit models.MaterialKit
		if err := database.DB.
			Preload("Items").
			First(&kit, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kit bulunamadı")
		}

		var body CreateKitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		body.Name = strings.TrimSpace(body.Name)
		if err := validation.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kit adı ve en az bir satır gerekli, miktarlar pozitif olmalı")
		}

		before := kit

		if err := database.DB.Delete(&models.MaterialKitItem{}, "material_kit_id = ?", kit.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kit satırları güncellenemedi")
		}

		kit.Name = body.Name
		kit.Description = body.Description
		kit.Items = buildKitItems(body.Items)
		for i := range kit.Items {
			kit.Items[i].MaterialKitID = kit.ID
		}

		if err := database.DB.Save(&kit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kit güncellenemedi")
		}

		writeMaterialAudit(c, "material_kit", kit.ID, models.AuditActionUpdate,
			fmt.Sprintf("Malzeme kiti güncellendi: %s", kit.Name), &before, &kit)

		return c.JSON(toKitResponse(&kit))
	}
}

// DELETE /api/material-kits/:id (sadece admin)
func DeleteKitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kit ID")
		}

		var kit models.MaterialKit
		if err := database.DB.
			Preload("Items").
			First(&kit, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kit bulunamadı")
		}

		if err := database.DB.Delete(&models.MaterialKitItem{}, "material_kit_id = ?", kit.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kit satırları silinemedi")
		}
		if err := database.DB.Delete(&models.MaterialKit{}, "id = ?", kit.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kit silinemedi")
		}

		writeMaterialAudit(c, "material_kit", kit.ID, models.AuditActionDelete,
			fmt.Sprintf("Malzeme kiti silindi: %s", kit.Name), &kit, nil)

		return c.JSON(fiber.Map{"message": "Kit silindi"})
	}
}
