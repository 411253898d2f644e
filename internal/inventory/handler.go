package inventory

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
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateInventoryItemRequest struct {
	ItemName          string  `json:"item_name" validate:"required,min=2,max=150"`
	Quantity          float64 `json:"quantity" validate:"gte=0"` // Açılış miktarı
	Unit              string  `json:"unit" validate:"required,max=20"`
	ReorderPoint      float64 `json:"reorder_point" validate:"gte=0"`
	SupplierID        *uint   `json:"supplier_id"`
	MaterialLibraryID *uint   `json:"material_library_id"`
}

type UpdateInventoryItemRequest struct {
	ItemName          *string  `json:"item_name"`
	Unit              *string  `json:"unit"`
	ReorderPoint      *float64 `json:"reorder_point"`
	SupplierID        *uint    `json:"supplier_id"`
	MaterialLibraryID *uint    `json:"material_library_id"`
	// Quantity burada YOK: miktar sadece adjust endpoint'inden, defter kaydıyla değişir
}

type InventoryItemResponse struct {
	ID                uint    `json:"id"`
	ItemName          string  `json:"item_name"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"unit"`
	ReorderPoint      float64 `json:"reorder_point"`
	IsLowStock        bool    `json:"is_low_stock"`
	SupplierID        *uint   `json:"supplier_id"`
	SupplierName      string  `json:"supplier_name"`
	MaterialLibraryID *uint   `json:"material_library_id"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func toItemResponse(item *models.InventoryItem) InventoryItemResponse {
	resp := InventoryItemResponse{
		ID:                item.ID,
		ItemName:          item.ItemName,
		Quantity:          item.Quantity.InexactFloat64(),
		Unit:              item.Unit,
		ReorderPoint:      item.ReorderPoint.InexactFloat64(),
		IsLowStock:        item.IsLowStock(),
		SupplierID:        item.SupplierID,
		MaterialLibraryID: item.MaterialLibraryID,
		CreatedAt:         item.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:         item.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	if item.Supplier != nil {
		resp.SupplierName = item.Supplier.Name
	}
	return resp
}

// Yardımcı: audit log yaz (yazılamazsa akışı bozma)
func writeInventoryAudit(c *fiber.Ctx, entityType string, entityID uint, action models.AuditAction, desc string, before, after any) {
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

// -------------------------
// Stok Kalemi CRUD
// -------------------------

// POST /api/inventory
func CreateInventoryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateInventoryItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		body.ItemName = strings.TrimSpace(body.ItemName)
		if err := validation.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok kalemi: "+err.Error())
		}

		if body.SupplierID != nil {
			var supplier models.Supplier
			if err := database.DB.First(&supplier, "id = ?", *body.SupplierID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
			}
		}

		item := models.InventoryItem{
			ItemName:          body.ItemName,
			Quantity:          decimal.NewFromFloat(body.Quantity),
			Unit:              body.Unit,
			ReorderPoint:      decimal.NewFromFloat(body.ReorderPoint),
			SupplierID:        body.SupplierID,
			MaterialLibraryID: body.MaterialLibraryID,
			Version:           1,
		}

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi kaydedilemedi")
		}

		writeInventoryAudit(c, "inventory_item", item.ID, models.AuditActionCreate,
			fmt.Sprintf("Stok kalemi eklendi: %s", item.ItemName), nil, &item)

		return c.Status(fiber.StatusCreated).JSON(toItemResponse(&item))
	}
}

// GET /api/inventory?q=alçı
func ListInventoryItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Supplier")

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("item_name ILIKE ?", "%"+q+"%")
		}

		var items []models.InventoryItem
		if err := dbq.Order("item_name asc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok listelenemedi")
		}

		resp := make([]InventoryItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toItemResponse(&items[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/inventory/low-stock
// Kritik stok: miktar <= yeniden sipariş noktası
func ListLowStockItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var items []models.InventoryItem
		err := database.DB.
			Preload("Supplier").
			Where("quantity <= reorder_point").
			Order("item_name asc").
			Find(&items).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kritik stok listesi alınamadı")
		}

		resp := make([]InventoryItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toItemResponse(&items[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/inventory/:id
func GetInventoryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok kalemi ID")
		}

		var item models.InventoryItem
		if err := database.DB.Preload("Supplier").First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
		}
		return c.JSON(toItemResponse(&item))
	}
}

// PUT /api/inventory/:id
func UpdateInventoryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok kalemi ID")
		}

		var item models.InventoryItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
		}

		var body UpdateInventoryItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		before := item
		updates := map[string]interface{}{}

		if body.ItemName != nil {
			name := strings.TrimSpace(*body.ItemName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Kalem adı boş olamaz")
			}
			updates["item_name"] = name
			item.ItemName = name
		}
		if body.Unit != nil {
			updates["unit"] = *body.Unit
			item.Unit = *body.Unit
		}
		if body.ReorderPoint != nil {
			if *body.ReorderPoint < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Yeniden sipariş noktası negatif olamaz")
			}
			rp := decimal.NewFromFloat(*body.ReorderPoint)
			updates["reorder_point"] = rp
			item.ReorderPoint = rp
		}
		if body.SupplierID != nil {
			var supplier models.Supplier
			if err := database.DB.First(&supplier, "id = ?", *body.SupplierID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
			}
			updates["supplier_id"] = *body.SupplierID
			item.SupplierID = body.SupplierID
		}
		if body.MaterialLibraryID != nil {
			updates["material_library_id"] = *body.MaterialLibraryID
			item.MaterialLibraryID = body.MaterialLibraryID
		}

		if len(updates) > 0 {
			if err := database.DB.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi güncellenemedi")
			}
		}

		writeInventoryAudit(c, "inventory_item", item.ID, models.AuditActionUpdate,
			fmt.Sprintf("Stok kalemi güncellendi: %s", item.ItemName), &before, &item)

		return c.JSON(toItemResponse(&item))
	}
}

// DELETE /api/inventory/:id (sadece admin)
// Hareket geçmişi silinmez: defter kayıtları denetim için kalır.
func DeleteInventoryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok kalemi ID")
		}

		var item models.InventoryItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
		}

		if err := database.DB.Delete(&models.InventoryItem{}, "id = ?", item.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi silinemedi")
		}

		writeInventoryAudit(c, "inventory_item", item.ID, models.AuditActionDelete,
			fmt.Sprintf("Stok kalemi silindi: %s", item.ItemName), &item, nil)

		return c.JSON(fiber.Map{"message": "Stok kalemi silindi"})
	}
}
