package pricing

import (
	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ExpandedLineItemResponse struct {
	Description       string  `json:"description"`
	Quantity          float64 `json:"quantity"`
	UnitCost          float64 `json:"unit_cost"`
	Total             float64 `json:"total"`
	MaterialLibraryID uint    `json:"material_library_id"`
}

type ExpandKitResponse struct {
	KitID   uint                       `json:"kit_id"`
	KitName string                     `json:"kit_name"`
	Items   []ExpandedLineItemResponse `json:"items"`
}

// GET /api/material-kits/:id/expand
// Kiti teklife yapıştırılmaya hazır satırlara açar. Malzemesi silinmiş ya da
// fiyatı girilmemiş satırlar hata üretmez: 0 maliyetle döner, kullanıcı düzeltir.
func ExpandKitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kit ID")
		}

		var kit models.MaterialKit
		err = database.DB.
			Preload("Items", func(tx *gorm.DB) *gorm.DB {
				return tx.Order("sort_order asc, id asc")
			}).
			First(&kit, "id = ?", id).Error
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kit bulunamadı")
		}

		resp := ExpandKitResponse{
			KitID:   kit.ID,
			KitName: kit.Name,
			Items:   make([]ExpandedLineItemResponse, 0, len(kit.Items)),
		}

		for _, kitItem := range kit.Items {
			in := KitItemInput{
				Quantity:       kitItem.Quantity,
				WasteFactorPct: kitItem.WasteFactorPct,
				MarkupPct:      kitItem.DefaultMarkupPct,
			}

			// Malzeme adı çözümle (silinmiş olabilir, zayıf referans)
			var material models.MaterialLibrary
			if err := database.DB.First(&material, "id = ?", kitItem.MaterialLibraryID).Error; err == nil {
				in.MaterialName = material.Name
			}

			// Fiyat aralığı çözümle (hiç girilmemiş olabilir)
			var mp models.MaterialPricing
			if err := database.DB.First(&mp, "material_library_id = ?", kitItem.MaterialLibraryID).Error; err == nil {
				in.Pricing = &PriceRange{MinPrice: mp.MinPrice, MaxPrice: mp.MaxPrice}
			}

			line := CalculateKitItemCost(in)
			resp.Items = append(resp.Items, ExpandedLineItemResponse{
				Description:       line.Description,
				Quantity:          line.Quantity.InexactFloat64(),
				UnitCost:          line.UnitCost.InexactFloat64(),
				Total:             line.Total.InexactFloat64(),
				MaterialLibraryID: kitItem.MaterialLibraryID,
			})
		}

		return c.JSON(resp)
	}
}
