package supplier

import (
	"fmt"
	"strings"

	"ustapanel-backend/internal/audit"
	"ustapanel-backend/internal/auth"
	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateSupplierRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
}

type SupplierResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func toSupplierResponse(s *models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Phone:       s.Phone,
		Email:       s.Email,
	}
}

func writeSupplierAudit(c *fiber.Ctx, supplierID uint, action models.AuditAction, desc string, before, after any) {
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
		EntityType:  "supplier",
		EntityID:    supplierID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi adı boş olamaz")
		}

		// İsim unique: önceden var mı bak, daha anlaşılır hata dönelim
		var exists int64
		database.DB.Model(&models.Supplier{}).Where("name = ?", body.Name).Count(&exists)
		if exists > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bir tedarikçi zaten var")
		}

		supplier := models.Supplier{
			Name:        body.Name,
			ContactName: strings.TrimSpace(body.ContactName),
			Phone:       strings.TrimSpace(body.Phone),
			Email:       strings.TrimSpace(body.Email),
		}

		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi oluşturulamadı")
		}

		writeSupplierAudit(c, supplier.ID, models.AuditActionCreate,
			fmt.Sprintf("Tedarikçi eklendi: %s", supplier.Name), nil, &supplier)

		return c.Status(fiber.StatusCreated).JSON(toSupplierResponse(&supplier))
	}
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var suppliers []models.Supplier
		if err := database.DB.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for i := range suppliers {
			resp = append(resp, toSupplierResponse(&suppliers[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tedarikçi ID")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}
		return c.JSON(toSupplierResponse(&supplier))
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tedarikçi ID")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		var body UpdateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		before := supplier

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi adı boş olamaz")
			}
			supplier.Name = name
		}
		if body.ContactName != nil {
			supplier.ContactName = strings.TrimSpace(*body.ContactName)
		}
		if body.Phone != nil {
			supplier.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			supplier.Email = strings.TrimSpace(*body.Email)
		}

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi güncellenemedi")
		}

		// Denormalize isimler güncel kalsın (teklif satırları ve çağrı listesi bunu gösteriyor)
		if before.Name != supplier.Name {
			database.DB.Model(&models.EstimateItem{}).
				Where("supplier_id = ?", supplier.ID).
				Update("supplier_name", supplier.Name)
		}

		writeSupplierAudit(c, supplier.ID, models.AuditActionUpdate,
			fmt.Sprintf("Tedarikçi güncellendi: %s", supplier.Name), &before, &supplier)

		return c.JSON(toSupplierResponse(&supplier))
	}
}

// DELETE /api/suppliers/:id (sadece admin)
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tedarikçi ID")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		// Stok kalemlerindeki referansı koparma, sadece boşalt
		database.DB.Model(&models.InventoryItem{}).
			Where("supplier_id = ?", supplier.ID).
			Update("supplier_id", nil)
		database.DB.Model(&models.EstimateItem{}).
			Where("supplier_id = ?", supplier.ID).
			Update("supplier_id", nil)

		if err := database.DB.Delete(&models.Supplier{}, "id = ?", supplier.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi silinemedi")
		}

		writeSupplierAudit(c, supplier.ID, models.AuditActionDelete,
			fmt.Sprintf("Tedarikçi silindi: %s", supplier.Name), &supplier, nil)

		return c.JSON(fiber.Map{"message": "Tedarikçi silindi"})
	}
}
