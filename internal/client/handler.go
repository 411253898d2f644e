package client

import (
	"fmt"
	"strings"

	"ustapanel-backend/internal/audit"
	"ustapanel-backend/internal/auth"
	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateClientRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"` // Opsiyonel
	Address string  `json:"address"`
	Note    string  `json:"note"`
}

type UpdateClientRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Note    *string `json:"note"`
}

type ClientResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}

func toClientResponse(c *models.ClientProfile) ClientResponse {
	return ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Note:      c.Note,
		CreatedAt: c.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func writeClientAudit(c *fiber.Ctx, clientID uint, action models.AuditAction, desc string, before, after any) {
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
		EntityType:  "client_profile",
		EntityID:    clientID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}
}

// ----------------------------------------
// MÜŞTERİ CRUD
// ----------------------------------------

// POST /api/clients
func CreateClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateClientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Müşteri adı boş olamaz")
		}

		clientProfile := models.ClientProfile{
			Name:    body.Name,
			Email:   strings.TrimSpace(body.Email),
			Address: body.Address,
			Note:    body.Note,
		}
		if body.Phone != nil {
			clientProfile.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&clientProfile).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
		}

		writeClientAudit(c, clientProfile.ID, models.AuditActionCreate,
			fmt.Sprintf("Müşteri eklendi: %s", clientProfile.Name), nil, &clientProfile)

		return c.Status(fiber.StatusCreated).JSON(toClientResponse(&clientProfile))
	}
}

// GET /api/clients?q=ahmet
func ListClientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.ClientProfile{})
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name ILIKE ?", "%"+q+"%")
		}

		var clients []models.ClientProfile
		if err := dbq.Order("name asc").Find(&clients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		resp := make([]ClientResponse, 0, len(clients))
		for i := range clients {
			resp = append(resp, toClientResponse(&clients[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/clients/:id
func GetClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}

		var clientProfile models.ClientProfile
		if err := database.DB.First(&clientProfile, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}
		return c.JSON(toClientResponse(&clientProfile))
	}
}

// PUT /api/clients/:id
func UpdateClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}

		var clientProfile models.ClientProfile
		if err := database.DB.First(&clientProfile, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var body UpdateClientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		before := clientProfile

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Müşteri adı boş olamaz")
			}
			clientProfile.Name = name
		}
		if body.Email != nil {
			clientProfile.Email = strings.TrimSpace(*body.Email)
		}
		if body.Phone != nil {
			clientProfile.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Address != nil {
			clientProfile.Address = *body.Address
		}
		if body.Note != nil {
			clientProfile.Note = *body.Note
		}

		if err := database.DB.Save(&clientProfile).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri güncellenemedi")
		}

		writeClientAudit(c, clientProfile.ID, models.AuditActionUpdate,
			fmt.Sprintf("Müşteri güncellendi: %s", clientProfile.Name), &before, &clientProfile)

		return c.JSON(toClientResponse(&clientProfile))
	}
}

// DELETE /api/clients/:id (sadece admin)
func DeleteClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}

		var clientProfile models.ClientProfile
		if err := database.DB.First(&clientProfile, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		// Açık teklifi/işi olan müşteri silinmesin
		var estCount int64
		database.DB.Model(&models.JobEstimate{}).Where("client_profile_id = ?", clientProfile.ID).Count(&estCount)
		if estCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Müşterinin teklifleri var, önce onları taşıyın veya silin")
		}

		if err := database.DB.Delete(&models.ClientProfile{}, "id = ?", clientProfile.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri silinemedi")
		}

		writeClientAudit(c, clientProfile.ID, models.AuditActionDelete,
			fmt.Sprintf("Müşteri silindi: %s", clientProfile.Name), &clientProfile, nil)

		return c.JSON(fiber.Map{"message": "Müşteri silindi"})
	}
}
