package estimate

import (
	"errors"
	"fmt"

	"ustapanel-backend/internal/audit"
	"ustapanel-backend/internal/auth"
	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ConvertResponse struct {
	JobID      uint             `json:"job_id"`
	JobTitle   string           `json:"job_title"`
	Budget     float64          `json:"budget"`
	Deductions []DeductionEntry `json:"deductions"`
}

// POST /api/estimates/:id/convert
func ConvertEstimateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz teklif ID")
		}

		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		job, report, err := ConvertToJob(database.DB, uint(id))
		if err != nil {
			switch {
			case errors.Is(err, ErrEstimateNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Teklif bulunamadı")
			case errors.Is(err, ErrAlreadyConverted):
				return fiber.NewError(fiber.StatusConflict, "Teklif zaten işe dönüştürülmüş")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Dönüşüm başarısız: "+err.Error())
			}
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "job",
			EntityID:    job.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Teklif #%d işe dönüştürüldü: %s", id, job.Title),
			Before:      nil,
			After:       job,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(ConvertResponse{
			JobID:      job.ID,
			JobTitle:   job.Title,
			Budget:     job.Budget.InexactFloat64(),
			Deductions: report,
		})
	}
}
