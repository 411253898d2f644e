package job

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

type ChangeOrderItemRequest struct {
	Description string  `json:"description" validate:"required,min=2,max=255"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitCost    float64 `json:"unit_cost" validate:"gte=0"`
	SupplierID  *uint   `json:"supplier_id"`
}

type CreateChangeOrderRequest struct {
	Items []ChangeOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Note  string                   `json:"note"`
}

type UpdateJobStatusRequest struct {
	Status models.JobStatus `json:"status"`
}

type JobMaterialResponse struct {
	ID            uint    `json:"id"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	UnitCost      float64 `json:"unit_cost"`
	Total         float64 `json:"total"`
	SupplierName  string  `json:"supplier_name"`
	IsChangeOrder bool    `json:"is_change_order"`
}

type JobResponse struct {
	ID               uint                  `json:"id"`
	Title            string                `json:"title"`
	LinkedEstimateID *uint                 `json:"linked_estimate_id"`
	ClientProfileID  *uint                 `json:"client_profile_id"`
	ClientName       string                `json:"client_name"`
	Budget           float64               `json:"budget"`
	Status           models.JobStatus      `json:"status"`
	Materials        []JobMaterialResponse `json:"materials"`
	CreatedAt        string                `json:"created_at"`
}

func toJobResponse(j *models.Job) JobResponse {
	resp := JobResponse{
		ID:               j.ID,
		Title:            j.Title,
		LinkedEstimateID: j.LinkedEstimateID,
		ClientProfileID:  j.ClientProfileID,
		Budget:           j.Budget.InexactFloat64(),
		Status:           j.Status,
		Materials:        make([]JobMaterialResponse, 0, len(j.Materials)),
		CreatedAt:        j.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if j.Client != nil {
		resp.ClientName = j.Client.Name
	}
	for _, m := range j.Materials {
		resp.Materials = append(resp.Materials, JobMaterialResponse{
			ID:            m.ID,
			Description:   m.Description,
			Quantity:      m.Quantity.InexactFloat64(),
			UnitCost:      m.UnitCost.InexactFloat64(),
			Total:         m.Total.InexactFloat64(),
			SupplierName:  m.SupplierName,
			IsChangeOrder: m.IsChangeOrder,
		})
	}
	return resp
}

func loadJob(id uint) (*models.Job, error) {
	var j models.Job
	err := database.DB.
		Preload("Client").
		Preload("Materials", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc, id asc")
		}).
		First(&j, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// -------------------------
// İş endpoint'leri
// -------------------------

// GET /api/jobs?status=in_progress
func ListJobsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.
			Preload("Client").
			Preload("Materials", func(tx *gorm.DB) *gorm.DB {
				return tx.Order("sort_order asc, id asc")
			})

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var jobs []models.Job
		if err := dbq.Order("created_at DESC").Find(&jobs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşler listelenemedi")
		}

		resp := make([]JobResponse, 0, len(jobs))
		for i := range jobs {
			resp = append(resp, toJobResponse(&jobs[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/jobs/:id
func GetJobHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz iş ID")
		}

		j, err := loadJob(uint(id))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İş bulunamadı")
		}
		return c.JSON(toJobResponse(j))
	}
}

// PUT /api/jobs/:id/status
func UpdateJobStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz iş ID")
		}

		var body UpdateJobStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		switch body.Status {
		case models.JobStatusPending, models.JobStatusInProgress, models.JobStatusCompleted:
			// geçerli
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz durum")
		}

		var j models.Job
		if err := database.DB.First(&j, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İş bulunamadı")
		}

		if err := database.DB.Model(&j).Update("status", body.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Durum güncellenemedi")
		}

		return c.JSON(fiber.Map{"id": j.ID, "status": body.Status})
	}
}

// POST /api/jobs/:id/change-orders
// Ek iş: malzeme listesine satır ekler ve bütçeyi artırır.
// Stok defterine DOKUNMAZ; malzeme sahadan alınır, stok düşümü ayrı bir elle
// düzeltme konusudur.
func CreateChangeOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz iş ID")
		}

		var body CreateChangeOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ek iş: "+err.Error())
		}

		j, err := loadJob(uint(id))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İş bulunamadı")
		}
		if j.Status == models.JobStatusCompleted {
			return fiber.NewError(fiber.StatusConflict, "Tamamlanmış işe ek iş girilemez")
		}

		before := *j

		nextOrder := len(j.Materials)
		added := decimal.Zero
		materials := make([]models.JobMaterial, 0, len(body.Items))
		for i, item := range body.Items {
			qty := decimal.NewFromFloat(item.Quantity)
			unitCost := decimal.NewFromFloat(item.UnitCost)
			total := qty.Mul(unitCost).Round(2)

			supplierName := ""
			if item.SupplierID != nil {
				var supplier models.Supplier
				if err := database.DB.First(&supplier, "id = ?", *item.SupplierID).Error; err == nil {
					supplierName = supplier.Name
				}
			}

			materials = append(materials, models.JobMaterial{
				JobID:         j.ID,
				Description:   item.Description,
				Quantity:      qty,
				UnitCost:      unitCost,
				Total:         total,
				SupplierID:    item.SupplierID,
				SupplierName:  supplierName,
				SortOrder:     nextOrder + i,
				IsChangeOrder: true,
			})
			added = added.Add(total)
		}

		if err := database.DB.Create(&materials).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ek iş satırları kaydedilemedi")
		}

		newBudget := j.Budget.Add(added)
		if err := database.DB.Model(&models.Job{}).Where("id = ?", j.ID).Update("budget", newBudget).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bütçe güncellenemedi")
		}
		j.Budget = newBudget
		j.Materials = append(j.Materials, materials...)

		// Audit log
		if userID, _, err := auth.CurrentUser(c); err == nil {
			var user models.User
			if err := database.DB.First(&user, userID).Error; err == nil {
				desc := fmt.Sprintf("Ek iş: %d satır, bütçe +%s", len(materials), added.StringFixed(2))
				if body.Note != "" {
					desc = fmt.Sprintf("%s (%s)", desc, body.Note)
				}
				if logErr := audit.WriteLog(audit.LogOptions{
					UserID:      user.ID,
					UserName:    user.Name,
					EntityType:  "job",
					EntityID:    j.ID,
					Action:      models.AuditActionUpdate,
					Description: desc,
					Before:      &before,
					After:       j,
				}); logErr != nil {
					fmt.Printf("Audit log yazılamadı: %v\n", logErr)
				}
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toJobResponse(j))
	}
}
