package main

import (
	"strings"

	"ustapanel-backend/internal/audit"
	"ustapanel-backend/internal/auth"
	"ustapanel-backend/internal/client"
	"ustapanel-backend/internal/config"
	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/estimate"
	"ustapanel-backend/internal/inventory"
	"ustapanel-backend/internal/job"
	"ustapanel-backend/internal/material"
	"ustapanel-backend/internal/models"
	"ustapanel-backend/internal/pricing"
	"ustapanel-backend/internal/procurement"
	"ustapanel-backend/internal/supplier"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logrus.Errorf("Beklenmeyen hata: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den temizleyerek geçir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin-only yönetim
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/auth/staff", auth.CreateStaffHandler())
	adminRoutes.Delete("/clients/:id", client.DeleteClientHandler())
	adminRoutes.Delete("/suppliers/:id", supplier.DeleteSupplierHandler())
	adminRoutes.Delete("/materials/:id", material.DeleteMaterialHandler())
	adminRoutes.Delete("/material-kits/:id", material.DeleteKitHandler())
	adminRoutes.Delete("/inventory/:id", inventory.DeleteInventoryItemHandler())
	adminRoutes.Delete("/estimates/:id", estimate.DeleteEstimateHandler())
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	// Müşteriler
	protected.Post("/clients", client.CreateClientHandler())
	protected.Get("/clients", client.ListClientsHandler())
	protected.Get("/clients/:id", client.GetClientHandler())
	protected.Put("/clients/:id", client.UpdateClientHandler())

	// Tedarikçiler
	protected.Post("/suppliers", supplier.CreateSupplierHandler())
	protected.Get("/suppliers", supplier.ListSuppliersHandler())
	protected.Get("/suppliers/:id", supplier.GetSupplierHandler())
	protected.Put("/suppliers/:id", supplier.UpdateSupplierHandler())

	// Malzeme kütüphanesi ve fiyat aralıkları
	protected.Post("/materials", material.CreateMaterialHandler())
	protected.Get("/materials", material.ListMaterialsHandler())
	protected.Get("/materials/:id", material.GetMaterialHandler())
	protected.Put("/materials/:id", material.UpdateMaterialHandler())
	protected.Put("/materials/:id/pricing", material.UpsertPricingHandler())

	// Malzeme kitleri ve fiyat hesaplayıcı
	protected.Post("/material-kits", material.CreateKitHandler())
	protected.Get("/material-kits", material.ListKitsHandler())
	protected.Get("/material-kits/:id", material.GetKitHandler())
	protected.Put("/material-kits/:id", material.UpdateKitHandler())
	protected.Get("/material-kits/:id/expand", pricing.ExpandKitHandler())

	// Stok kalemleri ve hareket defteri
	protected.Post("/inventory", inventory.CreateInventoryItemHandler())
	protected.Get("/inventory", inventory.ListInventoryItemsHandler())
	protected.Get("/inventory/low-stock", inventory.ListLowStockItemsHandler())
	protected.Get("/inventory/:id", inventory.GetInventoryItemHandler())
	protected.Put("/inventory/:id", inventory.UpdateInventoryItemHandler())
	protected.Post("/inventory/:id/adjust", inventory.AdjustStockHandler())
	protected.Get("/inventory/:id/transactions", inventory.ListStockTransactionsHandler())

	// Teklifler ve dönüşüm
	protected.Post("/estimates", estimate.CreateEstimateHandler())
	protected.Get("/estimates", estimate.ListEstimatesHandler())
	protected.Get("/estimates/:id", estimate.GetEstimateHandler())
	protected.Put("/estimates/:id", estimate.UpdateEstimateHandler())
	protected.Put("/estimates/:id/status", estimate.UpdateEstimateStatusHandler())
	protected.Post("/estimates/:id/convert", estimate.ConvertEstimateHandler())

	// İşler ve ek iş emirleri
	protected.Get("/jobs", job.ListJobsHandler())
	protected.Get("/jobs/:id", job.GetJobHandler())
	protected.Put("/jobs/:id/status", job.UpdateJobStatusHandler())
	protected.Post("/jobs/:id/change-orders", job.CreateChangeOrderHandler())

	// Sipariş çağrı listesi
	protected.Get("/procurement/call-list", procurement.CallListHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	logrus.Infof("Server çalışıyor port: %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logrus.Fatal(err)
	}
}
