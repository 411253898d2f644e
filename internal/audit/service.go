package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"ustapanel-backend/internal/database"
	"ustapanel-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null" // Default: null JSON
	afterStr := "null"  // Default: null JSON

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:       opts.UserID,
		UserName:     opts.UserName,
		EntityType:   opts.EntityType,
		EntityID:     opts.EntityID,
		Action:       opts.Action,
		Description:  opts.Description,
		BeforeData:   beforeStr,
		AfterData:    afterStr,
		IsUndoAction: false,
		IsUndone:     false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// Stok defteri append-only: miktara dokunan entity'ler bu yoldan geri alınamaz.
// Stok düzeltmesi gerekiyorsa ters yönlü yeni bir adjust kaydı girilir.
func undoAllowed(entityType string) bool {
	switch entityType {
	case "client_profile", "supplier", "material_library", "material_pricing", "material_kit":
		return true
	default:
		return false
	}
}

// UndoLog - Bir audit log'u undo et
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log bulunamadı: %w", err)
	}

	// Zaten undo edilmiş mi?
	if log.IsUndone {
		return fmt.Errorf("bu işlem zaten geri alınmış")
	}

	if !undoAllowed(log.EntityType) {
		return fmt.Errorf("'%s' kayıtları geri alınamaz (stok defteri append-only)", log.EntityType)
	}

	// Undo işlemini gerçekleştir
	switch log.Action {
	case models.AuditActionCreate:
		// Create ise entity'yi sil
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("entity silinemedi: %w", err)
		}

	case models.AuditActionUpdate:
		// Update ise önceki haline geri döndür
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("entity geri yüklenemedi: %w", err)
		}

	case models.AuditActionDelete:
		// Delete ise entity'yi geri oluştur (silinen hali BeforeData'da)
		if err := recreateEntity(log.EntityType, log.BeforeData); err != nil {
			return fmt.Errorf("entity geri oluşturulamadı: %w", err)
		}

	default:
		return fmt.Errorf("bu işlem türü geri alınamaz")
	}

	// Log'u işaretle
	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("log güncellenemedi: %w", err)
	}

	// Undo işlemi için yeni bir log oluştur
	undoLog := models.AuditLog{
		UserID:       userID,
		UserName:     userName,
		EntityType:   log.EntityType,
		EntityID:     log.EntityID,
		Action:       models.AuditActionUndo,
		Description:  fmt.Sprintf("Geri alındı: %s", log.Description),
		BeforeData:   log.AfterData,
		AfterData:    log.BeforeData,
		IsUndoAction: true,
		IsUndone:     false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("undo log kaydedilemedi: %w", err)
	}

	return nil
}

// deleteEntity - Entity'yi sil
func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "client_profile":
		return database.DB.Delete(&models.ClientProfile{}, "id = ?", entityID).Error
	case "supplier":
		return database.DB.Delete(&models.Supplier{}, "id = ?", entityID).Error
	case "material_library":
		return database.DB.Delete(&models.MaterialLibrary{}, "id = ?", entityID).Error
	case "material_pricing":
		return database.DB.Delete(&models.MaterialPricing{}, "id = ?", entityID).Error
	case "material_kit":
		// Kit satırları da gitmeli
		if err := database.DB.Delete(&models.MaterialKitItem{}, "material_kit_id = ?", entityID).Error; err != nil {
			return err
		}
		return database.DB.Delete(&models.MaterialKit{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

// recreateEntity - Silinen entity'yi geri oluştur
func recreateEntity(entityType string, dataJSON string) error {
	// "null" unmarshal'ı sessizce geçer ve sıfır kayıt üretir, baştan reddet
	if dataJSON == "" || dataJSON == "null" {
		return fmt.Errorf("geri oluşturulacak veri yok")
	}
	switch entityType {
	case "client_profile":
		var client models.ClientProfile
		if err := json.Unmarshal([]byte(dataJSON), &client); err != nil {
			return err
		}
		client.ID = 0 // Yeni entity oluştur
		return database.DB.Create(&client).Error

	case "supplier":
		var supplier models.Supplier
		if err := json.Unmarshal([]byte(dataJSON), &supplier); err != nil {
			return err
		}
		supplier.ID = 0
		return database.DB.Create(&supplier).Error

	case "material_library":
		var material models.MaterialLibrary
		if err := json.Unmarshal([]byte(dataJSON), &material); err != nil {
			return err
		}
		material.ID = 0
		return database.DB.Create(&material).Error

	case "material_pricing":
		var pricing models.MaterialPricing
		if err := json.Unmarshal([]byte(dataJSON), &pricing); err != nil {
			return err
		}
		pricing.ID = 0
		return database.DB.Create(&pricing).Error

	case "material_kit":
		var kit models.MaterialKit
		if err := json.Unmarshal([]byte(dataJSON), &kit); err != nil {
			return err
		}
		kit.ID = 0
		for i := range kit.Items {
			kit.Items[i].ID = 0
			kit.Items[i].MaterialKitID = 0
		}
		return database.DB.Create(&kit).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

// restoreEntity - Entity'yi geri yükle (update)
func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "client_profile":
		var client models.ClientProfile
		if err := json.Unmarshal([]byte(dataJSON), &client); err != nil {
			return err
		}
		return database.DB.Model(&models.ClientProfile{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":    client.Name,
			"email":   client.Email,
			"phone":   client.Phone,
			"address": client.Address,
			"note":    client.Note,
		}).Error

	case "supplier":
		var supplier models.Supplier
		if err := json.Unmarshal([]byte(dataJSON), &supplier); err != nil {
			return err
		}
		return database.DB.Model(&models.Supplier{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":         supplier.Name,
			"contact_name": supplier.ContactName,
			"phone":        supplier.Phone,
			"email":        supplier.Email,
		}).Error

	case "material_library":
		var material models.MaterialLibrary
		if err := json.Unmarshal([]byte(dataJSON), &material); err != nil {
			return err
		}
		return database.DB.Model(&models.MaterialLibrary{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":     material.Name,
			"category": material.Category,
			"unit":     material.Unit,
		}).Error

	case "material_pricing":
		var pricing models.MaterialPricing
		if err := json.Unmarshal([]byte(dataJSON), &pricing); err != nil {
			return err
		}
		return database.DB.Model(&models.MaterialPricing{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"min_price": pricing.MinPrice,
			"max_price": pricing.MaxPrice,
		}).Error

	case "material_kit":
		var kit models.MaterialKit
		if err := json.Unmarshal([]byte(dataJSON), &kit); err != nil {
			return err
		}
		// Satırlar ayrı tabloda: sadece kit başlığını geri yükle
		return database.DB.Model(&models.MaterialKit{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":        kit.Name,
			"description": kit.Description,
		}).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}
