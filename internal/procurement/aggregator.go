package procurement

import (
	"sort"

	"ustapanel-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sipariş arama listesi: onaylanmış tekliflerin satırlarını tedarikçiye göre
// gruplar. Salt okunur, hiçbir şey mutate etmez; okuma hatası olduğu gibi döner.

type CallListItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Total       decimal.Decimal `json:"total"`
}

type EstimateGroup struct {
	EstimateID    uint            `json:"estimate_id"`
	EstimateTitle string          `json:"estimate_title"`
	Items         []CallListItem  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type SupplierGroup struct {
	SupplierID   *uint           `json:"supplier_id"` // nil = tedarikçisi atanmamış satırlar
	SupplierName string          `json:"supplier_name"`
	Estimates    []EstimateGroup `json:"estimates"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	ItemCount    int             `json:"item_count"`
}

const unassignedName = "Atanmamış"

// BuildCallList - Onaylı tekliflerin tüm satırlarını tedarikçi bazında toplar.
// Tedarikçisi olmayan satırlar "Atanmamış" kovasına düşer. Çıktı deterministik
// sıralıdır: tedarikçiler ada göre (atanmamış en sonda), teklifler ID'ye göre.
func BuildCallList(db *gorm.DB) ([]SupplierGroup, error) {
	var estimates []models.JobEstimate
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc, id asc")
		}).
		Where("status = ?", models.EstimateStatusApproved).
		Order("id asc").
		Find(&estimates).Error
	if err != nil {
		return nil, err
	}

	// Tedarikçi adlarını tek sorguyla çöz (satırdaki denormalize ad boş olabilir)
	supplierNames := map[uint]string{}
	var suppliers []models.Supplier
	if err := db.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	for _, s := range suppliers {
		supplierNames[s.ID] = s.Name
	}

	const unassignedKey = uint(0) // gerçek ID'ler 1'den başlar
	groups := map[uint]*SupplierGroup{}

	for _, est := range estimates {
		for _, item := range est.Items {
			key := unassignedKey
			if item.SupplierID != nil {
				key = *item.SupplierID
			}

			group, ok := groups[key]
			if !ok {
				group = &SupplierGroup{TotalCost: decimal.Zero}
				if key == unassignedKey {
					group.SupplierName = unassignedName
				} else {
					sid := key
					group.SupplierID = &sid
					if name, ok := supplierNames[key]; ok {
						group.SupplierName = name
					} else if item.SupplierName != "" {
						group.SupplierName = item.SupplierName // tedarikçi silinmiş, denormalize ad elde var
					} else {
						group.SupplierName = unassignedName
					}
				}
				groups[key] = group
			}

			// Tedarikçi içinde teklif bazlı alt grup
			var eg *EstimateGroup
			for i := range group.Estimates {
				if group.Estimates[i].EstimateID == est.ID {
					eg = &group.Estimates[i]
					break
				}
			}
			if eg == nil {
				group.Estimates = append(group.Estimates, EstimateGroup{
					EstimateID:    est.ID,
					EstimateTitle: est.Title,
					Subtotal:      decimal.Zero,
				})
				eg = &group.Estimates[len(group.Estimates)-1]
			}

			eg.Items = append(eg.Items, CallListItem{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitCost:    item.UnitCost,
				Total:       item.Total,
			})
			eg.Subtotal = eg.Subtotal.Add(item.Total)
			group.TotalCost = group.TotalCost.Add(item.Total)
			group.ItemCount++
		}
	}

	out := make([]SupplierGroup, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.Estimates, func(i, j int) bool {
			return g.Estimates[i].EstimateID < g.Estimates[j].EstimateID
		})
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		// Atanmamış kova en sonda
		if (out[i].SupplierID == nil) != (out[j].SupplierID == nil) {
			return out[j].SupplierID == nil
		}
		if out[i].SupplierName != out[j].SupplierName {
			return out[i].SupplierName < out[j].SupplierName
		}
		return out[i].SupplierID != nil && out[j].SupplierID != nil && *out[i].SupplierID < *out[j].SupplierID
	})

	return out, nil
}
