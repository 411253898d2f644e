package pricing

import "github.com/shopspring/decimal"

// Kit satırı maliyet hesabı. Saf fonksiyon: veritabanına dokunmaz,
// çözümlenmiş malzeme adı ve fiyat aralığı dışarıdan verilir.

// Malzeme kütüphanede çözümlenemediğinde satır açıklaması
const UnknownMaterialName = "Bilinmeyen Malzeme"

type PriceRange struct {
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

type KitItemInput struct {
	MaterialName   string
	Quantity       decimal.Decimal
	WasteFactorPct decimal.Decimal // Fire payı yüzdesi
	MarkupPct      decimal.Decimal // Kâr marjı yüzdesi
	Pricing        *PriceRange     // nil = fiyat verisi yok (hata değil, maliyet 0)
}

type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Total       decimal.Decimal `json:"total"`
}

var hundred = decimal.NewFromInt(100)

// CalculateKitItemCost - Teklife eklenecek satırın birim maliyetini hesaplar:
// baz fiyat (aralığın ÜST sınırı, temkinli seçim) × (1 + fire/100) × (1 + marj/100),
// 2 haneye yuvarlanır. Fiyat kaydı yoksa maliyet 0'dır; fiyatsız malzeme normal
// bir durumdur, hata üretmez.
func CalculateKitItemCost(in KitItemInput) LineItem {
	name := in.MaterialName
	if name == "" {
		name = UnknownMaterialName
	}

	baseCost := decimal.Zero
	if in.Pricing != nil {
		baseCost = in.Pricing.MaxPrice
	}

	costWithWaste := baseCost.Mul(hundred.Add(in.WasteFactorPct)).Div(hundred)
	finalUnitCost := costWithWaste.Mul(hundred.Add(in.MarkupPct)).Div(hundred).Round(2)

	return LineItem{
		Description: name,
		Quantity:    in.Quantity,
		UnitCost:    finalUnitCost,
		Total:       in.Quantity.Mul(finalUnitCost).Round(2),
	}
}
