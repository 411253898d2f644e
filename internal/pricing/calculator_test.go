package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	out, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return out
}

func TestCalculateKitItemCost(t *testing.T) {
	tests := []struct {
		name         string
		in           KitItemInput
		wantDesc     string
		wantUnitCost string
		wantTotal    string
	}{
		{
			name: "baz 100, fire %10, marj %20",
			in: KitItemInput{
				MaterialName:   "Alçı levha",
				Quantity:       d("3"),
				WasteFactorPct: d("10"),
				MarkupPct:      d("20"),
				Pricing:        &PriceRange{MinPrice: d("80"), MaxPrice: d("100")},
			},
			wantDesc:     "Alçı levha",
			wantUnitCost: "132",
			wantTotal:    "396",
		},
		{
			name: "baz fiyat aralığın üst sınırıdır",
			in: KitItemInput{
				MaterialName: "Boya (beyaz)",
				Quantity:     d("1"),
				Pricing:      &PriceRange{MinPrice: d("250"), MaxPrice: d("310")},
			},
			wantDesc:     "Boya (beyaz)",
			wantUnitCost: "310",
			wantTotal:    "310",
		},
		{
			name: "fiyat kaydı yoksa maliyet 0, hata yok",
			in: KitItemInput{
				MaterialName:   "Derz dolgusu",
				Quantity:       d("5"),
				WasteFactorPct: d("15"),
				MarkupPct:      d("25"),
				Pricing:        nil,
			},
			wantDesc:     "Derz dolgusu",
			wantUnitCost: "0",
			wantTotal:    "0",
		},
		{
			name: "malzeme çözümlenemediyse bilinmeyen malzeme",
			in: KitItemInput{
				MaterialName: "",
				Quantity:     d("2"),
				Pricing:      nil,
			},
			wantDesc:     UnknownMaterialName,
			wantUnitCost: "0",
			wantTotal:    "0",
		},
		{
			name: "iki haneye yuvarlama",
			in: KitItemInput{
				MaterialName:   "Silikon",
				Quantity:       d("1"),
				WasteFactorPct: d("7.5"),
				MarkupPct:      d("12.5"),
				Pricing:        &PriceRange{MaxPrice: d("33.33")},
			},
			wantDesc: "Silikon",
			// 33.33 * 1.075 * 1.125 = 40.308...
			wantUnitCost: "40.31",
			wantTotal:    "40.31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateKitItemCost(tt.in)
			if got.Description != tt.wantDesc {
				t.Errorf("açıklama %q olmalı, %q geldi", tt.wantDesc, got.Description)
			}
			if !got.UnitCost.Equal(d(tt.wantUnitCost)) {
				t.Errorf("birim maliyet %s olmalı, %s geldi", tt.wantUnitCost, got.UnitCost)
			}
			if !got.Total.Equal(d(tt.wantTotal)) {
				t.Errorf("toplam %s olmalı, %s geldi", tt.wantTotal, got.Total)
			}
			if !got.Quantity.Equal(tt.in.Quantity) {
				t.Errorf("miktar değişmemeli: %s -> %s", tt.in.Quantity, got.Quantity)
			}
		})
	}
}
