package ledger

import "errors"

var (
	// ErrItemNotFound - Stok kalemi yok, hiçbir yazım yapılmadı
	ErrItemNotFound = errors.New("stok kalemi bulunamadı")

	// ErrInconsistent - Miktar güncellendi ama hareket kaydı yazılamadı.
	// Çağıran bunu yutmamalı: dönüşüm motoru rapora işler, elle düzeltme gerekir.
	ErrInconsistent = errors.New("stok miktarı güncellendi ama hareket kaydı yazılamadı")

	// ErrConflict - Eşzamanlı güncelleme yüzünden CAS denemeleri tükendi
	ErrConflict = errors.New("stok kalemi eşzamanlı güncellendi, tekrar deneyin")
)
