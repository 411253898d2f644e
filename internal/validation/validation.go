package validation

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Struct - Request DTO'ları için ortak validator instance'ı
func Struct(s any) error {
	return validate.Struct(s)
}
