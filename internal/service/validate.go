package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// storable rejects text the line codec cannot round-trip.
func storable(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), ",\r\n")
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("storable", storable)
	return v
}
