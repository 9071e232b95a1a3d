package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/vendasys/backend/internal/domain/rollup"
)

// SetupValidator registers the period-key validators with gin's binding
// engine. Handlers bind path parameters with the `monthkey` and `yearkey`
// tags so malformed periods are rejected before they reach a service.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("monthkey", func(fl validator.FieldLevel) bool {
		return rollup.ValidMonthKey(fl.Field().String())
	})
	_ = v.RegisterValidation("yearkey", func(fl validator.FieldLevel) bool {
		return rollup.ValidYearKey(fl.Field().String())
	})
}
