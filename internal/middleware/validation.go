package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/medbridge/portal-api/internal/model"
)

// RegisterValidators installs domain validators on gin's binding engine.
// Safe to call once at startup, before any request binding runs.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("appointment_status", func(fl validator.FieldLevel) bool {
		return model.AppointmentStatus(fl.Field().String()).Valid()
	})
	v.RegisterValidation("risk_level", func(fl validator.FieldLevel) bool {
		return model.RiskLevel(fl.Field().String()).Valid()
	})
}
