package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Payer names are printable identifiers: letters, digits, spaces, and a
// few separators. Blocks control characters and markup without rejecting
// real-world names like "MILLER COORS".
var safePayerRe = regexp.MustCompile(`^[a-zA-Z0-9 _\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_payer", validateSafePayer)
	}
}

func validateSafePayer(fl validator.FieldLevel) bool {
	return safePayerRe.MatchString(fl.Field().String())
}
