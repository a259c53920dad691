package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rsierra/ex-maps/pkg/common"
)

// Validate is the global validator instance
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("latitude", validateLatitude)
	_ = Validate.RegisterValidation("longitude", validateLongitude)
}

// ValidateStruct validates a struct and returns an AppError describing the
// first failures when validation fails.
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return common.NewValidationError(formatValidationErrors(validationErrors))
		}
		return err
	}
	return nil
}

// validateLatitude checks that a latitude is within -90..90
func validateLatitude(fl validator.FieldLevel) bool {
	latitude := fl.Field().Float()
	return latitude >= -90.0 && latitude <= 90.0
}

// validateLongitude checks that a longitude is within -180..180
func validateLongitude(fl validator.FieldLevel) bool {
	longitude := fl.Field().Float()
	return longitude >= -180.0 && longitude <= 180.0
}

// ValidateCoordinates validates a latitude/longitude pair
func ValidateCoordinates(latitude, longitude float64) error {
	if latitude < -90.0 || latitude > 90.0 {
		return fmt.Errorf("latitude must be between -90 and 90, got: %f", latitude)
	}
	if longitude < -180.0 || longitude > 180.0 {
		return fmt.Errorf("longitude must be between -180 and 180, got: %f", longitude)
	}
	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fieldErr.Field()))
		case "latitude":
			messages = append(messages, fmt.Sprintf("%s must be between -90 and 90", fieldErr.Field()))
		case "longitude":
			messages = append(messages, fmt.Sprintf("%s must be between -180 and 180", fieldErr.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must have at least %s entries", fieldErr.Field(), fieldErr.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fieldErr.Field()))
		}
	}
	return strings.Join(messages, "; ")
}
