package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	registerCustomValidations()
}

func registerCustomValidations() {
	// Safety category validation
	validate.RegisterValidation("safety_category", func(fl validator.FieldLevel) bool {
		category := fl.Field().String()
		validCategories := []string{
			"woman_dating_men", "man_dating_women", "nonbinary",
			"influencer", "new_account", "standard",
		}
		for _, c := range validCategories {
			if category == c {
				return true
			}
		}
		return false
	})

	// Booking outcome validation
	validate.RegisterValidation("booking_outcome", func(fl validator.FieldLevel) bool {
		outcome := fl.Field().String()
		validOutcomes := []string{
			"COMPLETED_NORMAL", "REJECTED", "PANIC_ENDED",
			"CANCELLED_BY_REQUESTER", "CANCELLED_BY_TARGET",
		}
		for _, o := range validOutcomes {
			if outcome == o {
				return true
			}
		}
		return false
	})

	// Ranking context validation. Empty is allowed: callers omitting
	// the context get the discovery default.
	validate.RegisterValidation("ranking_context", func(fl validator.FieldLevel) bool {
		rc := fl.Field().String()
		validContexts := []string{"discovery", "feed", "suggestions", ""}
		for _, c := range validContexts {
			if rc == c {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "uuid":
			errors[field] = "Invalid UUID format"
		case "latitude":
			errors[field] = "Invalid latitude"
		case "longitude":
			errors[field] = "Invalid longitude"
		case "safety_category":
			errors[field] = "Invalid safety category"
		case "booking_outcome":
			errors[field] = "Invalid booking outcome"
		case "ranking_context":
			errors[field] = "Invalid ranking context. Must be: discovery, feed, or suggestions"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
