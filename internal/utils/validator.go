package utils

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Custom validation functions, registered on gin's binding validator so request
// structs can use the same tags as the model layer.

func ValidateQuestionType(fl validator.FieldLevel) bool {
	_, err := models.ParseQuestionType(fl.Field().String())
	return err == nil
}

func ValidateLessonType(fl validator.FieldLevel) bool {
	_, err := models.ParseLessonType(fl.Field().String())
	return err == nil
}

func ValidateEnrollmentStatus(fl validator.FieldLevel) bool {
	_, err := models.ParseEnrollmentStatus(fl.Field().String())
	return err == nil
}

func ValidateUserRole(fl validator.FieldLevel) bool {
	_, err := models.ParseUserRole(fl.Field().String())
	return err == nil
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("lesson_type", ValidateLessonType)
	validate.RegisterValidation("enrollment_status", ValidateEnrollmentStatus)
	validate.RegisterValidation("user_role", ValidateUserRole)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
