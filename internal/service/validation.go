package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/tuition-center-api/internal/models"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

// NewValidator returns a validator that reports JSON field names and knows the domain enums.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	registerDomainValidations(v)
	return v
}

func registerDomainValidations(v *validator.Validate) {
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("student_group", func(fl validator.FieldLevel) bool {
		return models.StudentGroup(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("homework_status", func(fl validator.FieldLevel) bool {
		return models.HomeworkStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("population", func(fl validator.FieldLevel) bool {
		return models.Population(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("report_format", func(fl validator.FieldLevel) bool {
		return models.ReportFormat(fl.Field().String()).Valid()
	})
}

func defaultValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	registerDomainValidations(v)
	return v
}

// validationError names the first failing field so clients can point at it.
func validationError(err error, fallback string) *appErrors.Error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return appErrors.Validation(err, fmt.Sprintf("%s: %s is invalid (%s)", fallback, fe.Field(), fe.Tag()))
	}
	return appErrors.Validation(err, fallback)
}
