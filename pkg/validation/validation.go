// Package validation wraps go-playground/validator with the tags and error
// shapes shared by the room and booking validators.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"meetingroom/pkg/interval"

	"github.com/go-playground/validator/v10"
)

const TagTimeOfDay = "time_of_day"

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"-"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Has reports whether any entry failed the given field.
func (v ValidationErrors) Has(field string) bool {
	return v.Find(field) != nil
}

func (v ValidationErrors) Find(field string) *ValidationError {
	for i := range v {
		if v[i].Field == field {
			return &v[i]
		}
	}
	return nil
}

// Details flattens the errors into a field -> message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// New returns a validator that reports json field names and knows the
// time_of_day tag.
func New() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation(TagTimeOfDay, validateTimeOfDay); err != nil {
		return nil, fmt.Errorf("register %q validator: %w", TagTimeOfDay, err)
	}
	return v, nil
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	_, err := interval.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

// Struct runs v against s and converts failures into ValidationErrors.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return Translate(validationErrs)
	}
	return err
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case TagTimeOfDay:
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Tag:     err.Tag(),
			Message: message,
		})
	}

	return validationErrors
}
