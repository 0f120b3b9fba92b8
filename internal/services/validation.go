package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the domain rules registered:
//
//	username  letters, digits and @/./+/-/_ only
//	notme     anything but the reserved "me" handle
//	slug      letters, digits, hyphen and underscore
//	role      one of user, moderator, admin
//	pastyear  between 0 and the current year inclusive
//
// Field names in errors come from the json tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return utils.IsValidUsername(fl.Field().String())
		})
		_ = validate.RegisterValidation("notme", func(fl validator.FieldLevel) bool {
			return fl.Field().String() != models.ReservedUsername
		})
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return utils.IsValidSlug(fl.Field().String())
		})
		_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("pastyear", func(fl validator.FieldLevel) bool {
			year := fl.Field().Int()
			return year >= 0 && year <= int64(time.Now().Year())
		})
	})
	return validate
}

// validateRequest runs the struct rules and converts failures into a
// ValidationError keyed by JSON field name.
func validateRequest(req interface{}) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrors {
		verr.add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "notme":
		return fmt.Sprintf("The username %q is reserved.", models.ReservedUsername)
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "role":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "pastyear":
		return fmt.Sprintf("Year must be between 0 and %d.", time.Now().Year())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
