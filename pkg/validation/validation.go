package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/models"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex   = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}$`)
	vehicleRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-]{0,19}$`)
)

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && emailRegex.MatchString(email) && len(email) <= 200
}

func ValidatePhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	return phone != "" && phoneRegex.MatchString(phone)
}

func ValidatePassword(password string) bool {
	return len(password) >= 6 && len(password) <= 100
}

// ValidateUsername accepts 1..50 runes after trimming.
func ValidateUsername(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && utf8.RuneCountInString(name) <= 50
}

// Validator wraps go-playground/validator with the domain tags
// `platform`, `vehicle_number`, `phone`, `username` and `password` registered.
// The built-in `email` tag is replaced by ValidateEmail.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return models.Platform(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("vehicle_number", func(fl validator.FieldLevel) bool {
		return vehicleRegex.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
		return ValidateEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidatePassword(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s and converts failures into an *apperr.ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &apperr.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, apperr.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "vehicle_number":
		if fe.Tag() == "required" {
			return "Vehicle number is required."
		}
		return "Vehicle number may only contain letters, digits, spaces and hyphens (max 20)."
	case "platform":
		if fe.Tag() == "required" {
			return "Please select a platform."
		}
		return "Platform must be one of ola, uber, rapido, namma_yatri."
	case "rating":
		if fe.Tag() == "required" {
			return "Please select a rating before submitting."
		}
		return fmt.Sprintf("Rating must be between %d and %d.", models.MinRating, models.MaxRating)
	case "username":
		return "Username cannot be empty (max 50 characters)."
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return "Please enter a valid email address."
	case "password":
		return "Password must be 6 to 100 characters."
	case "uuid":
		return fmt.Sprintf("%s must be a valid id.", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s.", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s.", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid.", fe.Field())
}
