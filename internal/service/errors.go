package service

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var (
	ErrListingNotFound   = errors.New("listing not found")
	ErrRentalNotFound    = errors.New("rental not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotOwner          = errors.New("only the listing owner may do this")
	ErrOwnListing        = errors.New("cannot rent your own listing")
	ErrInvalidDates      = errors.New("rental requires a future start date and an end date after it")
	ErrInvalidTransition = errors.New("rental status transition not allowed")
	ErrInvalidPrice      = errors.New("price must be greater than zero")
	ErrInvalidPriceUnit  = errors.New("price unit must be hour, day or week")
	ErrInvalidCategory   = errors.New("unknown listing category")
	ErrInvalidCondition  = errors.New("condition must be like new, good or fair")
	ErrSelfMessage       = errors.New("cannot message yourself")
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// ValidationError aggregates per-field tag failures. It marks input errors
// so the API layer can keep them apart from infrastructure failures.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// IsValidationError reports whether the error is a field validation failure.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// validateStruct runs validator tags and flattens the result into a single
// error suitable for API responses.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return &ValidationError{Fields: fields}
	}
	return err
}
