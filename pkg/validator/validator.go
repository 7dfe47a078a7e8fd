package validator

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
)

var global *validator.Validate

const (
	ErrFieldRequired     = "Field is required"
	ErrNotPositiveNumber = "Value must be a positive number"
	ErrUnknownValidation = "Unknown validation error"
)

// Error describes the first failed rule of a validated struct.
type Error struct {
	Field string
	Tag   string
	Msg   string
}

func (e *Error) Error() string {
	return e.Msg + ": " + e.Field
}

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("positivenumber", validatePositiveNumber)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

// ParsePositiveNumber accepts decimal strings such as "2" or " 1.5 " that are finite and > 0.
func ParsePositiveNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

func validatePositiveNumber(fl validator.FieldLevel) bool {
	_, ok := ParsePositiveNumber(fl.Field().String())
	return ok
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "positivenumber":
		msg = ErrNotPositiveNumber
	default:
		msg = ErrUnknownValidation
	}
	return &Error{Field: ve.Namespace(), Tag: ve.Tag(), Msg: msg}
}
