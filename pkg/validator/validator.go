package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var std = newValidate()

// FieldError describes one rejected field, named by its json or form tag.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

func (e FieldError) Error() string {
	switch e.Rule {
	case "required":
		return e.Field + " is required"
	case "max":
		return e.Field + " must be at most " + e.Param + " long"
	case "min":
		return e.Field + " must be at least " + e.Param + " long"
	case "lt", "lte":
		return e.Field + " must not exceed " + e.Param
	case "gt", "gte":
		return e.Field + " must be at least " + e.Param
	case "isodate":
		return e.Field + " must look like " + DateLayout
	case "clock":
		return e.Field + " must look like " + ClockLayout
	case "singleline":
		return e.Field + " must not contain line breaks"
	}
	return e.Field + " failed " + e.Rule
}

// Errors is returned by Validate when at least one field is rejected.
type Errors []FieldError

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("isodate", isoDate)
	_ = v.RegisterValidation("clock", clock)
	_ = v.RegisterValidation("singleline", singleLine)
	return v
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

// clock accepts an empty value; pair with required to demand one.
func clock(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

func singleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\r\n")
}

// Validate checks struct tags and reports every rejected field.
func Validate(ctx context.Context, structure any) error {
	err := std.StructCtx(ctx, structure)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}
