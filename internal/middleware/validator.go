package middleware

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// maxFacetValueLength bounds a single product, city or month value.
const maxFacetValueLength = 128

// NewValidator returns a validator that reports JSON field names and knows
// the facet rule: printable text of at most maxFacetValueLength bytes.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("facet", isFacetValue)
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// isFacetValue accepts printable text of bounded length. The empty string
// is a legitimate (if unmatched) value.
func isFacetValue(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) > maxFacetValueLength {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsPrint(r) }) < 0
}

var ruleMessages = map[string]string{
	"required": "%[1]s is required",
	"min":      "%[1]s must be at least %[2]s",
	"max":      "%[1]s must be at most %[2]s",
	"gte":      "%[1]s must be greater than or equal to %[2]s",
	"lte":      "%[1]s must be less than or equal to %[2]s",
}

// describe renders a field error for API clients.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "facet":
		return fmt.Sprintf("%s must be printable text of at most %d characters", fe.Field(), maxFacetValueLength)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	if format, ok := ruleMessages[fe.Tag()]; ok {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
