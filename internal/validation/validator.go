// Package validation はリクエストボディの構造体検証を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator はgo-playground/validatorのラッパー。
// エラーメッセージのフィールド名にはJSONタグ名を使う。
type Validator struct {
	validate *validator.Validate
}

// New はValidatorを生成する。
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: validate}
}

// Struct は構造体を検証し、違反があれば*ValidationErrorを返す。
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return newValidationError(verrs)
	}
	return err
}

// Var は単一の値をタグで検証する。
func (v *Validator) Var(field any, tag string) error {
	return v.validate.Var(field, tag)
}

// IsUUID はsが正しいUUID表記かを返す。
func (v *Validator) IsUUID(s string) bool {
	return v.validate.Var(s, "required,uuid") == nil
}

// ValidationError はフィールドごとの検証エラーを保持する。
type ValidationError struct {
	Fields map[string]string
}

// Error はフィールド名順に並べた検証エラーの文字列を返す。
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, e.Fields[k])
	}
	return strings.Join(messages, ", ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))

	for _, err := range errs {
		field := err.Field()

		switch err.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "email":
			fields[field] = fmt.Sprintf("%s must be a valid email address", field)
		case "uuid":
			fields[field] = fmt.Sprintf("%s must be a valid id", field)
		case "gt":
			fields[field] = fmt.Sprintf("%s must be greater than %s", field, err.Param())
		case "gte", "min":
			fields[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "lte", "max":
			fields[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		default:
			fields[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return &ValidationError{Fields: fields}
}
