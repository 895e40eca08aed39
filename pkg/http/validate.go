package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by the name the caller sent them under: the
// query, path or json key, in that order.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "param", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds path, query and body into req, applies
// `default` tags to zero fields and validates the result.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	// echo binds query params only for GET, DELETE and HEAD.
	switch c.Request().Method {
	case http.MethodGet, http.MethodDelete, http.MethodHead:
	default:
		if err := (&echo.DefaultBinder{}).BindQueryParams(c, req); err != nil {
			return toValidationErrors(err)
		}
	}
	return ValidateStruct(c.Request().Context(), req)
}

// ValidateStruct applies defaults and validation tags to an already
// decoded value, such as a websocket command or a queue payload.
func ValidateStruct(ctx context.Context, v interface{}) []ValidationError {
	if err := defaults.Set(v); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(ctx, v); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// ruleMessages holds one format per tag; verbs are field then param.
var ruleMessages = map[string]string{
	"required": "%s is required",
	"oneof":    "%s must be one of: %s",
	"gt":       "%s must be greater than %s",
	"gte":      "%s must be at least %s",
	"lt":       "%s must be less than %s",
	"lte":      "%s must be at most %s",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
	"gtefield": "%s must not be less than %s",
}

// ruleParam names the single param key each bounded tag exposes.
var ruleParam = map[string]string{
	"min": "min", "gte": "min",
	"max": "max", "lte": "max",
	"gt": "value", "lt": "value",
	"gtefield": "field",
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: ruleMessage(fe),
				Params:  ruleParams(fe),
			})
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

func ruleMessage(fe validator.FieldError) string {
	format, ok := ruleMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(format, fe.Field())
	case "oneof":
		param = strings.ReplaceAll(param, " ", ", ")
	case "min", "max":
		if fe.Kind() == reflect.String {
			param += " characters"
		}
	}
	return fmt.Sprintf(format, fe.Field(), param)
}

func ruleParams(fe validator.FieldError) map[string]interface{} {
	if fe.Tag() == "oneof" {
		return map[string]interface{}{"options": strings.Fields(fe.Param())}
	}
	if key, ok := ruleParam[fe.Tag()]; ok {
		return map[string]interface{}{key: fe.Param()}
	}
	return nil
}
