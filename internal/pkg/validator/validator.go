// Package validator wraps go-playground/validator for struct validation with
// readable, field-qualified errors. On top of the built-in tags it registers:
//
//   - loglevel: a string accepted by zapcore.ParseLevel ("debug", "info", ...)
package validator

import (
	"errors"
	"fmt"
	"strings"

	gvalidator "github.com/go-playground/validator/v10"
	"go.uber.org/zap/zapcore"
)

// ErrValidationFailed heads the error chain returned by Validate when one or
// more fields break their rules.
var ErrValidationFailed = errors.New("struct validation failed")

var validator *gvalidator.Validate

const (
	errStringFormat      = "'%s': value '%v' does not meet the requirements for the '%s' validation"
	errParamStringFormat = "'%s': value '%v' does not meet the requirements for the '%s=%s' validation"
)

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())

	if err := validator.RegisterValidation("loglevel", validateLogLevel); err != nil {
		panic(err)
	}
}

func validateLogLevel(fl gvalidator.FieldLevel) bool {
	_, err := zapcore.ParseLevel(fl.Field().String())
	return err == nil
}

// fieldPath returns the dotted path of the failing field without the name of
// the top-level struct, so nested fields read as "Redis.Addr".
func fieldPath(fe gvalidator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}
	return fe.Field()
}

// formatError turns validator.ValidationErrors into ErrValidationFailed joined
// with one message per field. Any other error is returned unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			errs = append(errs, fmt.Errorf(errParamStringFormat, fieldPath(fe), fe.Value(), fe.Tag(), fe.Param()))
			continue
		}
		errs = append(errs, fmt.Errorf(errStringFormat, fieldPath(fe), fe.Value(), fe.Tag()))
	}

	return errors.Join(errs...)
}

// Validate checks v against its `validate` struct tags.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
