package models

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxTitleLength is the longest title the client accepts.
const MaxTitleLength = 100

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field error found in one payload.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "invalid task: " + strings.Join(parts, "; ")
}

// Has reports whether field already carries an error.
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

type nowKey struct{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))

	// future only applies when a reference time was put in the context.
	must(v.RegisterValidationCtx("future", func(ctx context.Context, fl validator.FieldLevel) bool {
		now, ok := ctx.Value(nowKey{}).(time.Time)
		if !ok {
			return true
		}
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.After(now)
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

var fieldLabels = map[string]string{
	"title":         "Title",
	"scheduledTime": "Scheduled time",
	"priority":      "Priority",
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "notblank":
		return label + " must not be empty"
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", label, fe.Param())
	case "oneof":
		return label + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "future":
		return label + " must be in the future"
	}
	return label + " is invalid"
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

// ValidateNewTask checks the rules the server enforces on a creation
// payload: a title of 1 to MaxTitleLength characters, a scheduled time and
// a known priority.
func ValidateNewTask(n NewTask) error {
	return toValidationError(validate.StructCtx(context.Background(), n))
}

// ValidateForCreate runs the checks the client performs before it sends a
// new task. On top of ValidateNewTask the scheduled time must be after now.
func ValidateForCreate(n NewTask, now time.Time) error {
	ctx := context.WithValue(context.Background(), nowKey{}, now)
	return toValidationError(validate.StructCtx(ctx, n))
}

// ValidatePatch checks the fields of a partial update that are present.
func ValidatePatch(p TaskPatch) error {
	return toValidationError(validate.StructCtx(context.Background(), p))
}
