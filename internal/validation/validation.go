// Package validation holds the per-entity, per-mode payload schemas. Validate
// never panics; it either returns nil or a validation_error carrying field
// details. A mode missing from the registry is an implementation error and
// surfaces as a plain error, not a user-facing one.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
)

// Mode selects which schema applies to a payload.
type Mode string

// Validation modes.
const (
	ModeCreate         Mode = "create"
	ModeUpdate         Mode = "update"
	ModeUpdatePassword Mode = "update_password"
	ModeUpdateAvatar   Mode = "update_avatar"
	ModeListing        Mode = "listing"
)

// ParseMode maps a wire string to a Mode, defaulting to update for the empty
// string to match the façade's partial-update semantics.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.TrimSpace(s)) {
	case "":
		return ModeUpdate, true
	case ModeCreate:
		return ModeCreate, true
	case ModeUpdate:
		return ModeUpdate, true
	case ModeUpdatePassword:
		return ModeUpdatePassword, true
	case ModeUpdateAvatar:
		return ModeUpdateAvatar, true
	case ModeListing:
		return ModeListing, true
	default:
		return "", false
	}
}

// FieldError describes one failed field check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// schemas: entity name -> mode -> zero schema value factory.
var schemas = map[string]map[Mode]func() any{
	"admin": {
		ModeCreate:         func() any { return &adminCreate{} },
		ModeUpdate:         func() any { return &adminUpdate{} },
		ModeUpdatePassword: func() any { return &adminUpdatePassword{} },
		ModeUpdateAvatar:   func() any { return &adminUpdateAvatar{} },
		ModeListing:        func() any { return &adminListing{} },
	},
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator instance, reporting fields by
// their json tag names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks payload against the schema registered for entity and mode.
// Unknown fields and type mismatches fail like any other violation.
func Validate(entity string, mode Mode, payload map[string]any) error {
	modes, ok := schemas[strings.ToLower(strings.TrimSpace(entity))]
	if !ok {
		return apperrors.InvalidModel(entity)
	}
	newSchema, ok := modes[mode]
	if !ok {
		return fmt.Errorf("validation: no %q schema registered for entity %q", mode, entity)
	}

	schema := newSchema()
	raw, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		return apperrors.ValidationError([]FieldError{{Field: "_body", Message: "is not valid JSON"}})
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if errDecode := decoder.Decode(schema); errDecode != nil {
		return apperrors.ValidationError([]FieldError{{Field: "_body", Message: decodeMessage(errDecode)}})
	}

	errStruct := getValidator().Struct(schema)
	if errStruct == nil {
		return nil
	}
	fieldErrors, ok := errStruct.(validator.ValidationErrors)
	if !ok {
		return apperrors.ValidationError([]FieldError{{Field: "_body", Message: "failed validation"}})
	}
	details := make([]FieldError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return apperrors.ValidationError(details)
}

// decodeMessage turns a JSON decode failure into a stable message.
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %q must be of type %s", typeErr.Field, typeErr.Type)
	}
	if msg := err.Error(); strings.Contains(msg, "unknown field") {
		return msg[strings.Index(msg, "unknown field"):]
	}
	return "is not a valid payload"
}

// messageFor creates a human-readable message per failed rule.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "alphanum":
		return "must contain only letters and digits"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "uri":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
