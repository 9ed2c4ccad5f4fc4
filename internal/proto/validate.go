package proto

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidPayload matches every decoding or validation failure.
var ErrInvalidPayload = errors.New("invalid payload")

// DecodeError explains why a payload was rejected.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "invalid payload: " + e.Reason }

func (e *DecodeError) Is(target error) bool { return target == ErrInvalidPayload }

// Decode unmarshals data into dst and validates it.
func Decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &DecodeError{Reason: err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		return &DecodeError{Reason: describe(err)}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_without":
			parts = append(parts, fe.Field()+" is required")
		case "max":
			parts = append(parts, fe.Field()+" is too long")
		case "oneof":
			parts = append(parts, fe.Field()+" must be one of "+fe.Param())
		case "excluded_with":
			parts = append(parts, fe.Field()+" cannot be combined with "+fe.Param())
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
