package accounts

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map suitable for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, fieldErr := range verrs {
			if fieldErr != nil {
				out[field] = fieldErr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
