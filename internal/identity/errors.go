package identity

import "strings"

// Error codes returned by the store. The codes are part of the HTTP contract:
// handlers serialize them verbatim into 400 responses.
const (
	CodeDuplicateEmail        = "DuplicateEmail"
	CodePasswordTooShort      = "PasswordTooShort"
	CodePasswordRequiresDigit = "PasswordRequiresDigit"
	CodeRequired              = "Required"
	CodeInvalidEmail          = "InvalidEmail"
)

// FieldError is one structured rejection, attributable to a request field.
type FieldError struct {
	Field       string `json:"field,omitempty"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Errors is the structured error list surfaced by the store and by request
// validation. It never wraps database or broker internals.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Description)
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether the list contains the given code.
func (e Errors) Has(code string) bool {
	for _, fe := range e {
		if fe.Code == code {
			return true
		}
	}
	return false
}
