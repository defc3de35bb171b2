package app

import "fmt"

// DomainError carries an HTTP status and a stable machine-readable code for
// failures the client is expected to handle (FORBIDDEN, VALIDATION_ERROR,
// HISTORY_EXHAUSTED, ...). Details holds optional structured context such as
// the offending field or the validation error list.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
