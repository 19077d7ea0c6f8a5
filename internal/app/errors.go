package app

import "fmt"

// DomainError is a service-level failure carrying the HTTP status and a
// stable machine-readable code the form client switches on (EMPTY_REPORT,
// NO_CONTACT, VALIDATION_ERROR and friends). mapError serializes it as the
// error response body.
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
	return &DomainError{Status: status, Code: code, Message: message, Details: details}
}
