package errors

import (
	"fmt"
	"strings"
)

// MultiErrors aggregates field-level validation failures so one response can
// name every rejected field at once.
type MultiErrors struct {
	Errors map[string][]ErrorInfo `json:"errors"`
}

type ErrorInfo struct {
	Message  string `json:"message"`
	RawError error  `json:"-"`
}

func NewMultiErrors() *MultiErrors {
	return &MultiErrors{
		Errors: make(map[string][]ErrorInfo),
	}
}

func (e *MultiErrors) Add(key, message string, err error) {
	e.Errors[key] = append(e.Errors[key], ErrorInfo{
		Message:  message,
		RawError: err,
	})
}

func (e *MultiErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *MultiErrors) Error() string {
	var parts []string
	for field, errors := range e.Errors {
		for _, err := range errors {
			parts = append(parts, fmt.Sprintf("%s: %s", field, err.Message))
		}
	}
	return strings.Join(parts, " | ")
}
