package fuzzy

import (
	"errors"
	"fmt"
)

// ErrNoResult is returned when an evaluation produced no value for an output
// variable.
var ErrNoResult = errors.New("no result")

// A ConfigurationError reports an invalid set, variable, rule or system. It is
// only ever returned while a system is being assembled.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return "invalid " + e.Component + ": " + e.Reason
}

func configErrorf(component, format string, args ...any) error {
	return &ConfigurationError{
		Component: component,
		Reason:    fmt.Sprintf(format, args...),
	}
}
