package policy

import "fmt"

// ConfigurationError reports an invalid policy definition at
// registration time or an override value failing semantic-type or
// range validation at resolution time. It never occurs mid-evaluation.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a lookup of a policy name that was never
// registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("policy %q is not registered", e.Name)
}
