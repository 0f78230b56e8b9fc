package framework

import "fmt"

// ConfigurationError aborts a run: there is nothing to align against or
// nothing to align.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// MissingColumnError is fatal for one record set only.
type MissingColumnError struct {
	Set    string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("record set %q: no %s column found", e.Set, e.Column)
}
