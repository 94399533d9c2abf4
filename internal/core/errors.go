package core

import "fmt"

// ConfigError marks a fatal configuration problem: missing pair coverage,
// duplicate names, bad box sizing.
type ConfigError struct {
	Msg string
}

func (e ConfigError) Error() string { return "config: " + e.Msg }

func configErrorf(format string, args ...any) error {
	return ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// StateError reports an API call made in the wrong lifecycle phase.
type StateError struct {
	Op     string
	Status Status
}

func (e StateError) Error() string {
	return fmt.Sprintf("state: cannot %s while %s", e.Op, e.Status)
}

// NumericalError wraps a non-finite or backwards result from the event
// machinery, tagged with the event count it surfaced at.
type NumericalError struct {
	EventCount uint64
	Msg        string
}

func (e NumericalError) Error() string {
	return fmt.Sprintf("numerical: event %d: %s", e.EventCount, e.Msg)
}
