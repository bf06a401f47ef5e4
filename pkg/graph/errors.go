package graph

import "fmt"

// BuildError aggregates every definition error found while building a graph.
type BuildError struct {
	Machine string
	Errors  []error
}

func (e *BuildError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("machine %q: %s", e.Machine, e.Errors[0].Error())
	}
	msg := fmt.Sprintf("machine %q: %d definition errors:\n", e.Machine, len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error {
	return e.Errors
}

// DefinitionErrors returns all definition errors if err is a BuildError.
// Otherwise returns nil.
func DefinitionErrors(err error) []error {
	if be, ok := err.(*BuildError); ok {
		return be.Errors
	}
	return nil
}
