package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField indicates an update names a field the schema lacks.
	ErrUnknownField = errors.New("workflow: unknown state field")

	// ErrFieldType indicates an update value has the wrong Go type.
	ErrFieldType = errors.New("workflow: state field type mismatch")

	// ErrDuplicateField indicates a schema declares a field twice.
	ErrDuplicateField = errors.New("workflow: duplicate state field")

	// ErrIncompleteBranch indicates a branch label without a target, or a
	// target for an undeclared label.
	ErrIncompleteBranch = errors.New("workflow: incomplete branch")

	// ErrUnroutedLabel indicates a decider returned a label with no target.
	ErrUnroutedLabel = errors.New("workflow: label has no route")

	// ErrHopLimit indicates the graph executed more nodes than allowed.
	ErrHopLimit = errors.New("workflow: hop limit exceeded")
)

// StepError wraps errors from step execution.
type StepError struct {
	StepName string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow: step %q failed: %v", e.StepName, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// wrapStep attaches the step name unless an inner step already did.
func wrapStep(name string, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{StepName: name, Err: err}
}
