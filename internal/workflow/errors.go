package workflow

import "fmt"

// StepError reports the step at which a run stopped. It unwraps to the
// underlying cause so callers can classify it with errors.Is.
type StepError struct {
	Index int
	ID    string
	Type  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d %q (%s): %v", e.Index+1, e.ID, e.Type, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
