package pipeline

import "fmt"

const (
	StageCorrection    = "correction"
	StageLemmatization = "lemmatization"
	StageDeclension    = "declension"
)

// StageError reports which stage and which input item failed.
// Index is -1 when the failure is not tied to one item, e.g. opening a session.
type StageError struct {
	Stage string
	Index int
	Item  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s stage: item #%d %q: %v", e.Stage, e.Index, e.Item, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func sessionError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Index: -1, Err: err}
}

func itemError(stage string, index int, item string, err error) *StageError {
	return &StageError{Stage: stage, Index: index, Item: item, Err: err}
}
