package sandbox

import "errors"

var (
	// ErrUnsupportedLanguage is returned for a language without a toolchain
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrEmptyCode is returned when there is nothing to execute
	ErrEmptyCode = errors.New("no code provided")
	// ErrExecutionTimeout marks results whose phase exceeded its budget
	ErrExecutionTimeout = errors.New("execution timed out")
	// ErrResourceLeak is returned when a workspace survives its cleanup
	ErrResourceLeak = errors.New("workspace cleanup failed")
)

// Err returns ErrExecutionTimeout for timed out results and nil otherwise,
// letting boundaries map results with errors.Is
func (r ExecuteResult) Err() error {
	if r.TimedOut {
		return ErrExecutionTimeout
	}
	return nil
}
