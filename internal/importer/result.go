package importer

import "fmt"

// Result is the terminal outcome of processing one row: the original row
// plus either success or a descriptive error. There is no partial success;
// a failed row leaves no durable state behind.
type Result struct {
	Row *Row
	Err error
}

func (r *Result) Succeeded() bool {
	return r.Err == nil
}

// Message returns the operator-facing failure message, empty on success.
func (r *Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// NoMatchError is the business outcome for a row whose identifier resolves
// to no acceptable patient. The identifier is embedded so the operator can
// find the source row.
type NoMatchError struct {
	Identifier string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("No matching patients found with ID:'%s'", e.Identifier)
}
