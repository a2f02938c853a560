package program

import "fmt"

// UnknownProgramError reports an enrollment request naming a program the
// registry does not know. The operator fixes the source row, not the system.
type UnknownProgramError struct {
	Name string
}

func (e *UnknownProgramError) Error() string {
	return fmt.Sprintf("unknown program %q", e.Name)
}

// AlreadyEnrolledError reports a conflicting enrollment. It carries the
// existing range so the message names what the operator must resolve.
type AlreadyEnrolledError struct {
	ProgramName string
	Existing    *Enrollment
}

func (e *AlreadyEnrolledError) Error() string {
	start, end := e.Existing.Range()
	return fmt.Sprintf("patient already enrolled in %s from %s to %s", e.ProgramName, start, end)
}
