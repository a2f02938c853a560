package program

import (
	"time"

	"github.com/google/uuid"
)

// Program is a named care program, e.g. "TB" or "HIV".
type Program struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Enrollment records that a patient is active in a program over a date
// range. A nil DateCompleted means the enrollment is open-ended.
type Enrollment struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProgramID     uuid.UUID  `db:"program_id" json:"program_id"`
	DateEnrolled  time.Time  `db:"date_enrolled" json:"date_enrolled"`
	DateCompleted *time.Time `db:"date_completed" json:"date_completed,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Range renders the enrollment period for operator-facing messages.
func (e *Enrollment) Range() (start, end string) {
	start = e.DateEnrolled.Format("2006-01-02")
	end = "open"
	if e.DateCompleted != nil {
		end = e.DateCompleted.Format("2006-01-02")
	}
	return start, end
}
