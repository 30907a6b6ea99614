package models

import "time"

// FeePayment records whether a subject paid the fee for a calendar year. (subject, year) is unique.
type FeePayment struct {
	ID        int64      `json:"id" db:"id"`
	SubjectID int64      `json:"subjectId" db:"subject_id"`
	Year      int        `json:"year" db:"year"`
	IsPaid    bool       `json:"isPaid" db:"is_paid"`
	PaidAt    *time.Time `json:"paidAt,omitempty" db:"paid_at"`
}
