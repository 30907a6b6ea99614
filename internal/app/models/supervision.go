package models

// SupervisionLink joins a subject and a supervisor. (subject, supervisor) is unique.
type SupervisionLink struct {
	ID           int64 `json:"id" db:"id"`
	SubjectID    int64 `json:"subjectId" db:"subject_id"`
	SupervisorID int64 `json:"supervisorId" db:"supervisor_id"`
	Role         Role  `json:"role" db:"role"`
}
