package models

import (
	"time"
)

// Subject defines a researcher or assistant under supervision, based on the 'subjects' table
type Subject struct {
	ID                     int64       `json:"id" db:"id"`
	Name                   string      `json:"name" db:"subject_name"`
	Title                  string      `json:"title" db:"title"`
	TitleFingerprint       string      `json:"titleFingerprint" db:"title_fingerprint"` // Derived from Title on every save
	Kind                   SubjectKind `json:"kind" db:"kind"`
	Degree                 Degree      `json:"degree" db:"degree"`
	DepartmentID           *int64      `json:"departmentId,omitempty" db:"department_id"`
	Status                 Status      `json:"status" db:"status"`
	StatusNote             string      `json:"statusNote" db:"status_note"`
	StatusDate             *time.Time  `json:"statusDate,omitempty" db:"status_date"`
	RegistrationDate       *time.Time  `json:"registrationDate,omitempty" db:"registration_date"`
	FrameDate              *time.Time  `json:"frameDate,omitempty" db:"frame_date"`
	UniversityApprovalDate *time.Time  `json:"universityApprovalDate,omitempty" db:"university_approval_date"`
	Phone                  string      `json:"phone" db:"phone"`
	CreatedAt              time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time   `json:"updatedAt" db:"updated_at"`
}

// HasDepartment reports whether the subject is attached to a department
func (s *Subject) HasDepartment() bool {
	return s.DepartmentID != nil
}

// Key returns the natural key stored for this subject
func (s *Subject) Key() SubjectKey {
	return SubjectKey{
		Name:             s.Name,
		TitleFingerprint: s.TitleFingerprint,
		Degree:           s.Degree,
		Kind:             s.Kind,
	}
}

// SubjectKey is the natural key of a subject. The tuple is unique in storage.
type SubjectKey struct {
	Name             string
	TitleFingerprint string
	Degree           Degree
	Kind             SubjectKind
}
