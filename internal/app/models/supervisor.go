package models

// Supervisor defines the supervisor model based on the 'supervisors' table
type Supervisor struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	DepartmentID *int64 `json:"departmentId,omitempty" db:"department_id"` // Nullable, set null when the department is deleted
	IsActive     bool   `json:"isActive" db:"is_active"`

	Department *Department `json:"department,omitempty"` // Relation, no db tag
}

// HasDepartment reports whether the supervisor is attached to a department
func (s *Supervisor) HasDepartment() bool {
	return s.DepartmentID != nil
}
