package models

// Department is reference data shared by supervisors and subjects
type Department struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
