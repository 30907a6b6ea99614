package models

// Degree is the academic stage of a research subject
type Degree string

const (
	DegreeMA  Degree = "MA"
	DegreePhD Degree = "PHD"
)

// Valid reports whether d is one of the known degrees
func (d Degree) Valid() bool {
	return d == DegreeMA || d == DegreePhD
}

// Label returns the display name used in exported sheets
func (d Degree) Label() string {
	switch d {
	case DegreePhD:
		return "دكتوراه"
	case DegreeMA:
		return "ماجستير"
	}
	return string(d)
}

// SubjectKind distinguishes researchers from teaching assistants
type SubjectKind string

const (
	KindResearcher SubjectKind = "RESEARCHER"
	KindAssistant  SubjectKind = "ASSISTANT"
)

// Valid reports whether k is one of the known kinds
func (k SubjectKind) Valid() bool {
	return k == KindResearcher || k == KindAssistant
}

// Label returns the display name used in exported sheets
func (k SubjectKind) Label() string {
	switch k {
	case KindResearcher:
		return "باحث"
	case KindAssistant:
		return "معيد"
	}
	return string(k)
}

// Status is the lifecycle state of a research subject
type Status string

const (
	StatusRegistered Status = "REGISTERED"
	StatusDiscussed  Status = "DISCUSSED"
	StatusCancelled  Status = "CANCELLED"
	StatusDismissed  Status = "DISMISSED"
	StatusOther      Status = "OTHER"
)

// AllStatuses lists statuses in display order
var AllStatuses = []Status{StatusRegistered, StatusDiscussed, StatusCancelled, StatusDismissed, StatusOther}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the display name used in exported sheets
func (s Status) Label() string {
	switch s {
	case StatusRegistered:
		return "مسجل"
	case StatusDiscussed:
		return "ناقش/انتهى"
	case StatusCancelled:
		return "إلغاء"
	case StatusDismissed:
		return "فصل"
	case StatusOther:
		return "أخرى"
	}
	return string(s)
}

// Role is the part a supervisor plays on a subject
type Role string

const (
	RolePrimary  Role = "PRIMARY"
	RoleCo       Role = "CO"
	RoleExternal Role = "EXTERNAL"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RolePrimary || r == RoleCo || r == RoleExternal
}
