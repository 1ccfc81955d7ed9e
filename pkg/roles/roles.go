package roles

// Role represents a user's permission level.
type Role string

const (
	User  Role = "user"
	Staff Role = "staff"
	Admin Role = "admin"
)

// HierarchyLevel orders roles for permission checks.
type HierarchyLevel int

const (
	UserLevel  HierarchyLevel = 1
	StaffLevel HierarchyLevel = 2
	AdminLevel HierarchyLevel = 3
)

func (r Role) GetHierarchyLevel() HierarchyLevel {
	switch r {
	case User:
		return UserLevel
	case Staff:
		return StaffLevel
	case Admin:
		return AdminLevel
	default:
		return UserLevel
	}
}

// HasPermission reports whether the role meets the required role's level.
func (r Role) HasPermission(requiredRole Role) bool {
	return r.GetHierarchyLevel() >= requiredRole.GetHierarchyLevel()
}

func (r Role) IsValid() bool {
	switch r {
	case User, Staff, Admin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
