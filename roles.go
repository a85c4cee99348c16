package sessions

// UserRole is the account's privilege level
type UserRole string

const (
	// RoleGuest can only view
	RoleGuest UserRole = "guest"
	// RoleMember can view and edit
	RoleMember UserRole = "member"
	// RoleAdmin can view, edit, and create
	RoleAdmin UserRole = "admin"
	// RoleOwner can do everything
	RoleOwner UserRole = "owner"
)

var roleHierarchy = map[UserRole]int{
	RoleGuest:  0,
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// String returns the role's wire value
func (r UserRole) String() string {
	return string(r)
}

// IsValid checks if the role is one of the predefined roles
func (r UserRole) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// IsAtLeast checks if the role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	return RoleAtLeast(r, minRole)
}

// IsValidRole checks if the role is one of the predefined roles
func IsValidRole(r UserRole) bool {
	return r.IsValid()
}

// RoleAtLeast reports whether role meets the minimum required level.
// Unknown roles never satisfy any minimum.
func RoleAtLeast(role, minRole UserRole) bool {
	current, ok := roleHierarchy[role]
	if !ok {
		return false
	}

	min, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}

	return current >= min
}

// AllRoles returns the predefined roles in hierarchical order
func AllRoles() []UserRole {
	return []UserRole{RoleGuest, RoleMember, RoleAdmin, RoleOwner}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
