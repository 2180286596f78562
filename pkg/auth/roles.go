package auth

// Role is the closed set of platform roles. Authorization decisions go
// through role checks on this type, never through raw string comparison
// in service code.
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleStylist       Role = "stylist"
	RoleBranchManager Role = "branch_manager"
	RoleAdmin         Role = "admin"
)

// ParseRole maps a claim value onto a known Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleStylist, RoleBranchManager, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// IsStaff reports whether the role may manage bookings it does not own.
func (r Role) IsStaff() bool {
	return r == RoleStylist || r == RoleBranchManager || r == RoleAdmin
}

// CanManageBranch reports whether the role may perform branch administration.
func (r Role) CanManageBranch() bool {
	return r == RoleBranchManager || r == RoleAdmin
}
