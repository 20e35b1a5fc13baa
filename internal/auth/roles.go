package auth

// Role is the access level carried in an API token's claims. Viewers read
// reading groups and invoices, operators additionally submit readings and
// generate or pay invoices, admins additionally export invoice documents.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// NormalizeRole maps a token's role claim onto a known role; unknown claims
// are rejected rather than defaulted.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleViewer, RoleOperator, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast reports whether role grants at least the access of required.
// Roles are strictly ordered: admin covers operator covers viewer.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleOperator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
