package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// Valid reports whether role is one of the known roles.
func Valid(role string) bool {
	switch role {
	case RoleViewer, RoleOperator, RoleAdmin:
		return true
	}
	return false
}
