package authz

// Роли приходят строкой в claim "role" токена администратора.
const (
	RoleAdmin = "admin"
	RoleAudit = "audit"
)

func IsReadOnly(role string) bool {
	return role == RoleAudit
}
