package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Subject identifies the operator or agent; Role drives RBAC.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}
