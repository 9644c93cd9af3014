package models

import "github.com/golang-jwt/jwt/v5"

type UserClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the token belongs to an operator.
func (c *UserClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
