package models

import (
	"time"

	"estatehub/internal/authz"
)

// OTPChallenge is one issued email code awaiting verification. The row is
// deleted once the code is confirmed.
type OTPChallenge struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Code      string     `json:"-"`
	RoleID    authz.Role `json:"role_id"`
	CreatedAt time.Time  `json:"created_at"`
}
