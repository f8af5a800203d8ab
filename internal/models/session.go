package models

import "time"

// Session records the role granted by a successful login.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// IsExpired checks if session has expired. A zero ExpiresAt never expires.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// IsSuperAdmin reports whether the session may change branding and users.
func (s *Session) IsSuperAdmin() bool {
	return s.Role == RoleSuperAdmin
}
