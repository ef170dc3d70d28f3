package auth

import (
	"strings"

	"yellowair/models"
)

const (
	PolicyRole   = "role"
	PolicyLegacy = "legacy"
)

// Guard decides whether a decoded credential may use admin endpoints.
type Guard interface {
	IsAdmin(claims *Claims) bool
}

// LegacyEmailGuard grants admin to any email containing "admin".
// The match is case-sensitive.
type LegacyEmailGuard struct{}

func (LegacyEmailGuard) IsAdmin(claims *Claims) bool {
	if claims == nil {
		return false
	}
	return strings.Contains(claims.Email, "admin")
}

// RoleGuard grants admin on an explicit role claim or an allowlisted email.
type RoleGuard struct {
	emails map[string]struct{}
}

func NewRoleGuard(adminEmails []string) *RoleGuard {
	set := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		set[email] = struct{}{}
	}
	return &RoleGuard{emails: set}
}

func (g *RoleGuard) IsAdmin(claims *Claims) bool {
	if claims == nil {
		return false
	}
	if claims.Role == models.RoleAdmin {
		return true
	}
	_, ok := g.emails[strings.ToLower(claims.Email)]
	return ok
}

// NewGuard returns the guard for the configured policy. Unknown policies
// fall back to RoleGuard.
func NewGuard(policy string, adminEmails []string) Guard {
	if policy == PolicyLegacy {
		return LegacyEmailGuard{}
	}
	return NewRoleGuard(adminEmails)
}
