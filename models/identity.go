package models

// Role is the access role carried by an identity
type Role string

// Identity roles
const (
	RoleClient     Role = "client"
	RoleLawyer     Role = "lawyer"
	RoleModerator  Role = "moderator"
	RoleSuperAdmin Role = "super_admin"
)

// UserIdentity is the per-connection identity resolved at handshake. It is
// never persisted by the gateway; anonymous identities are derived
// deterministically from the bootstrap credential so history reattaches
// across reconnects.
type UserIdentity struct {
	UserID          string   `json:"userId"`
	IsAuthenticated bool     `json:"isAuthenticated"`
	Role            Role     `json:"role"`
	Permissions     []string `json:"permissions"`
	IsAnonymous     bool     `json:"isAnonymous"`
}

// HasPermission reports whether the identity carries the named permission
func (u *UserIdentity) HasPermission(name string) bool {
	for _, p := range u.Permissions {
		if p == name {
			return true
		}
	}
	return false
}
