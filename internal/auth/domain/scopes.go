package domain

// Scopes granted to sessions. Regular users get the profile scopes;
// superusers additionally get the admin scopes.
const (
	ScopeProfileRead = "profile:read"
	ScopeAdminRead   = "admin:read"
	ScopeAdminWrite  = "admin:write"
)

// ScopesForUser returns the scopes a session for this user carries.
func ScopesForUser(u *User) []string {
	scopes := []string{ScopeProfileRead}
	if u.IsSuperuser {
		scopes = append(scopes, ScopeAdminRead, ScopeAdminWrite)
	}
	return scopes
}
