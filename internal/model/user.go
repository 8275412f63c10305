package model

// Role is a single role assignment carried by a user, together with the
// permission codes it grants.
type Role struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// UserIdentity describes the signed-in user as reported by the backend.
// Values are replaced wholesale on refresh and never mutated in place.
type UserIdentity struct {
	// ID is the backend's user identifier.
	ID string `json:"id"`

	// LoginID is the name the user signs in with.
	LoginID string `json:"login_id"`

	// Name is the display name.
	Name string `json:"name"`

	// Department is the organizational unit the user belongs to.
	Department string `json:"department"`

	// Roles lists every role assignment of the user.
	Roles []Role `json:"roles"`
}

// HasPermission reports whether any of the user's roles grants code.
func (u *UserIdentity) HasPermission(code string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if p == code {
				return true
			}
		}
	}
	return false
}

// RoleNames returns the display names of the user's roles in order.
func (u *UserIdentity) RoleNames() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
