package rbac

// Principal is the authenticated caller. It is produced once by the
// authentication step and handed explicitly to every authorization check.
type Principal struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	RoleID   string `json:"role_id,omitempty"`
	RoleName string `json:"role_name,omitempty"`
}

// HasRole reports whether the principal currently holds an active role.
func (p Principal) HasRole() bool {
	return p.RoleID != "" && p.RoleName != ""
}

func (p Principal) IsAdmin() bool {
	return IsAdminRole(p.RoleName)
}

// HasAnyRole compares against resolved machine names.
func (p Principal) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if p.RoleName != "" && p.RoleName == n {
			return true
		}
	}
	return false
}

// Assignment is a user's role as currently stored, joined fresh from the role
// table. Resolvers read it instead of trusting anything carried in a token.
type Assignment struct {
	UserID     string
	UserActive bool
	RoleID     string
	RoleName   string
	RoleActive bool
}

// EffectiveRoleName is empty when the user has no role or the role is inactive.
func (a Assignment) EffectiveRoleName() string {
	if a.RoleID == "" || !a.RoleActive {
		return ""
	}
	return a.RoleName
}

func (a Assignment) IsAdmin() bool {
	return IsAdminRole(a.EffectiveRoleName())
}

// Principal converts the assignment for an authenticated caller. An inactive
// role is dropped so no check can match it.
func (a Assignment) Principal(email string) Principal {
	p := Principal{UserID: a.UserID, Email: email}
	if name := a.EffectiveRoleName(); name != "" {
		p.RoleID = a.RoleID
		p.RoleName = name
	}
	return p
}
