package domain

const RoleAdmin = "admin"

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Identity is the authenticated caller as issued by the gateway at login.
type Identity struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (i *Identity) Authenticated() bool {
	return i != nil && i.Token != "" && i.User.ID != 0
}

func (i *Identity) IsAdmin() bool {
	return i.Authenticated() && i.User.Role == RoleAdmin
}

// RequireAuth returns ErrAuthRequired unless the identity is authenticated.
func RequireAuth(i *Identity) error {
	if !i.Authenticated() {
		return ErrAuthRequired
	}
	return nil
}

// RequireAdmin distinguishes anonymous callers from authenticated non-admins.
func RequireAdmin(i *Identity) error {
	if err := RequireAuth(i); err != nil {
		return err
	}
	if !i.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
