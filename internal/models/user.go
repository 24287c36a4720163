package models

// Role represents the access level of an authenticated user
type Role string

const (
	RoleSuperAdmin Role = "Super Admin"
	RoleAdmin      Role = "Admin"
	RoleAgent      Role = "Agent"
	RoleViewer     Role = "Viewer"
)

// ValidRoles defines the roles the menu knows how to render
var ValidRoles = map[Role]bool{
	RoleSuperAdmin: true,
	RoleAdmin:      true,
	RoleAgent:      true,
	RoleViewer:     true,
}

// RoleFromLogin derives a session role from the role string returned by the
// login endpoint. Only the two privileged values are recognised; anything else
// is treated as a viewer.
func RoleFromLogin(s string) Role {
	switch Role(s) {
	case RoleSuperAdmin:
		return RoleSuperAdmin
	case RoleAgent:
		return RoleAgent
	default:
		return RoleViewer
	}
}

// Session is the authenticated identity held for the lifetime of the process
type Session struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Role        Role   `json:"role"`
	AccessToken string `json:"-"`
}

// LoginResponse is the body returned by the login endpoint. Only Role is
// guaranteed; the other fields are used when the backend provides them.
type LoginResponse struct {
	Role        string     `json:"role"`
	ID          FlexibleID `json:"id,omitempty"`
	UserID      FlexibleID `json:"user_id,omitempty"`
	AccessToken string     `json:"access_token,omitempty"`
	TokenType   string     `json:"token_type,omitempty"`
}
