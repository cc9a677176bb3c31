package users

// RoleType represents a user role within the brokerage
type RoleType string

const (
	RoleAdmin         RoleType = "admin"          // Can manage all offices and system configuration
	RoleOfficeManager RoleType = "office_manager" // Can manage agents and listings within an office
	RoleAgent         RoleType = "agent"          // Works leads, opportunities, and transactions
	RoleAssistant     RoleType = "assistant"      // Supports agents, limited write access
	RoleViewer        RoleType = "viewer"         // Read-only access
)

// User is the identity record returned by the backend. The client treats
// Role as an opaque tag compared against caller-supplied allow-lists; it
// never interprets individual roles itself.
type User struct {
	ID        string   `json:"id,omitempty"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Role      RoleType `json:"role,omitempty"`
	OfficeID  string   `json:"office_id,omitempty"`
}

// DisplayName returns the user's full name, falling back to the email
// address when no name fields are set.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasAnyRole reports whether the user's role appears in the allow-list.
// A nil user or empty allow-list never matches.
func HasAnyRole(u *User, allowed ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, role := range allowed {
		if u.Role == role {
			return true
		}
	}
	return false
}
