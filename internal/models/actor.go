package models

// Role is an actor's role within the organization
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleInspector Role = "inspector"
	RoleViewer    Role = "viewer"
)

// Actor is the identity and role evaluated by the edit-window authorizer.
// The core receives these as plain values; authentication happens upstream.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
