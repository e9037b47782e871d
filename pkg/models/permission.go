package models

// Permission is the access level a token resolves to within one space.
type Permission string

const (
	PermissionNone Permission = "none"
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// Satisfies reports whether p is at least required. Edit implies view.
func (p Permission) Satisfies(required Permission) bool {
	switch required {
	case PermissionView:
		return p == PermissionView || p == PermissionEdit
	case PermissionEdit:
		return p == PermissionEdit
	default:
		return false
	}
}

// TokenValidation GET /api/spaces/{space_id}/permission
type TokenValidation struct {
	SpaceID     string     `json:"space_id"`
	IsValid     bool       `json:"is_valid"`
	Permissions Permission `json:"permissions"`
}
