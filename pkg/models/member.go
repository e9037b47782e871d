package models

type MemberRole string

const (
	RoleEditor MemberRole = "editor"
)

// SpaceMember is a nickname registered in a space. Nicknames are unique per space.
type SpaceMember struct {
	ID        string     `json:"id" db:"id"`
	SpaceID   string     `json:"space_id" db:"space_id"`
	Nickname  string     `json:"nickname" db:"nickname"`
	Role      MemberRole `json:"role" db:"role"`
	CreatedAt string     `json:"created_at" db:"created_at"`
}
