package models

// Space is a shared goal board. Read access is granted by ViewToken and
// read+write access by EditToken.
type Space struct {
	ID        string `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	ViewToken string `json:"view_token" db:"view_token"`
	EditToken string `json:"edit_token" db:"edit_token"`
	CreatedAt string `json:"created_at" db:"created_at"`
	UpdatedAt string `json:"updated_at" db:"updated_at"`
}

// SpaceInfo is the public projection of a Space. Tokens are only handed out
// once, by the create response.
type SpaceInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Info drops the secrets from s.
func (s *Space) Info() SpaceInfo {
	return SpaceInfo{ID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}

// SpaceUpdate is the typed update record written to the spaces table.
// UpdatedAt is always written; Title only when non-nil.
type SpaceUpdate struct {
	Title     *string
	UpdatedAt string
}

// SpacePatch is the caller-facing partial update for a space.
type SpacePatch struct {
	Title           *string  `json:"title,omitempty"`
	MembersToAdd    []string `json:"members_to_add,omitempty"`
	MembersToDelete []string `json:"members_to_delete,omitempty"`
}

// CreateSpaceRequest POST /api/spaces
type CreateSpaceRequest struct {
	Title   string   `json:"title"`
	Members []string `json:"members"`
}

// CreatedSpace carries the only copy of the tokens the caller will ever get.
type CreatedSpace struct {
	SpaceID   string `json:"space_id"`
	ViewToken string `json:"view_token"`
	EditToken string `json:"edit_token"`
}

// SpaceWithMembers is the refreshed view returned by get/update space.
type SpaceWithMembers struct {
	Space   SpaceInfo     `json:"space"`
	Members []SpaceMember `json:"members"`
}
