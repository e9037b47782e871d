package services

import (
	"context"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/models"
)

// SpaceService creates, reads and updates spaces.
type SpaceService struct {
	db      database.DatabaseInterface
	auth    *Authorizer
	members *MemberReconciler
	rt      runtime
}

func NewSpaceService(db database.DatabaseInterface, auth *Authorizer, members *MemberReconciler, opts ...Option) *SpaceService {
	return &SpaceService{db: db, auth: auth, members: members, rt: newRuntime(opts)}
}

// CreateSpace inserts the space and then its members in one batch. The
// returned tokens are not retrievable afterwards.
func (s *SpaceService) CreateSpace(ctx context.Context, title string, nicknames []string) (*models.CreatedSpace, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateNicknames("members", nicknames); err != nil {
		return nil, err
	}

	now := s.rt.timestamp()
	space := &models.Space{
		ID:        s.rt.newID(),
		Title:     title,
		ViewToken: s.rt.newID(),
		EditToken: s.rt.newID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for space.EditToken == space.ViewToken {
		space.EditToken = s.rt.newID()
	}
	if err := s.db.CreateSpace(ctx, space); err != nil {
		return nil, &StorageError{Op: "create space", Err: err}
	}

	delta := PlanMembers(space.ID, nil, nicknames, nil, s.rt.newID, now)
	if err := s.db.AddSpaceMembers(ctx, delta.Insert); err != nil {
		return nil, &StorageError{Op: "insert members", Err: err}
	}

	return &models.CreatedSpace{
		SpaceID:   space.ID,
		ViewToken: space.ViewToken,
		EditToken: space.EditToken,
	}, nil
}

// GetSpace returns the public space record and its members.
func (s *SpaceService) GetSpace(ctx context.Context, spaceID string) (*models.SpaceWithMembers, error) {
	space, err := s.db.GetSpaceByID(ctx, spaceID)
	if err != nil {
		return nil, lookupErr("space", spaceID, err)
	}
	members, err := s.db.ListSpaceMembers(ctx, space.ID)
	if err != nil {
		return nil, &StorageError{Op: "list members", Err: err}
	}
	return &models.SpaceWithMembers{Space: space.Info(), Members: members}, nil
}

// UpdateSpace requires the edit token. It always persists a fresh updated_at,
// then reconciles members, then reads everything back.
func (s *SpaceService) UpdateSpace(ctx context.Context, spaceID, token string, patch models.SpacePatch) (*models.SpaceWithMembers, error) {
	_, id, err := s.auth.Authorize(ctx, spaceID, token, models.PermissionEdit)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if err := validateNicknames("members_to_add", patch.MembersToAdd); err != nil {
		return nil, err
	}

	if err := s.db.UpdateSpace(ctx, id, models.SpaceUpdate{Title: patch.Title, UpdatedAt: s.rt.timestamp()}); err != nil {
		return nil, &StorageError{Op: "update space", Err: err}
	}

	members, _, err := s.members.Reconcile(ctx, id, patch.MembersToAdd, patch.MembersToDelete)
	if err != nil {
		return nil, err
	}

	space, err := s.db.GetSpaceByID(ctx, id)
	if err != nil {
		return nil, lookupErr("space", id, err)
	}
	return &models.SpaceWithMembers{Space: space.Info(), Members: members}, nil
}
