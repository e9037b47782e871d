package services

import (
	"context"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/models"
	"todolis-backend/pkg/utils"
)

// Authorizer maps a caller token to a permission level within one space.
type Authorizer struct {
	db database.DatabaseInterface
}

func NewAuthorizer(db database.DatabaseInterface) *Authorizer {
	return &Authorizer{db: db}
}

// Resolve loads the space and returns the level token grants, PermissionNone
// included. The edit token is checked first.
func (a *Authorizer) Resolve(ctx context.Context, spaceID, token string) (models.Permission, *models.Space, error) {
	space, err := a.db.GetSpaceByID(ctx, spaceID)
	if err != nil {
		return models.PermissionNone, nil, lookupErr("space", spaceID, err)
	}
	switch {
	case token == "":
		return models.PermissionNone, space, nil
	case utils.TokenEquals(space.EditToken, token):
		return models.PermissionEdit, space, nil
	case utils.TokenEquals(space.ViewToken, token):
		return models.PermissionView, space, nil
	}
	return models.PermissionNone, space, nil
}

// Authorize fails with ErrUnauthorized unless token grants at least required.
// On success it returns the resolved level and the stored space id.
func (a *Authorizer) Authorize(ctx context.Context, spaceID, token string, required models.Permission) (models.Permission, string, error) {
	perm, space, err := a.Resolve(ctx, spaceID, token)
	if err != nil {
		return models.PermissionNone, "", err
	}
	if !perm.Satisfies(required) {
		return models.PermissionNone, "", ErrUnauthorized
	}
	return perm, space.ID, nil
}

// Validate reports the level of token without failing on insufficient access.
func (a *Authorizer) Validate(ctx context.Context, spaceID, token string) (*models.TokenValidation, error) {
	perm, space, err := a.Resolve(ctx, spaceID, token)
	if err != nil {
		return nil, err
	}
	return &models.TokenValidation{
		SpaceID:     space.ID,
		IsValid:     perm != models.PermissionNone,
		Permissions: perm,
	}, nil
}
