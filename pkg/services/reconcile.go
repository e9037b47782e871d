package services

import (
	"context"
	"errors"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/models"
)

// MemberDelta is the minimal mutation that brings a membership to the
// requested state.
type MemberDelta struct {
	// Delete holds nicknames that are present and requested for removal.
	Delete []string
	Insert []models.SpaceMember
}

// Empty reports whether applying d would change nothing.
func (d MemberDelta) Empty() bool {
	return len(d.Delete) == 0 && len(d.Insert) == 0
}

// PlanMembers computes the delta against current, the membership observed at
// the start of reconciliation. Unknown removals are dropped. An addition is
// skipped when the nickname survives the removals, so a nickname in both lists
// is replaced by a member with a new id. Comparison is exact.
func PlanMembers(spaceID string, current []models.SpaceMember, add, remove []string, newID func() string, now string) MemberDelta {
	present := make(map[string]bool, len(current))
	for _, m := range current {
		present[m.Nickname] = true
	}

	var delta MemberDelta
	removed := make(map[string]bool, len(remove))
	for _, nick := range remove {
		if present[nick] && !removed[nick] {
			removed[nick] = true
			delta.Delete = append(delta.Delete, nick)
		}
	}

	queued := make(map[string]bool, len(add))
	for _, nick := range add {
		if (present[nick] && !removed[nick]) || queued[nick] {
			continue
		}
		queued[nick] = true
		delta.Insert = append(delta.Insert, models.SpaceMember{
			ID:        newID(),
			SpaceID:   spaceID,
			Nickname:  nick,
			Role:      models.RoleEditor,
			CreatedAt: now,
		})
	}
	return delta
}

// MemberReconciler applies add/remove requests to space_members.
//
// The delete and the insert are two separate store calls. A failure of the
// insert leaves the delete applied, and two concurrent reconciliations of the
// same space may interleave between the read and the writes.
type MemberReconciler struct {
	db database.DatabaseInterface
	rt runtime
}

func NewMemberReconciler(db database.DatabaseInterface, opts ...Option) *MemberReconciler {
	return &MemberReconciler{db: db, rt: newRuntime(opts)}
}

// Reconcile applies the delta and returns the membership read back afterwards.
func (r *MemberReconciler) Reconcile(ctx context.Context, spaceID string, add, remove []string) ([]models.SpaceMember, MemberDelta, error) {
	current, err := r.db.ListSpaceMembers(ctx, spaceID)
	if err != nil {
		return nil, MemberDelta{}, &StorageError{Op: "list members", Err: err}
	}

	delta := PlanMembers(spaceID, current, add, remove, r.rt.newID, r.rt.timestamp())
	if delta.Empty() {
		return current, delta, nil
	}

	if err := r.db.DeleteSpaceMembersByNickname(ctx, spaceID, delta.Delete); err != nil {
		return nil, delta, &StorageError{Op: "delete members", Err: err}
	}
	if err := r.db.AddSpaceMembers(ctx, delta.Insert); err != nil {
		if errors.Is(err, database.ErrDuplicateMember) {
			return nil, delta, ErrNicknameTaken
		}
		return nil, delta, &StorageError{Op: "insert members", Err: err}
	}

	members, err := r.db.ListSpaceMembers(ctx, spaceID)
	if err != nil {
		return nil, delta, &StorageError{Op: "list members", Err: err}
	}
	return members, delta, nil
}
