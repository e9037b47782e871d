package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"todolis-backend/pkg/models"
)

func nicknames(ms []models.SpaceMember) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Nickname)
	}
	sort.Strings(out)
	return out
}

func TestCreateSpace(t *testing.T) {
	db := newLocalDB(t)
	svc := newTestServices(t, db, nil)
	ctx := context.Background()

	created, err := svc.Spaces.CreateSpace(ctx, "Team goals", []string{"ann", "bob", "ann"})
	if err != nil {
		t.Fatalf("CreateSpace failed: %v", err)
	}
	if created.SpaceID == "" || created.ViewToken == "" || created.EditToken == "" {
		t.Fatalf("missing identifiers: %+v", created)
	}
	if created.ViewToken == created.EditToken || created.SpaceID == created.ViewToken {
		t.Errorf("identifiers must be distinct: %+v", created)
	}

	stored, err := db.GetSpaceByID(ctx, created.SpaceID)
	if err != nil {
		t.Fatalf("space not stored: %v", err)
	}
	if stored.EditToken != created.EditToken || stored.ViewToken != created.ViewToken {
		t.Error("stored tokens differ from returned tokens")
	}

	ms, _ := db.ListSpaceMembers(ctx, created.SpaceID)
	if got := nicknames(ms); strings.Join(got, ",") != "ann,bob" {
		t.Errorf("unexpected members %v", got)
	}
	for _, m := range ms {
		if m.Role != models.RoleEditor {
			t.Errorf("unexpected role %q", m.Role)
		}
	}
}

func TestCreateSpaceValidation(t *testing.T) {
	svc := newTestServices(t, newLocalDB(t), nil)
	ctx := context.Background()

	_, err := svc.Spaces.CreateSpace(ctx, "", nil)
	assertValidationField(t, err, "title")

	_, err = svc.Spaces.CreateSpace(ctx, strings.Repeat("a", 201), nil)
	assertValidationField(t, err, "title")

	_, err = svc.Spaces.CreateSpace(ctx, "ok", []string{"ann", "  "})
	assertValidationField(t, err, "members")
}

func TestGetSpace(t *testing.T) {
	svc := newTestServices(t, newLocalDB(t), nil)
	created := seedSpace(t, svc, "ann")

	got, err := svc.Spaces.GetSpace(context.Background(), created.SpaceID)
	if err != nil {
		t.Fatalf("GetSpace failed: %v", err)
	}
	if got.Space.ID != created.SpaceID || got.Space.Title != "Team goals" || len(got.Members) != 1 {
		t.Errorf("unexpected space %+v", got)
	}

	if _, err := svc.Spaces.GetSpace(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestUpdateSpace(t *testing.T) {
	svc := newTestServices(t, newLocalDB(t), nil)
	created := seedSpace(t, svc, "ann", "bob")
	ctx := context.Background()
	before, _ := svc.Spaces.GetSpace(ctx, created.SpaceID)

	got, err := svc.Spaces.UpdateSpace(ctx, created.SpaceID, created.EditToken, models.SpacePatch{
		Title:           strPtr("Renamed"),
		MembersToAdd:    []string{"cat"},
		MembersToDelete: []string{"bob"},
	})
	if err != nil {
		t.Fatalf("UpdateSpace failed: %v", err)
	}
	if got.Space.Title != "Renamed" || got.Space.UpdatedAt == before.Space.UpdatedAt {
		t.Errorf("unexpected space %+v", got.Space)
	}
	if n := strings.Join(nicknames(got.Members), ","); n != "ann,cat" {
		t.Errorf("unexpected members %s", n)
	}
}

func TestUpdateSpaceTimestampOnly(t *testing.T) {
	svc := newTestServices(t, newLocalDB(t), nil)
	created := seedSpace(t, svc, "ann")
	ctx := context.Background()
	before, _ := svc.Spaces.GetSpace(ctx, created.SpaceID)

	got, err := svc.Spaces.UpdateSpace(ctx, created.SpaceID, created.EditToken, models.SpacePatch{})
	if err != nil {
		t.Fatalf("UpdateSpace failed: %v", err)
	}
	if got.Space.UpdatedAt == before.Space.UpdatedAt {
		t.Error("updated_at must be persisted even without a title")
	}
	if got.Space.Title != before.Space.Title {
		t.Errorf("title changed to %q", got.Space.Title)
	}
}

func TestUpdateSpaceRejectsBeforeWriting(t *testing.T) {
	local := newLocalDB(t)
	created := seedSpace(t, newTestServices(t, local, nil), "ann")
	store := newFailingStore(local, "")
	svc := newTestServices(t, store, nil)
	ctx := context.Background()

	_, err := svc.Spaces.UpdateSpace(ctx, created.SpaceID, created.ViewToken, models.SpacePatch{Title: strPtr("x")})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected Unauthorized for view token, got %v", err)
	}

	// authorization is checked before validation
	_, err = svc.Spaces.UpdateSpace(ctx, created.SpaceID, "junk", models.SpacePatch{Title: strPtr("")})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected Unauthorized before validation, got %v", err)
	}

	_, err = svc.Spaces.UpdateSpace(ctx, created.SpaceID, created.EditToken, models.SpacePatch{Title: strPtr("")})
	assertValidationField(t, err, "title")

	_, err = svc.Spaces.UpdateSpace(ctx, created.SpaceID, created.EditToken, models.SpacePatch{MembersToAdd: []string{" "}})
	assertValidationField(t, err, "members_to_add")

	if n := store.count("UpdateSpace") + store.count("AddSpaceMembers") + store.count("DeleteSpaceMembersByNickname"); n != 0 {
		t.Errorf("rejected updates must not write, saw %d writes", n)
	}
}

func TestUpdateSpaceMissing(t *testing.T) {
	svc := newTestServices(t, newLocalDB(t), nil)

	_, err := svc.Spaces.UpdateSpace(context.Background(), "missing", "tok", models.SpacePatch{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
