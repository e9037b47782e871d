package database

import (
	"context"
	"errors"
	"testing"

	"todolis-backend/pkg/models"
)

func TestLocalDatabasePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := NewLocalDatabase(dir)
	if err != nil {
		t.Fatalf("NewLocalDatabase failed: %v", err)
	}
	if err := db.CreateSpace(ctx, &models.Space{ID: "s1", Title: "Team", ViewToken: "v", EditToken: "e"}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateGoal(ctx, &models.Goal{ID: "g1", SpaceID: "s1", Title: "t", Status: models.GoalTodo, Tags: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewLocalDatabase(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	s, err := reopened.GetSpaceByID(ctx, "s1")
	if err != nil || s.Title != "Team" {
		t.Fatalf("space not persisted: %+v %v", s, err)
	}
	g, err := reopened.GetGoalByID(ctx, "g1")
	if err != nil || len(g.Tags) != 1 {
		t.Fatalf("goal not persisted: %+v %v", g, err)
	}
	if g.Version != 1 {
		t.Errorf("unversioned goal should load as version 1, got %d", g.Version)
	}
}

func TestLocalDatabaseReturnsCopies(t *testing.T) {
	db, _ := NewLocalDatabase("")
	ctx := context.Background()
	_ = db.CreateGoal(ctx, &models.Goal{ID: "g1", SpaceID: "s1", Tags: []string{"a"}})

	g, _ := db.GetGoalByID(ctx, "g1")
	g.Tags[0] = "mutated"

	again, _ := db.GetGoalByID(ctx, "g1")
	if again.Tags[0] != "a" {
		t.Error("callers must not be able to mutate stored tags")
	}
}

func TestLocalDatabaseMembers(t *testing.T) {
	db, _ := NewLocalDatabase("")
	ctx := context.Background()
	_ = db.AddSpaceMembers(ctx, []models.SpaceMember{
		{ID: "m1", SpaceID: "s1", Nickname: "ann"},
		{ID: "m2", SpaceID: "s1", Nickname: "bob"},
		{ID: "m3", SpaceID: "s2", Nickname: "ann"},
	})

	if err := db.DeleteSpaceMembersByNickname(ctx, "s1", []string{"ann", "zed"}); err != nil {
		t.Fatal(err)
	}
	s1, _ := db.ListSpaceMembers(ctx, "s1")
	s2, _ := db.ListSpaceMembers(ctx, "s2")
	if len(s1) != 1 || s1[0].Nickname != "bob" {
		t.Errorf("unexpected s1 members %+v", s1)
	}
	if len(s2) != 1 {
		t.Errorf("delete must be scoped to the space, s2 = %+v", s2)
	}
}

func TestLocalDatabaseConditionalUpdate(t *testing.T) {
	db, _ := NewLocalDatabase("")
	ctx := context.Background()
	const sameSecond = "2024-04-01 09:00:00+09"
	_ = db.CreateGoal(ctx, &models.Goal{ID: "g1", SpaceID: "s1", UpdatedAt: sameSecond, Version: 1})

	first, second := "first", "second"
	if err := db.UpdateGoal(ctx, "g1", models.GoalUpdate{Detail: &first, UpdatedAt: sameSecond, ExpectedVersion: 1}); err != nil {
		t.Fatalf("expected matching version to apply, got %v", err)
	}
	// same timestamp, stale version
	if err := db.UpdateGoal(ctx, "g1", models.GoalUpdate{Detail: &second, UpdatedAt: sameSecond, ExpectedVersion: 1}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	g, _ := db.GetGoalByID(ctx, "g1")
	if g.Detail != "first" || g.Version != 2 {
		t.Errorf("unexpected goal %+v", g)
	}

	if err := db.UpdateGoal(ctx, "g1", models.GoalUpdate{UpdatedAt: sameSecond}); err != nil {
		t.Fatal(err)
	}
	g, _ = db.GetGoalByID(ctx, "g1")
	if g.Version != 3 {
		t.Errorf("unconditional update should bump version, got %d", g.Version)
	}
	if err := db.UpdateGoal(ctx, "missing", models.GoalUpdate{ExpectedVersion: 1}); !errors.Is(err, ErrConflict) {
		t.Errorf("conditional update of a missing goal should conflict, got %v", err)
	}
}

func TestLocalDatabaseMemberNicknamesAreUnique(t *testing.T) {
	db, _ := NewLocalDatabase("")
	ctx := context.Background()
	if err := db.AddSpaceMembers(ctx, []models.SpaceMember{{ID: "m1", SpaceID: "s1", Nickname: "ann"}}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		members []models.SpaceMember
		wantErr bool
	}{
		{"taken", []models.SpaceMember{{ID: "m2", SpaceID: "s1", Nickname: "ann"}}, true},
		{"repeated in batch", []models.SpaceMember{{ID: "m3", SpaceID: "s1", Nickname: "bob"}, {ID: "m4", SpaceID: "s1", Nickname: "bob"}}, true},
		{"other space", []models.SpaceMember{{ID: "m5", SpaceID: "s2", Nickname: "ann"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.AddSpaceMembers(ctx, tt.members)
			if tt.wantErr != errors.Is(err, ErrDuplicateMember) {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	s1, _ := db.ListSpaceMembers(ctx, "s1")
	if len(s1) != 1 {
		t.Errorf("a rejected batch must insert nothing, s1 = %+v", s1)
	}

	// replace: delete then insert the same nickname
	_ = db.DeleteSpaceMembersByNickname(ctx, "s1", []string{"ann"})
	if err := db.AddSpaceMembers(ctx, []models.SpaceMember{{ID: "m6", SpaceID: "s1", Nickname: "ann"}}); err != nil {
		t.Errorf("re-adding a removed nickname failed: %v", err)
	}
}

func TestLocalDatabaseCommentOrderIsStable(t *testing.T) {
	db, _ := NewLocalDatabase("")
	ctx := context.Background()
	for _, c := range []models.Comment{
		{ID: "c2", GoalID: "g1", Body: "later", CreatedAt: "2024-04-01 10:00:00+09"},
		{ID: "c1", GoalID: "g1", Body: "tie-a", CreatedAt: "2024-04-01 09:00:00+09"},
		{ID: "c3", GoalID: "g1", Body: "tie-b", CreatedAt: "2024-04-01 09:00:00+09"},
	} {
		c := c
		_ = db.CreateComment(ctx, &c)
	}

	list, _ := db.ListCommentsByGoal(ctx, "g1")
	if len(list) != 3 || list[0].Body != "tie-a" || list[1].Body != "tie-b" || list[2].Body != "later" {
		t.Errorf("unexpected order %+v", list)
	}
}
