package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"todolis-backend/pkg/models"
)

func TestAddCommentValidation(t *testing.T) {
	db := newLocalDB(t)
	svc := newTestServices(t, db, nil)
	space := seedSpace(t, svc)
	g := seedGoal(t, svc, space.SpaceID, "a", models.GoalTodo)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   models.CreateCommentRequest
		field string
	}{
		{"blank author", models.CreateCommentRequest{Author: "   ", Body: "hi"}, "author"},
		{"long author", models.CreateCommentRequest{Author: strings.Repeat("a", 51), Body: "hi"}, "author"},
		{"empty body", models.CreateCommentRequest{Author: "ann", Body: ""}, "body"},
		{"blank body", models.CreateCommentRequest{Author: "ann", Body: "\t\n"}, "body"},
		{"long body", models.CreateCommentRequest{Author: "ann", Body: strings.Repeat("b", 501)}, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Comments.AddComment(ctx, g.ID, tt.req)
			assertValidationField(t, err, tt.field)
		})
	}

	list, _ := db.ListCommentsByGoal(ctx, g.ID)
	if len(list) != 0 {
		t.Errorf("rejected comments must not be stored, got %d", len(list))
	}
}

func TestAddCommentValidatesBeforeGoalLookup(t *testing.T) {
	svc := newTestServices(t, newLocalDB(t), nil)

	_, err := svc.Comments.AddComment(context.Background(), "missing", models.CreateCommentRequest{Author: " ", Body: "x"})
	assertValidationField(t, err, "author")

	_, err = svc.Comments.AddComment(context.Background(), "missing", models.CreateCommentRequest{Author: "ann", Body: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCommentsAreListedOldestFirst(t *testing.T) {
	svc := newTestServices(t, newLocalDB(t), nil)
	space := seedSpace(t, svc)
	g := seedGoal(t, svc, space.SpaceID, "a", models.GoalTodo)
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		c, err := svc.Comments.AddComment(ctx, g.ID, models.CreateCommentRequest{Author: "ann", Body: body})
		if err != nil {
			t.Fatalf("AddComment failed: %v", err)
		}
		if c.GoalID != g.ID || c.ID == "" || c.CreatedAt == "" {
			t.Errorf("unexpected comment %+v", c)
		}
	}

	list, err := svc.Comments.ListComments(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	got := []string{}
	for _, c := range list {
		got = append(got, c.Body)
	}
	if strings.Join(got, ",") != "first,second,third" {
		t.Errorf("unexpected order %v", got)
	}
}

func TestAddCommentStorageError(t *testing.T) {
	local := newLocalDB(t)
	seeder := newTestServices(t, local, nil)
	space := seedSpace(t, seeder)
	g := seedGoal(t, seeder, space.SpaceID, "a", models.GoalTodo)

	svc := newTestServices(t, newFailingStore(local, "CreateComment"), nil)
	_, err := svc.Comments.AddComment(context.Background(), g.ID, models.CreateCommentRequest{Author: "ann", Body: "x"})
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Op != "create comment" {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestReactions(t *testing.T) {
	svc := newTestServices(t, newLocalDB(t), nil)
	space := seedSpace(t, svc)
	g := seedGoal(t, svc, space.SpaceID, "a", models.GoalTodo)
	ctx := context.Background()

	_, err := svc.Comments.AddReaction(ctx, g.ID, models.CreateReactionRequest{Author: "ann", Emoji: " "})
	assertValidationField(t, err, "emoji")

	_, err = svc.Comments.AddReaction(ctx, g.ID, models.CreateReactionRequest{Author: "ann", Emoji: strings.Repeat("🎉", 21)})
	assertValidationField(t, err, "emoji")

	if _, err := svc.Comments.AddReaction(ctx, "missing", models.CreateReactionRequest{Author: "ann", Emoji: "🎉"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}

	for _, e := range []string{"🎉", "👍"} {
		if _, err := svc.Comments.AddReaction(ctx, g.ID, models.CreateReactionRequest{Author: "bob", Emoji: e}); err != nil {
			t.Fatalf("AddReaction failed: %v", err)
		}
	}
	list, err := svc.Comments.ListReactions(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListReactions failed: %v", err)
	}
	if len(list) != 2 || list[0].Emoji != "🎉" || list[1].Emoji != "👍" {
		t.Errorf("unexpected reactions %+v", list)
	}
}
