package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/models"
)

var errBoom = errors.New("boom")

// tickingClock advances one second per reading so consecutive writes get
// distinct timestamps.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestServices(t *testing.T, db database.DatabaseInterface, cache SummaryCache) *Services {
	t.Helper()
	clock := &tickingClock{t: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	return New(db, cache, WithClock(clock.Now), WithIDGenerator(seqIDs()))
}

func newLocalDB(t *testing.T) *database.LocalDatabase {
	t.Helper()
	db, err := database.NewLocalDatabase("")
	if err != nil {
		t.Fatalf("NewLocalDatabase failed: %v", err)
	}
	return db
}

// seedSpace creates a space through the service and returns it with tokens.
func seedSpace(t *testing.T, svc *Services, members ...string) *models.CreatedSpace {
	t.Helper()
	created, err := svc.Spaces.CreateSpace(context.Background(), "Team goals", members)
	if err != nil {
		t.Fatalf("CreateSpace failed: %v", err)
	}
	return created
}

func seedGoal(t *testing.T, svc *Services, spaceID, title string, status models.GoalStatus) *models.Goal {
	t.Helper()
	ctx := context.Background()
	g, err := svc.Goals.CreateGoal(ctx, spaceID, models.CreateGoalRequest{Title: title, DueOn: "2024-05-01"})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	switch status {
	case models.GoalTodo:
		return g
	case models.GoalClosed:
		if err := svc.Goals.CloseGoal(ctx, g.ID); err != nil {
			t.Fatalf("CloseGoal failed: %v", err)
		}
	default:
		g, err = svc.Goals.UpdateGoal(ctx, g.ID, models.GoalPatch{Status: &status}, 0)
		if err != nil {
			t.Fatalf("UpdateGoal failed: %v", err)
		}
	}
	return g
}

// failingStore fails the named operation and delegates everything else.
type failingStore struct {
	database.DatabaseInterface
	failOn string
	calls  map[string]int
	mu     sync.Mutex
}

func newFailingStore(inner database.DatabaseInterface, failOn string) *failingStore {
	return &failingStore{DatabaseInterface: inner, failOn: failOn, calls: map[string]int{}}
}

func (f *failingStore) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if op == f.failOn {
		return errBoom
	}
	return nil
}

func (f *failingStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *failingStore) UpdateSpace(ctx context.Context, spaceID string, upd models.SpaceUpdate) error {
	if err := f.hit("UpdateSpace"); err != nil {
		return err
	}
	return f.DatabaseInterface.UpdateSpace(ctx, spaceID, upd)
}

func (f *failingStore) AddSpaceMembers(ctx context.Context, members []models.SpaceMember) error {
	if err := f.hit("AddSpaceMembers"); err != nil {
		return err
	}
	return f.DatabaseInterface.AddSpaceMembers(ctx, members)
}

func (f *failingStore) DeleteSpaceMembersByNickname(ctx context.Context, spaceID string, nicknames []string) error {
	if err := f.hit("DeleteSpaceMembersByNickname"); err != nil {
		return err
	}
	return f.DatabaseInterface.DeleteSpaceMembersByNickname(ctx, spaceID, nicknames)
}

func (f *failingStore) ListGoalsBySpace(ctx context.Context, spaceID string) ([]models.Goal, error) {
	if err := f.hit("ListGoalsBySpace"); err != nil {
		return nil, err
	}
	return f.DatabaseInterface.ListGoalsBySpace(ctx, spaceID)
}

func (f *failingStore) UpdateGoal(ctx context.Context, goalID string, upd models.GoalUpdate) error {
	if err := f.hit("UpdateGoal"); err != nil {
		return err
	}
	return f.DatabaseInterface.UpdateGoal(ctx, goalID, upd)
}

func (f *failingStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := f.hit("CreateComment"); err != nil {
		return err
	}
	return f.DatabaseInterface.CreateComment(ctx, c)
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != field {
		t.Errorf("expected field %q, got %q (%v)", field, verr.Field, verr)
	}
}
