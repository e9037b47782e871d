package services

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/models"
)

func members(nicks ...string) []models.SpaceMember {
	out := make([]models.SpaceMember, len(nicks))
	for i, n := range nicks {
		out[i] = models.SpaceMember{ID: "m-" + n, SpaceID: "s1", Nickname: n, Role: models.RoleEditor}
	}
	return out
}

func insertedNicks(d MemberDelta) []string {
	out := []string{}
	for _, m := range d.Insert {
		out = append(out, m.Nickname)
	}
	return out
}

func TestPlanMembers(t *testing.T) {
	tests := []struct {
		name       string
		current    []models.SpaceMember
		add        []string
		remove     []string
		wantDelete []string
		wantInsert []string
	}{
		{"add new", members("ann"), []string{"bob"}, nil, nil, []string{"bob"}},
		{"add existing is skipped", members("ann"), []string{"ann"}, nil, nil, []string{}},
		{"duplicates collapse", nil, []string{"bob", "bob", "cat"}, nil, nil, []string{"bob", "cat"}},
		{"unknown removal ignored", members("ann"), nil, []string{"zed"}, nil, []string{}},
		{"remove present", members("ann", "bob"), nil, []string{"bob", "bob"}, []string{"bob"}, []string{}},
		{"both lists replaces", members("ann"), []string{"ann"}, []string{"ann"}, []string{"ann"}, []string{"ann"}},
		{"exact comparison", members("Ann"), []string{"ann"}, []string{"ANN"}, nil, []string{"ann"}},
		{"nothing to do", members("ann"), nil, nil, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := PlanMembers("s1", tt.current, tt.add, tt.remove, seqIDs(), "2024-04-01 09:00:00+09")
			if !reflect.DeepEqual(d.Delete, tt.wantDelete) {
				t.Errorf("Delete = %v, want %v", d.Delete, tt.wantDelete)
			}
			if got := insertedNicks(d); !reflect.DeepEqual(got, tt.wantInsert) {
				t.Errorf("Insert = %v, want %v", got, tt.wantInsert)
			}
			for _, m := range d.Insert {
				if m.Role != models.RoleEditor || m.SpaceID != "s1" || m.ID == "" {
					t.Errorf("unexpected inserted member %+v", m)
				}
			}
		})
	}
}

func TestReconcileReplacesMemberWithNewID(t *testing.T) {
	db := newLocalDB(t)
	svc := newTestServices(t, db, nil)
	space := seedSpace(t, svc, "ann", "bob")
	ctx := context.Background()

	before, _ := db.ListSpaceMembers(ctx, space.SpaceID)
	var annID string
	for _, m := range before {
		if m.Nickname == "ann" {
			annID = m.ID
		}
	}

	got, delta, err := svc.Members.Reconcile(ctx, space.SpaceID, []string{"ann", "cat"}, []string{"ann", "zed"})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !reflect.DeepEqual(delta.Delete, []string{"ann"}) {
		t.Errorf("unexpected delete set %v", delta.Delete)
	}

	nicks := []string{}
	for _, m := range got {
		nicks = append(nicks, m.Nickname)
		if m.Nickname == "ann" && m.ID == annID {
			t.Error("ann should have been replaced with a new id")
		}
	}
	sort.Strings(nicks)
	if !reflect.DeepEqual(nicks, []string{"ann", "bob", "cat"}) {
		t.Errorf("unexpected membership %v", nicks)
	}
}

func TestReconcileInsertFailureLeavesDeleteApplied(t *testing.T) {
	local := newLocalDB(t)
	seeder := newTestServices(t, local, nil)
	space := seedSpace(t, seeder, "ann", "bob")

	store := newFailingStore(local, "AddSpaceMembers")
	svc := newTestServices(t, store, nil)

	_, _, err := svc.Members.Reconcile(context.Background(), space.SpaceID, []string{"cat"}, []string{"bob"})
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Op != "insert members" {
		t.Fatalf("expected insert StorageError, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Error("StorageError should unwrap to the store failure")
	}

	left, _ := local.ListSpaceMembers(context.Background(), space.SpaceID)
	if len(left) != 1 || left[0].Nickname != "ann" {
		t.Errorf("expected only ann after partial failure, got %+v", left)
	}
}

func TestReconcileNoopSkipsWrites(t *testing.T) {
	local := newLocalDB(t)
	space := seedSpace(t, newTestServices(t, local, nil), "ann")
	store := newFailingStore(local, "")
	svc := newTestServices(t, store, nil)

	got, delta, err := svc.Members.Reconcile(context.Background(), space.SpaceID, []string{"ann"}, []string{"zed"})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !delta.Empty() || len(got) != 1 {
		t.Errorf("expected empty delta and unchanged membership, got %+v %+v", delta, got)
	}
	if store.count("DeleteSpaceMembersByNickname")+store.count("AddSpaceMembers") != 0 {
		t.Error("no-op reconciliation must not write")
	}
}

// staleMembersStore serves the membership as it was before another request
// added "cat", so the planner believes cat is still free.
type staleMembersStore struct {
	*database.LocalDatabase
	stale []models.SpaceMember
	once  sync.Once
}

func (s *staleMembersStore) ListSpaceMembers(ctx context.Context, spaceID string) ([]models.SpaceMember, error) {
	var out []models.SpaceMember
	served := false
	s.once.Do(func() { out, served = s.stale, true })
	if served {
		return out, nil
	}
	return s.LocalDatabase.ListSpaceMembers(ctx, spaceID)
}

func TestReconcileConcurrentAddConflicts(t *testing.T) {
	local := newLocalDB(t)
	space := seedSpace(t, newTestServices(t, local, nil), "ann")
	ctx := context.Background()

	before, _ := local.ListSpaceMembers(ctx, space.SpaceID)
	if _, _, err := newTestServices(t, local, nil).Members.Reconcile(ctx, space.SpaceID, []string{"cat"}, nil); err != nil {
		t.Fatalf("first Reconcile failed: %v", err)
	}

	store := &staleMembersStore{LocalDatabase: local, stale: before}
	_, _, err := newTestServices(t, store, nil).Members.Reconcile(ctx, space.SpaceID, []string{"cat"}, nil)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	after, _ := local.ListSpaceMembers(ctx, space.SpaceID)
	cats := 0
	for _, m := range after {
		if m.Nickname == "cat" {
			cats++
		}
	}
	if cats != 1 {
		t.Errorf("expected one cat, got %+v", after)
	}
}
