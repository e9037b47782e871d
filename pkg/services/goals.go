package services

import (
	"context"
	"errors"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/models"
)

// GoalService creates, updates and closes goals.
type GoalService struct {
	db        database.DatabaseInterface
	summaries *GoalAggregator
	rt        runtime
}

func NewGoalService(db database.DatabaseInterface, summaries *GoalAggregator, opts ...Option) *GoalService {
	return &GoalService{db: db, summaries: summaries, rt: newRuntime(opts)}
}

// CreateGoal inserts a goal in todo with no tags and order index 0.
//
// The request fields are stored as given; update applies length checks but
// create historically never did, and callers rely on that.
func (s *GoalService) CreateGoal(ctx context.Context, spaceID string, req models.CreateGoalRequest) (*models.Goal, error) {
	if _, err := s.db.GetSpaceByID(ctx, spaceID); err != nil {
		return nil, lookupErr("space", spaceID, err)
	}

	now := s.rt.timestamp()
	goal := &models.Goal{
		ID:         s.rt.newID(),
		SpaceID:    spaceID,
		Title:      req.Title,
		Detail:     req.Detail,
		Assignee:   req.Assignee,
		DueOn:      req.DueOn,
		Status:     models.GoalTodo,
		Tags:       []string{},
		OrderIndex: 0,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
	if err := s.db.CreateGoal(ctx, goal); err != nil {
		return nil, &StorageError{Op: "create goal", Err: err}
	}
	s.summaries.Invalidate(ctx, spaceID)
	return goal, nil
}

// UpdateGoal validates the supplied fields, writes them with a fresh
// updated_at and returns the stored goal. A non-zero expectedVersion makes
// the write conditional; a lost race yields ErrConflict.
func (s *GoalService) UpdateGoal(ctx context.Context, goalID string, patch models.GoalPatch, expectedVersion int) (*models.Goal, error) {
	if err := validateGoalPatch(patch); err != nil {
		return nil, err
	}

	goal, err := s.db.GetGoalByID(ctx, goalID)
	if err != nil {
		return nil, lookupErr("goal", goalID, err)
	}

	upd := models.GoalUpdate{
		Title:           patch.Title,
		Detail:          patch.Detail,
		Assignee:        patch.Assignee,
		DueOn:           patch.DueOn,
		Status:          patch.Status,
		Tags:            patch.Tags,
		UpdatedAt:       s.rt.timestamp(),
		ExpectedVersion: expectedVersion,
	}
	if err := s.db.UpdateGoal(ctx, goalID, upd); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, &StorageError{Op: "update goal", Err: err}
	}
	s.summaries.Invalidate(ctx, goal.SpaceID)

	updated, err := s.db.GetGoalByID(ctx, goalID)
	if err != nil {
		return nil, lookupErr("goal", goalID, err)
	}
	return updated, nil
}

// CloseGoal moves an existing goal to close. Closing a closed goal rewrites
// the same status.
func (s *GoalService) CloseGoal(ctx context.Context, goalID string) error {
	goal, err := s.db.GetGoalByID(ctx, goalID)
	if err != nil {
		return lookupErr("goal", goalID, err)
	}

	closed := models.GoalClosed
	if err := s.db.UpdateGoal(ctx, goalID, models.GoalUpdate{Status: &closed, UpdatedAt: s.rt.timestamp()}); err != nil {
		return &StorageError{Op: "close goal", Err: err}
	}
	s.summaries.Invalidate(ctx, goal.SpaceID)
	return nil
}
