package services

import (
	"context"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/models"
)

// CommentService appends and lists comments and reactions of a goal.
type CommentService struct {
	db database.DatabaseInterface
	rt runtime
}

func NewCommentService(db database.DatabaseInterface, opts ...Option) *CommentService {
	return &CommentService{db: db, rt: newRuntime(opts)}
}

func (s *CommentService) requireGoal(ctx context.Context, goalID string) error {
	if _, err := s.db.GetGoalByID(ctx, goalID); err != nil {
		return lookupErr("goal", goalID, err)
	}
	return nil
}

func (s *CommentService) AddComment(ctx context.Context, goalID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if err := validateAuthored(req.Author, "body", req.Body, 1, maxBodyLen); err != nil {
		return nil, err
	}
	if err := s.requireGoal(ctx, goalID); err != nil {
		return nil, err
	}

	c := &models.Comment{
		ID:        s.rt.newID(),
		GoalID:    goalID,
		Author:    req.Author,
		Body:      req.Body,
		CreatedAt: s.rt.timestamp(),
	}
	if err := s.db.CreateComment(ctx, c); err != nil {
		return nil, &StorageError{Op: "create comment", Err: err}
	}
	return c, nil
}

// ListComments returns comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, goalID string) ([]models.Comment, error) {
	list, err := s.db.ListCommentsByGoal(ctx, goalID)
	if err != nil {
		return nil, &StorageError{Op: "list comments", Err: err}
	}
	return list, nil
}

func (s *CommentService) AddReaction(ctx context.Context, goalID string, req models.CreateReactionRequest) (*models.Reaction, error) {
	if err := validateAuthored(req.Author, "emoji", req.Emoji, 1, maxEmojiLen); err != nil {
		return nil, err
	}
	if err := s.requireGoal(ctx, goalID); err != nil {
		return nil, err
	}

	r := &models.Reaction{
		ID:        s.rt.newID(),
		GoalID:    goalID,
		Author:    req.Author,
		Emoji:     req.Emoji,
		CreatedAt: s.rt.timestamp(),
	}
	if err := s.db.CreateReaction(ctx, r); err != nil {
		return nil, &StorageError{Op: "create reaction", Err: err}
	}
	return r, nil
}

// ListReactions returns reactions oldest first.
func (s *CommentService) ListReactions(ctx context.Context, goalID string) ([]models.Reaction, error) {
	list, err := s.db.ListReactionsByGoal(ctx, goalID)
	if err != nil {
		return nil, &StorageError{Op: "list reactions", Err: err}
	}
	return list, nil
}
