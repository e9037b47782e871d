// Package services holds the domain logic of spaces, goals, comments and
// reactions. Every service receives its store explicitly; nothing here keeps
// package-level state.
package services

import (
	"time"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/utils"
)

// Option configures the clock and id source shared by the services.
type Option func(*runtime)

type runtime struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(rt *runtime) { rt.now = now }
}

// WithIDGenerator replaces the uuid generator for ids and tokens.
func WithIDGenerator(gen func() string) Option {
	return func(rt *runtime) { rt.newID = gen }
}

func newRuntime(opts []Option) runtime {
	rt := runtime{now: time.Now, newID: utils.NewID}
	for _, opt := range opts {
		opt(&rt)
	}
	return rt
}

func (rt runtime) timestamp() string {
	return utils.FormatTimestamp(rt.now())
}

// Services bundles every component wired to one store.
type Services struct {
	Auth      *Authorizer
	Members   *MemberReconciler
	Summaries *GoalAggregator
	Spaces    *SpaceService
	Goals     *GoalService
	Comments  *CommentService
}

// New wires all services. cache may be nil.
func New(db database.DatabaseInterface, cache SummaryCache, opts ...Option) *Services {
	auth := NewAuthorizer(db)
	members := NewMemberReconciler(db, opts...)
	summaries := NewGoalAggregator(db, cache)
	return &Services{
		Auth:      auth,
		Members:   members,
		Summaries: summaries,
		Spaces:    NewSpaceService(db, auth, members, opts...),
		Goals:     NewGoalService(db, summaries, opts...),
		Comments:  NewCommentService(db, opts...),
	}
}
