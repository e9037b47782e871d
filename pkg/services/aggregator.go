package services

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"todolis-backend/pkg/database"
	"todolis-backend/pkg/models"

	"golang.org/x/sync/singleflight"
)

// SummaryCache stores computed summaries per space. Get returns a nil summary
// on a miss together with the space's generation; Invalidate advances the
// generation and Set ignores values computed under an older one.
type SummaryCache interface {
	Get(ctx context.Context, spaceID string) (*models.GoalSummary, int64, error)
	Set(ctx context.Context, spaceID string, gen int64, summary models.GoalSummary) error
	Invalidate(ctx context.Context, spaceID string) error
}

// summaryLoadTimeout bounds a shared load, which outlives the caller that started it.
const summaryLoadTimeout = 30 * time.Second

// Summarize partitions goals into done and todo. Any other status, doing and
// close included, is left out of both lists and every count.
func Summarize(spaceID string, goals []models.Goal) models.GoalSummary {
	s := models.GoalSummary{
		SpaceID:   spaceID,
		DoneTasks: []models.GoalDetail{},
		TodoTasks: []models.GoalDetail{},
	}
	for _, g := range goals {
		detail := models.GoalDetail{ID: g.ID, Title: g.Title, Detail: g.Detail, Assignee: g.Assignee, DueOn: g.DueOn}
		switch g.Status {
		case models.GoalDone:
			s.DoneTasks = append(s.DoneTasks, detail)
		case models.GoalTodo:
			s.TodoTasks = append(s.TodoTasks, detail)
		}
	}
	s.DoneCount = len(s.DoneTasks)
	s.TodoCount = len(s.TodoTasks)
	s.TotalCount = s.DoneCount + s.TodoCount
	s.AchievementRate = achievementRate(s.DoneCount, s.TotalCount)
	return s
}

// achievementRate is done/total as a percentage with two decimals, 0 for an empty total.
func achievementRate(done, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(done)/float64(total)*100*100) / 100
}

// GoalAggregator computes goal summaries, optionally through a cache.
type GoalAggregator struct {
	db    database.DatabaseInterface
	cache SummaryCache
	sf    singleflight.Group
}

// NewGoalAggregator creates a GoalAggregator. If cache is nil, caching is disabled.
func NewGoalAggregator(db database.DatabaseInterface, cache SummaryCache) *GoalAggregator {
	return &GoalAggregator{db: db, cache: cache}
}

// Summary returns the summary of spaceID, or *EmptyResultError when the space
// has no goals at all.
func (a *GoalAggregator) Summary(ctx context.Context, spaceID string) (models.GoalSummary, error) {
	if a.cache == nil {
		return a.load(ctx, spaceID)
	}

	v, err, _ := a.sf.Do(spaceID, func() (interface{}, error) {
		// 共享加载不随首个请求取消
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), summaryLoadTimeout)
		defer cancel()

		cached, gen, err := a.cache.Get(ctx, spaceID)
		cacheable := err == nil
		if err != nil {
			log.Printf("summary cache get %s: %v", spaceID, err)
		} else if cached != nil {
			return *cached, nil
		}
		summary, err := a.load(ctx, spaceID)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := a.cache.Set(ctx, spaceID, gen, summary); err != nil {
				log.Printf("summary cache set %s: %v", spaceID, err)
			}
		}
		return summary, nil
	})
	if err != nil {
		return models.GoalSummary{}, err
	}
	return v.(models.GoalSummary), nil
}

func (a *GoalAggregator) load(ctx context.Context, spaceID string) (models.GoalSummary, error) {
	goals, err := a.db.ListGoalsBySpace(ctx, spaceID)
	if err != nil {
		return models.GoalSummary{}, &StorageError{Op: "list goals", Err: err}
	}
	if len(goals) == 0 {
		return models.GoalSummary{}, &EmptyResultError{SpaceID: spaceID}
	}
	return Summarize(spaceID, goals), nil
}

// Progress is the compact view used by the space summary endpoint. A space
// without goals reports zeros.
func (a *GoalAggregator) Progress(ctx context.Context, spaceID string) (models.SpaceProgress, error) {
	s, err := a.Summary(ctx, spaceID)
	var empty *EmptyResultError
	if errors.As(err, &empty) {
		return models.SpaceProgress{}, nil
	}
	if err != nil {
		return models.SpaceProgress{}, err
	}
	return models.SpaceProgress{
		TotalGoals:     s.TotalCount,
		CompletedGoals: s.DoneCount,
		PendingGoals:   s.TodoCount,
		CompletionRate: s.AchievementRate,
	}, nil
}

// Invalidate drops the cached summary of spaceID and detaches any in-flight
// load, so later callers read the store again. Cache failures are logged only.
func (a *GoalAggregator) Invalidate(ctx context.Context, spaceID string) {
	if a.cache == nil {
		return
	}
	a.sf.Forget(spaceID)
	// runs even when the request was cancelled after the write
	if err := a.cache.Invalidate(context.WithoutCancel(ctx), spaceID); err != nil {
		log.Printf("summary cache invalidate %s: %v", spaceID, err)
	}
}
