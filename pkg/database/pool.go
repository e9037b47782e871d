package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"todolis-backend/pkg/models"
)

// Pool 数据库连接池
// Pool lazily opens the configured backend and reopens it when it has been idle
// longer than maxIdle and then fails a health check. It implements
// DatabaseInterface itself so services keep a stable handle across reconnects.
type Pool struct {
	config   DatabaseConfig
	open     func(context.Context, DatabaseConfig) (DatabaseInterface, error)
	maxIdle  time.Duration
	mu       sync.Mutex
	instance DatabaseInterface
	lastUsed time.Time
}

// NewPool builds a pool that opens connections with NewDatabase.
func NewPool(config DatabaseConfig) *Pool {
	return &Pool{config: config, open: NewDatabase, maxIdle: time.Minute}
}

func (p *Pool) get(ctx context.Context) (DatabaseInterface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.instance != nil && time.Since(p.lastUsed) > p.maxIdle {
		if err := p.instance.HealthCheck(ctx); err != nil {
			fmt.Printf("❌ Database health check failed, recreating: %v\n", err)
			p.instance.Close()
			p.instance = nil
		}
	}

	if p.instance == nil {
		fmt.Printf("🔄 Creating new database connection\n")
		db, err := p.open(ctx, p.config)
		if err != nil {
			return nil, err
		}
		p.instance = db
	}
	p.lastUsed = time.Now()
	return p.instance, nil
}

// Stats 获取连接池统计信息
func (p *Pool) Stats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := map[string]interface{}{
		"use_local_db": p.config.UseLocalDB,
		"has_postgres": p.config.PostgresDSN != "",
		"has_supabase": p.config.SupabaseURL != "",
		"vercel":       isVercelEnvironment(),
	}
	if p.instance == nil {
		stats["status"] = "no_connection"
		return stats
	}
	stats["status"] = "connected"
	stats["last_used"] = p.lastUsed.Format(time.RFC3339)
	stats["idle"] = time.Since(p.lastUsed).String()
	return stats
}

func (p *Pool) CreateSpace(ctx context.Context, space *models.Space) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.CreateSpace(ctx, space)
}

func (p *Pool) GetSpaceByID(ctx context.Context, spaceID string) (*models.Space, error) {
	db, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return db.GetSpaceByID(ctx, spaceID)
}

func (p *Pool) UpdateSpace(ctx context.Context, spaceID string, upd models.SpaceUpdate) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.UpdateSpace(ctx, spaceID, upd)
}

func (p *Pool) ListSpaceMembers(ctx context.Context, spaceID string) ([]models.SpaceMember, error) {
	db, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return db.ListSpaceMembers(ctx, spaceID)
}

func (p *Pool) AddSpaceMembers(ctx context.Context, members []models.SpaceMember) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.AddSpaceMembers(ctx, members)
}

func (p *Pool) DeleteSpaceMembersByNickname(ctx context.Context, spaceID string, nicknames []string) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.DeleteSpaceMembersByNickname(ctx, spaceID, nicknames)
}

func (p *Pool) CreateGoal(ctx context.Context, goal *models.Goal) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.CreateGoal(ctx, goal)
}

func (p *Pool) GetGoalByID(ctx context.Context, goalID string) (*models.Goal, error) {
	db, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return db.GetGoalByID(ctx, goalID)
}

func (p *Pool) ListGoalsBySpace(ctx context.Context, spaceID string) ([]models.Goal, error) {
	db, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return db.ListGoalsBySpace(ctx, spaceID)
}

func (p *Pool) UpdateGoal(ctx context.Context, goalID string, upd models.GoalUpdate) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.UpdateGoal(ctx, goalID, upd)
}

func (p *Pool) CreateComment(ctx context.Context, c *models.Comment) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.CreateComment(ctx, c)
}

func (p *Pool) ListCommentsByGoal(ctx context.Context, goalID string) ([]models.Comment, error) {
	db, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return db.ListCommentsByGoal(ctx, goalID)
}

func (p *Pool) CreateReaction(ctx context.Context, r *models.Reaction) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.CreateReaction(ctx, r)
}

func (p *Pool) ListReactionsByGoal(ctx context.Context, goalID string) ([]models.Reaction, error) {
	db, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return db.ListReactionsByGoal(ctx, goalID)
}

func (p *Pool) HealthCheck(ctx context.Context) error {
	db, err := p.get(ctx)
	if err != nil {
		return err
	}
	return db.HealthCheck(ctx)
}

// Close 关闭连接
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.instance == nil {
		return nil
	}
	err := p.instance.Close()
	p.instance = nil
	return err
}
