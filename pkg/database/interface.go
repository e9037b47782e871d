package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"todolis-backend/pkg/models"
)

var (
	// ErrNotFound is returned by single-row lookups that matched nothing.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by a conditional goal update whose expected
	// version no longer matches the stored row.
	ErrConflict = errors.New("record was modified concurrently")

	// ErrDuplicateMember is returned when a nickname is already taken in a space.
	ErrDuplicateMember = errors.New("nickname already taken in space")
)

// DatabaseInterface 定义数据库访问接口
// One method group per table: spaces, space_members, goals, comments, reactions.
type DatabaseInterface interface {
	// Spaces
	CreateSpace(ctx context.Context, space *models.Space) error
	GetSpaceByID(ctx context.Context, spaceID string) (*models.Space, error)
	UpdateSpace(ctx context.Context, spaceID string, upd models.SpaceUpdate) error

	// Space members
	ListSpaceMembers(ctx context.Context, spaceID string) ([]models.SpaceMember, error)
	// AddSpaceMembers inserts all rows in one batch. An empty slice is a no-op.
	// Nicknames are unique per space; a clash fails the whole batch.
	AddSpaceMembers(ctx context.Context, members []models.SpaceMember) error
	// DeleteSpaceMembersByNickname deletes by set membership; unknown nicknames are ignored.
	DeleteSpaceMembersByNickname(ctx context.Context, spaceID string, nicknames []string) error

	// Goals
	CreateGoal(ctx context.Context, goal *models.Goal) error
	GetGoalByID(ctx context.Context, goalID string) (*models.Goal, error)
	// ListGoalsBySpace returns goals in storage order.
	ListGoalsBySpace(ctx context.Context, spaceID string) ([]models.Goal, error)
	UpdateGoal(ctx context.Context, goalID string, upd models.GoalUpdate) error

	// Comments & reactions, listed by created_at ascending
	CreateComment(ctx context.Context, c *models.Comment) error
	ListCommentsByGoal(ctx context.Context, goalID string) ([]models.Comment, error)
	CreateReaction(ctx context.Context, r *models.Reaction) error
	ListReactionsByGoal(ctx context.Context, goalID string) ([]models.Reaction, error)

	// 健康检查
	HealthCheck(ctx context.Context) error

	// 关闭连接
	Close() error
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	UseLocalDB     bool
	LocalDataDir   string
	PostgresDSN    string
	PostgresDriver string
	SupabaseURL    string
	SupabaseKey    string
	Debug          bool
}

// NewDatabase 根据环境与配置选择数据库实现
// Order: local (when requested) > Vercel prefers Supabase > PostgreSQL > Supabase.
func NewDatabase(ctx context.Context, config DatabaseConfig) (DatabaseInterface, error) {
	if config.UseLocalDB {
		fmt.Printf("📁  Using local database (dir=%q)\n", config.LocalDataDir)
		return NewLocalDatabase(config.LocalDataDir)
	}

	if isVercelEnvironment() {
		fmt.Printf("🧭 Detected Vercel environment\n")

		// Vercel 优先使用 Supabase（避免 IPv6）
		if config.SupabaseURL != "" && config.SupabaseKey != "" {
			fmt.Printf("🚀  Using Supabase REST API (Vercel optimized)\n")
			return NewSupabaseDatabase(config.SupabaseURL, config.SupabaseKey, config.Debug), nil
		}
		if config.PostgresDSN != "" {
			fmt.Printf("🌐  Using PostgreSQL in Vercel (may have IPv6 issues)\n")
			return NewPostgresDatabase(ctx, config.PostgresDriver, config.PostgresDSN)
		}
		return nil, fmt.Errorf("no valid database configured for Vercel environment: set SUPABASE_URL+SUPABASE_SERVICE_KEY or POSTGRES_DSN")
	}

	if config.PostgresDSN != "" {
		fmt.Printf("🗄️  Using PostgreSQL database (driver=%s)\n", config.PostgresDriver)
		return NewPostgresDatabase(ctx, config.PostgresDriver, config.PostgresDSN)
	}

	if config.SupabaseURL != "" && config.SupabaseKey != "" {
		fmt.Printf("🧰  Using Supabase REST API\n")
		return NewSupabaseDatabase(config.SupabaseURL, config.SupabaseKey, config.Debug), nil
	}

	return nil, fmt.Errorf("no valid database configuration found: configure USE_LOCAL_DB, POSTGRES_DSN or SUPABASE_URL+SUPABASE_SERVICE_KEY")
}

// IsVercelEnvironment reports whether the process runs as a Vercel/Lambda function.
func IsVercelEnvironment() bool {
	return isVercelEnvironment()
}

func isVercelEnvironment() bool {
	vercelEnv := os.Getenv("VERCEL_ENV")
	vercelURL := os.Getenv("VERCEL_URL")
	awsLambda := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	return vercelEnv != "" || vercelURL != "" || awsLambda != ""
}
