package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"todolis-backend/pkg/models"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const (
	// DriverLibPQ selects github.com/lib/pq.
	DriverLibPQ = "postgres"
	// DriverPGX selects the database/sql adapter of github.com/jackc/pgx/v5.
	DriverPGX = "pgx"
)

// PostgresDatabase PostgreSQL数据库实现
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase opens a pool with the given database/sql driver name,
// tries a couple of connection strategies and applies pending migrations.
func NewPostgresDatabase(ctx context.Context, driver, dsn string) (*PostgresDatabase, error) {
	if driver == "" {
		driver = DriverLibPQ
	}
	if driver != DriverLibPQ && driver != DriverPGX {
		return nil, fmt.Errorf("unsupported postgres driver %q", driver)
	}

	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	strategies := []string{
		dsn,
		addConnectionParams(dsn, "connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&connect_timeout=10"),
	}

	var lastErr error
	for i, strategy := range strategies {
		fmt.Printf("🔄 Trying connection strategy %d...\n", i+1)

		db, err := sql.Open(driver, strategy)
		if err != nil {
			fmt.Printf("❌ Strategy %d failed to open: %v\n", i+1, err)
			lastErr = err
			continue
		}

		// 设置连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			fmt.Printf("❌ Strategy %d failed to ping: %v\n", i+1, err)
			db.Close()
			lastErr = err
			continue
		}

		if err := ApplyMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}

		fmt.Printf("✅ PostgreSQL connection established successfully with strategy %d\n", i+1)
		return &PostgresDatabase{db: db}, nil
	}

	return nil, fmt.Errorf("failed to connect to PostgreSQL with all strategies: %w", lastErr)
}

// NewPostgresDatabaseFromDB wraps an already opened pool.
func NewPostgresDatabaseFromDB(db *sql.DB) *PostgresDatabase {
	return &PostgresDatabase{db: db}
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + params
}

func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// jst renders a timestamptz column in the persisted string form.
func jst(col string) string {
	return fmt.Sprintf(`to_char(%s AT TIME ZONE 'Asia/Tokyo', 'YYYY-MM-DD HH24:MI:SS"+09"')`, col)
}

// ================= Spaces =================

func (db *PostgresDatabase) CreateSpace(ctx context.Context, space *models.Space) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO spaces (id, title, view_token, edit_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, space.ID, space.Title, space.ViewToken, space.EditToken, space.CreatedAt, space.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create space: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) GetSpaceByID(ctx context.Context, spaceID string) (*models.Space, error) {
	var s models.Space
	err := db.db.QueryRowContext(ctx, `
		SELECT id, title, view_token, edit_token, `+jst("created_at")+`, `+jst("updated_at")+`
		FROM spaces WHERE id = $1
	`, spaceID).Scan(&s.ID, &s.Title, &s.ViewToken, &s.EditToken, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return &s, nil
}

func (db *PostgresDatabase) UpdateSpace(ctx context.Context, spaceID string, upd models.SpaceUpdate) error {
	var title interface{}
	if upd.Title != nil {
		title = *upd.Title
	}
	_, err := db.db.ExecContext(ctx, `
		UPDATE spaces SET title = COALESCE($1, title), updated_at = $2 WHERE id = $3
	`, title, upd.UpdatedAt, spaceID)
	if err != nil {
		return fmt.Errorf("failed to update space: %w", err)
	}
	return nil
}

// ================= Members =================

func (db *PostgresDatabase) ListSpaceMembers(ctx context.Context, spaceID string) ([]models.SpaceMember, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, space_id, nickname, role, `+jst("created_at")+`
		FROM space_members WHERE space_id = $1 ORDER BY seq
	`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	result := []models.SpaceMember{}
	for rows.Next() {
		var m models.SpaceMember
		var role string
		if err := rows.Scan(&m.ID, &m.SpaceID, &m.Nickname, &role, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = models.MemberRole(role)
		result = append(result, m)
	}
	return result, rows.Err()
}

func (db *PostgresDatabase) AddSpaceMembers(ctx context.Context, members []models.SpaceMember) error {
	if len(members) == 0 {
		return nil
	}
	values := make([]string, 0, len(members))
	args := make([]interface{}, 0, len(members)*5)
	for i, m := range members {
		n := i * 5
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5))
		args = append(args, m.ID, m.SpaceID, m.Nickname, string(m.Role), m.CreatedAt)
	}
	query := "INSERT INTO space_members (id, space_id, nickname, role, created_at) VALUES " + strings.Join(values, ", ")
	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to add members: %w", ErrDuplicateMember)
		}
		return fmt.Errorf("failed to add members: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

// isUniqueViolation recognises SQLSTATE 23505 from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

func (db *PostgresDatabase) DeleteSpaceMembersByNickname(ctx context.Context, spaceID string, nicknames []string) error {
	if len(nicknames) == 0 {
		return nil
	}
	_, err := db.db.ExecContext(ctx, `
		DELETE FROM space_members WHERE space_id = $1 AND nickname = ANY($2)
	`, spaceID, pq.Array(nicknames))
	if err != nil {
		return fmt.Errorf("failed to delete members: %w", err)
	}
	return nil
}

// ================= Goals =================

var goalColumns = `id, space_id, title, COALESCE(detail, ''), COALESCE(assignee, ''),
	COALESCE(to_char(due_on, 'YYYY-MM-DD'), ''), status, tags, order_index, ` +
	jst("created_at") + `, ` + jst("updated_at") + `, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGoal(row rowScanner) (models.Goal, error) {
	var g models.Goal
	var status string
	err := row.Scan(&g.ID, &g.SpaceID, &g.Title, &g.Detail, &g.Assignee, &g.DueOn,
		&status, pq.Array(&g.Tags), &g.OrderIndex, &g.CreatedAt, &g.UpdatedAt, &g.Version)
	if g.Tags == nil {
		g.Tags = []string{}
	}
	g.Status = models.GoalStatus(status)
	return g, err
}

func (db *PostgresDatabase) CreateGoal(ctx context.Context, goal *models.Goal) error {
	tags := goal.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO goals (id, space_id, title, detail, assignee, due_on, status, tags, order_index, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, goal.ID, goal.SpaceID, goal.Title, goal.Detail, goal.Assignee, nullIfEmpty(goal.DueOn),
		string(goal.Status), pq.Array(tags), goal.OrderIndex, goal.CreatedAt, goal.UpdatedAt, goal.Version)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) GetGoalByID(ctx context.Context, goalID string) (*models.Goal, error) {
	g, err := scanGoal(db.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, goalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &g, nil
}

func (db *PostgresDatabase) ListGoalsBySpace(ctx context.Context, spaceID string) ([]models.Goal, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE space_id = $1 ORDER BY seq`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	result := []models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// UpdateGoal builds the SET clause from the non-nil fields of upd. The
// goals_bump_version trigger increments version on every row it touches.
func (db *PostgresDatabase) UpdateGoal(ctx context.Context, goalID string, upd models.GoalUpdate) error {
	setClauses := make([]string, 0, 7)
	args := make([]interface{}, 0, 9)
	idx := 1

	add := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s=$%d", col, idx))
		args = append(args, val)
		idx++
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Detail != nil {
		add("detail", *upd.Detail)
	}
	if upd.Assignee != nil {
		add("assignee", *upd.Assignee)
	}
	if upd.DueOn != nil {
		add("due_on", nullIfEmpty(*upd.DueOn))
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.Tags != nil {
		tags := *upd.Tags
		if tags == nil {
			tags = []string{}
		}
		add("tags", pq.Array(tags))
	}
	// Always bump updated_at
	add("updated_at", upd.UpdatedAt)

	where := fmt.Sprintf("id=$%d", idx)
	args = append(args, goalID)
	idx++
	if upd.ExpectedVersion != 0 {
		where += fmt.Sprintf(" AND version=$%d", idx)
		args = append(args, upd.ExpectedVersion)
	}

	query := fmt.Sprintf("UPDATE goals SET %s WHERE %s", strings.Join(setClauses, ", "), where)
	res, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if upd.ExpectedVersion != 0 {
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update goal: %w", err)
		}
		if n == 0 {
			return ErrConflict
		}
	}
	return nil
}

// ================= Comments & Reactions =================

func (db *PostgresDatabase) CreateComment(ctx context.Context, c *models.Comment) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO comments (id, goal_id, author, body, created_at) VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.GoalID, c.Author, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) ListCommentsByGoal(ctx context.Context, goalID string) ([]models.Comment, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, goal_id, author, body, `+jst("created_at")+`
		FROM comments WHERE goal_id = $1 ORDER BY created_at ASC, seq ASC
	`, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	result := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (db *PostgresDatabase) CreateReaction(ctx context.Context, r *models.Reaction) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO reactions (id, goal_id, author, emoji, created_at) VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.GoalID, r.Author, r.Emoji, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reaction: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) ListReactionsByGoal(ctx context.Context, goalID string) ([]models.Reaction, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, goal_id, author, emoji, `+jst("created_at")+`
		FROM reactions WHERE goal_id = $1 ORDER BY created_at ASC, seq ASC
	`, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer rows.Close()

	result := []models.Reaction{}
	for rows.Next() {
		var r models.Reaction
		if err := rows.Scan(&r.ID, &r.GoalID, &r.Author, &r.Emoji, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// HealthCheck 健康检查
func (db *PostgresDatabase) HealthCheck(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Close 关闭连接
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}
