package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"todolis-backend/pkg/models"
)

// LocalDatabase 本地数据库实现
// Tables live in memory in insertion order. When dataDir is set every write
// is flushed to dataDir/todolis.json and the file is loaded on start.
type LocalDatabase struct {
	mu      sync.RWMutex
	dataDir string
	tables  localTables
}

type localTables struct {
	Spaces    []models.Space       `json:"spaces"`
	Members   []models.SpaceMember `json:"space_members"`
	Goals     []models.Goal        `json:"goals"`
	Comments  []models.Comment     `json:"comments"`
	Reactions []models.Reaction    `json:"reactions"`
}

// NewLocalDatabase 创建本地数据库实例. An empty dataDir keeps everything in memory.
func NewLocalDatabase(dataDir string) (*LocalDatabase, error) {
	db := &LocalDatabase{dataDir: dataDir}
	if dataDir == "" {
		return db, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Printf("Warning: Failed to create data directory: %v\n", err)
		// 在只读文件系统中，使用临时目录
		db.dataDir = filepath.Join(os.TempDir(), "todolis-data")
		if err := os.MkdirAll(db.dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create local data directory: %w", err)
		}
	}

	if err := db.load(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *LocalDatabase) filePath() string {
	return filepath.Join(db.dataDir, "todolis.json")
}

func (db *LocalDatabase) load() error {
	data, err := os.ReadFile(db.filePath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &db.tables); err != nil {
		return err
	}
	// files written before goals were versioned
	for i := range db.tables.Goals {
		if db.tables.Goals[i].Version == 0 {
			db.tables.Goals[i].Version = 1
		}
	}
	return nil
}

// flush must be called with mu held for writing.
func (db *LocalDatabase) flush() error {
	if db.dataDir == "" {
		return nil
	}
	data, err := json.MarshalIndent(db.tables, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(db.filePath(), data, 0644)
}

func cloneGoal(g models.Goal) models.Goal {
	tags := make([]string, len(g.Tags))
	copy(tags, g.Tags)
	g.Tags = tags
	return g
}

// ================= Spaces =================

func (db *LocalDatabase) CreateSpace(ctx context.Context, space *models.Space) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, s := range db.tables.Spaces {
		if s.ID == space.ID {
			return fmt.Errorf("space %s already exists", space.ID)
		}
	}
	db.tables.Spaces = append(db.tables.Spaces, *space)
	return db.flush()
}

func (db *LocalDatabase) GetSpaceByID(ctx context.Context, spaceID string) (*models.Space, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, s := range db.tables.Spaces {
		if s.ID == spaceID {
			s := s
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (db *LocalDatabase) UpdateSpace(ctx context.Context, spaceID string, upd models.SpaceUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.tables.Spaces {
		if db.tables.Spaces[i].ID != spaceID {
			continue
		}
		if upd.Title != nil {
			db.tables.Spaces[i].Title = *upd.Title
		}
		db.tables.Spaces[i].UpdatedAt = upd.UpdatedAt
	}
	return db.flush()
}

// ================= Members =================

func (db *LocalDatabase) ListSpaceMembers(ctx context.Context, spaceID string) ([]models.SpaceMember, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := []models.SpaceMember{}
	for _, m := range db.tables.Members {
		if m.SpaceID == spaceID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (db *LocalDatabase) AddSpaceMembers(ctx context.Context, members []models.SpaceMember) error {
	if len(members) == 0 {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	// (space_id, nickname) 唯一；整批失败，不做部分插入
	taken := make(map[[2]string]struct{}, len(db.tables.Members)+len(members))
	for _, m := range db.tables.Members {
		taken[[2]string{m.SpaceID, m.Nickname}] = struct{}{}
	}
	for _, m := range members {
		key := [2]string{m.SpaceID, m.Nickname}
		if _, ok := taken[key]; ok {
			return fmt.Errorf("member %q in space %s: %w", m.Nickname, m.SpaceID, ErrDuplicateMember)
		}
		taken[key] = struct{}{}
	}
	db.tables.Members = append(db.tables.Members, members...)
	return db.flush()
}

func (db *LocalDatabase) DeleteSpaceMembersByNickname(ctx context.Context, spaceID string, nicknames []string) error {
	if len(nicknames) == 0 {
		return nil
	}
	remove := make(map[string]struct{}, len(nicknames))
	for _, n := range nicknames {
		remove[n] = struct{}{}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	kept := db.tables.Members[:0]
	for _, m := range db.tables.Members {
		if _, ok := remove[m.Nickname]; ok && m.SpaceID == spaceID {
			continue
		}
		kept = append(kept, m)
	}
	db.tables.Members = kept
	return db.flush()
}

// ================= Goals =================

func (db *LocalDatabase) CreateGoal(ctx context.Context, goal *models.Goal) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables.Goals = append(db.tables.Goals, cloneGoal(*goal))
	return db.flush()
}

func (db *LocalDatabase) GetGoalByID(ctx context.Context, goalID string) (*models.Goal, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, g := range db.tables.Goals {
		if g.ID == goalID {
			g = cloneGoal(g)
			return &g, nil
		}
	}
	return nil, ErrNotFound
}

func (db *LocalDatabase) ListGoalsBySpace(ctx context.Context, spaceID string) ([]models.Goal, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := []models.Goal{}
	for _, g := range db.tables.Goals {
		if g.SpaceID == spaceID {
			result = append(result, cloneGoal(g))
		}
	}
	return result, nil
}

func (db *LocalDatabase) UpdateGoal(ctx context.Context, goalID string, upd models.GoalUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.tables.Goals {
		g := &db.tables.Goals[i]
		if g.ID != goalID {
			continue
		}
		if upd.ExpectedVersion != 0 && g.Version != upd.ExpectedVersion {
			return ErrConflict
		}
		if upd.Title != nil {
			g.Title = *upd.Title
		}
		if upd.Detail != nil {
			g.Detail = *upd.Detail
		}
		if upd.Assignee != nil {
			g.Assignee = *upd.Assignee
		}
		if upd.DueOn != nil {
			g.DueOn = *upd.DueOn
		}
		if upd.Status != nil {
			g.Status = *upd.Status
		}
		if upd.Tags != nil {
			g.Tags = append([]string{}, (*upd.Tags)...)
		}
		g.UpdatedAt = upd.UpdatedAt
		g.Version++
		return db.flush()
	}
	if upd.ExpectedVersion != 0 {
		return ErrConflict
	}
	return nil
}

// ================= Comments & Reactions =================

func (db *LocalDatabase) CreateComment(ctx context.Context, c *models.Comment) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables.Comments = append(db.tables.Comments, *c)
	return db.flush()
}

func (db *LocalDatabase) ListCommentsByGoal(ctx context.Context, goalID string) ([]models.Comment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := []models.Comment{}
	for _, c := range db.tables.Comments {
		if c.GoalID == goalID {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt < result[j].CreatedAt })
	return result, nil
}

func (db *LocalDatabase) CreateReaction(ctx context.Context, r *models.Reaction) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables.Reactions = append(db.tables.Reactions, *r)
	return db.flush()
}

func (db *LocalDatabase) ListReactionsByGoal(ctx context.Context, goalID string) ([]models.Reaction, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := []models.Reaction{}
	for _, r := range db.tables.Reactions {
		if r.GoalID == goalID {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt < result[j].CreatedAt })
	return result, nil
}

// HealthCheck 健康检查
func (db *LocalDatabase) HealthCheck(ctx context.Context) error {
	return nil
}

// Close flushes once more so nothing is lost on shutdown.
func (db *LocalDatabase) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.flush()
}
