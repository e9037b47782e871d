package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"todolis-backend/pkg/models"
)

// SupabaseDatabase talks to the PostgREST endpoint of a Supabase project.
type SupabaseDatabase struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	debug      bool
}

// NewSupabaseDatabase 创建Supabase数据库实例
func NewSupabaseDatabase(baseURL, key string, debug bool) *SupabaseDatabase {
	// 确保URL格式正确
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}

	return &SupabaseDatabase{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		debug: debug,
	}
}

// makeRequest 发送HTTP请求到Supabase
func (db *SupabaseDatabase) makeRequest(ctx context.Context, method, table string, query url.Values, body interface{}) ([]byte, error) {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	endpoint := db.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", db.apiKey)
	req.Header.Set("Authorization", "Bearer "+db.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	if db.debug {
		fmt.Printf("🔎 Supabase %s /%s?%s\n", method, table, query.Encode())
	}

	resp, err := db.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("supabase %s %s failed with status %d: %s", method, table, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// selectRows runs a GET and decodes the JSON array into dst.
func (db *SupabaseDatabase) selectRows(ctx context.Context, table string, query url.Values, dst interface{}) error {
	if query.Get("select") == "" {
		query.Set("select", "*")
	}
	data, err := db.makeRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}

func eq(v string) string { return "eq." + v }

// in builds a PostgREST set-membership filter, quoting every value so that
// commas, parentheses and quotes inside nicknames survive.
func in(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		quoted[i] = `"` + v + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// ================= Spaces =================

func (db *SupabaseDatabase) CreateSpace(ctx context.Context, space *models.Space) error {
	_, err := db.makeRequest(ctx, http.MethodPost, "spaces", nil, []*models.Space{space})
	return err
}

func (db *SupabaseDatabase) GetSpaceByID(ctx context.Context, spaceID string) (*models.Space, error) {
	var rows []models.Space
	q := url.Values{"id": {eq(spaceID)}, "limit": {"1"}}
	if err := db.selectRows(ctx, "spaces", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (db *SupabaseDatabase) UpdateSpace(ctx context.Context, spaceID string, upd models.SpaceUpdate) error {
	payload := map[string]interface{}{"updated_at": upd.UpdatedAt}
	if upd.Title != nil {
		payload["title"] = *upd.Title
	}
	_, err := db.makeRequest(ctx, http.MethodPatch, "spaces", url.Values{"id": {eq(spaceID)}}, payload)
	return err
}

// ================= Members =================

func (db *SupabaseDatabase) ListSpaceMembers(ctx context.Context, spaceID string) ([]models.SpaceMember, error) {
	rows := []models.SpaceMember{}
	if err := db.selectRows(ctx, "space_members", url.Values{"space_id": {eq(spaceID)}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (db *SupabaseDatabase) AddSpaceMembers(ctx context.Context, members []models.SpaceMember) error {
	if len(members) == 0 {
		return nil
	}
	_, err := db.makeRequest(ctx, http.MethodPost, "space_members", nil, members)
	return err
}

func (db *SupabaseDatabase) DeleteSpaceMembersByNickname(ctx context.Context, spaceID string, nicknames []string) error {
	if len(nicknames) == 0 {
		return nil
	}
	q := url.Values{"space_id": {eq(spaceID)}, "nickname": {in(nicknames)}}
	_, err := db.makeRequest(ctx, http.MethodDelete, "space_members", q, nil)
	return err
}

// ================= Goals =================

func goalPayload(g *models.Goal) map[string]interface{} {
	tags := g.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"id":          g.ID,
		"space_id":    g.SpaceID,
		"title":       g.Title,
		"detail":      g.Detail,
		"assignee":    g.Assignee,
		"due_on":      nullIfEmpty(g.DueOn),
		"status":      string(g.Status),
		"tags":        tags,
		"order_index": g.OrderIndex,
		"created_at":  g.CreatedAt,
		"updated_at":  g.UpdatedAt,
		"version":     g.Version,
	}
}

func (db *SupabaseDatabase) CreateGoal(ctx context.Context, goal *models.Goal) error {
	_, err := db.makeRequest(ctx, http.MethodPost, "goals", nil, goalPayload(goal))
	return err
}

func (db *SupabaseDatabase) GetGoalByID(ctx context.Context, goalID string) (*models.Goal, error) {
	var rows []models.Goal
	q := url.Values{"id": {eq(goalID)}, "limit": {"1"}}
	if err := db.selectRows(ctx, "goals", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (db *SupabaseDatabase) ListGoalsBySpace(ctx context.Context, spaceID string) ([]models.Goal, error) {
	rows := []models.Goal{}
	if err := db.selectRows(ctx, "goals", url.Values{"space_id": {eq(spaceID)}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (db *SupabaseDatabase) UpdateGoal(ctx context.Context, goalID string, upd models.GoalUpdate) error {
	payload := map[string]interface{}{"updated_at": upd.UpdatedAt}
	if upd.Title != nil {
		payload["title"] = *upd.Title
	}
	if upd.Detail != nil {
		payload["detail"] = *upd.Detail
	}
	if upd.Assignee != nil {
		payload["assignee"] = *upd.Assignee
	}
	if upd.DueOn != nil {
		payload["due_on"] = nullIfEmpty(*upd.DueOn)
	}
	if upd.Status != nil {
		payload["status"] = string(*upd.Status)
	}
	if upd.Tags != nil {
		tags := *upd.Tags
		if tags == nil {
			tags = []string{}
		}
		payload["tags"] = tags
	}

	// version 由 goals_bump_version 触发器递增
	q := url.Values{"id": {eq(goalID)}}
	if upd.ExpectedVersion != 0 {
		q.Set("version", eq(strconv.Itoa(upd.ExpectedVersion)))
	}
	data, err := db.makeRequest(ctx, http.MethodPatch, "goals", q, payload)
	if err != nil {
		return err
	}
	if upd.ExpectedVersion != 0 {
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("failed to decode goals rows: %w", err)
		}
		if len(rows) == 0 {
			return ErrConflict
		}
	}
	return nil
}

// ================= Comments & Reactions =================

func (db *SupabaseDatabase) CreateComment(ctx context.Context, c *models.Comment) error {
	_, err := db.makeRequest(ctx, http.MethodPost, "comments", nil, c)
	return err
}

func (db *SupabaseDatabase) ListCommentsByGoal(ctx context.Context, goalID string) ([]models.Comment, error) {
	rows := []models.Comment{}
	q := url.Values{"goal_id": {eq(goalID)}, "order": {"created_at.asc"}}
	if err := db.selectRows(ctx, "comments", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (db *SupabaseDatabase) CreateReaction(ctx context.Context, r *models.Reaction) error {
	_, err := db.makeRequest(ctx, http.MethodPost, "reactions", nil, []*models.Reaction{r})
	return err
}

func (db *SupabaseDatabase) ListReactionsByGoal(ctx context.Context, goalID string) ([]models.Reaction, error) {
	rows := []models.Reaction{}
	q := url.Values{"goal_id": {eq(goalID)}, "order": {"created_at.asc"}}
	if err := db.selectRows(ctx, "reactions", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// HealthCheck 健康检查
func (db *SupabaseDatabase) HealthCheck(ctx context.Context) error {
	_, err := db.makeRequest(ctx, http.MethodGet, "spaces", url.Values{"select": {"id"}, "limit": {"1"}}, nil)
	return err
}

// Close 关闭连接（HTTP客户端无需关闭）
func (db *SupabaseDatabase) Close() error {
	return nil
}
