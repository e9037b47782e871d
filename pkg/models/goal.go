package models

type GoalStatus string

const (
	GoalTodo  GoalStatus = "todo"
	GoalDoing GoalStatus = "doing"
	GoalDone  GoalStatus = "done"
	// GoalClosed is terminal and only reachable through close.
	GoalClosed GoalStatus = "close"
)

// Goal is a task owned by a space.
type Goal struct {
	ID         string     `json:"id" db:"id"`
	SpaceID    string     `json:"space_id" db:"space_id"`
	Title      string     `json:"title" db:"title"`
	Detail     string     `json:"detail" db:"detail"`
	Assignee   string     `json:"assignee" db:"assignee"`
	DueOn      string     `json:"due_on" db:"due_on"`
	Status     GoalStatus `json:"status" db:"status"`
	Tags       []string   `json:"tags" db:"tags"`
	OrderIndex int        `json:"order_index" db:"order_index"`
	CreatedAt  string     `json:"created_at" db:"created_at"`
	UpdatedAt  string     `json:"updated_at" db:"updated_at"`
	// Version starts at 1 and grows by one on every stored update.
	Version int `json:"version" db:"version"`
}

// CreateGoalRequest POST /api/spaces/{space_id}/goals
type CreateGoalRequest struct {
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Assignee string `json:"assignee"`
	DueOn    string `json:"due_on"`
}

// GoalPatch is the caller-facing partial update. Nil means "leave as is".
type GoalPatch struct {
	Title    *string     `json:"title,omitempty"`
	Detail   *string     `json:"detail,omitempty"`
	Assignee *string     `json:"assignee,omitempty"`
	DueOn    *string     `json:"due_on,omitempty"`
	Status   *GoalStatus `json:"status,omitempty"`
	Tags     *[]string   `json:"tags,omitempty"`
}

// GoalUpdate is the validated record written to the goals table.
// When ExpectedVersion is non-zero the write only applies if the stored
// version still equals it.
type GoalUpdate struct {
	Title           *string
	Detail          *string
	Assignee        *string
	DueOn           *string
	Status          *GoalStatus
	Tags            *[]string
	UpdatedAt       string
	ExpectedVersion int
}

// GoalDetail is the projection used inside a GoalSummary.
type GoalDetail struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Assignee string `json:"assignee"`
	DueOn    string `json:"due_on"`
}

// GoalSummary GET /api/goals/list/{space_id}
type GoalSummary struct {
	SpaceID         string       `json:"space_id"`
	TotalCount      int          `json:"total_count"`
	DoneCount       int          `json:"done_count"`
	TodoCount       int          `json:"todo_count"`
	AchievementRate float64      `json:"achievement_rate"`
	DoneTasks       []GoalDetail `json:"done_tasks"`
	TodoTasks       []GoalDetail `json:"todo_tasks"`
}

// SpaceProgress GET /api/spaces/{space_id}/summary
type SpaceProgress struct {
	TotalGoals     int     `json:"total_goals"`
	CompletedGoals int     `json:"completed_goals"`
	PendingGoals   int     `json:"pending_goals"`
	CompletionRate float64 `json:"completion_rate"`
}
