package models

// Comment is an append-only note on a goal.
type Comment struct {
	ID        string `json:"id" db:"id"`
	GoalID    string `json:"goal_id" db:"goal_id"`
	Author    string `json:"author" db:"author"`
	Body      string `json:"body" db:"body"`
	CreatedAt string `json:"created_at" db:"created_at"`
}

// Reaction is an append-only emoji on a goal.
type Reaction struct {
	ID        string `json:"id" db:"id"`
	GoalID    string `json:"goal_id" db:"goal_id"`
	Author    string `json:"author" db:"author"`
	Emoji     string `json:"emoji" db:"emoji"`
	CreatedAt string `json:"created_at" db:"created_at"`
}

type CreateCommentRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

type CreateReactionRequest struct {
	Author string `json:"author"`
	Emoji  string `json:"emoji"`
}
