package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"todolis-backend/pkg/models"
	"todolis-backend/pkg/utils"
)

const (
	maxTitleLen    = 200
	maxDetailLen   = 1000
	maxAssigneeLen = 50
	maxTags        = 10
	maxTagLen      = 20
	maxAuthorLen   = 50
	maxBodyLen     = 500
	maxEmojiLen    = 20
)

// Lengths count characters, not bytes.
func checkLength(field, v string, min, max int) error {
	n := utf8.RuneCountInString(v)
	if n < min || n > max {
		if min == 0 {
			return &ValidationError{Field: field, Constraint: fmt.Sprintf("must be at most %d characters", max)}
		}
		return &ValidationError{Field: field, Constraint: fmt.Sprintf("must be between %d and %d characters", min, max)}
	}
	return nil
}

func checkNotBlank(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &ValidationError{Field: field, Constraint: "must not be blank"}
	}
	return nil
}

func validateTitle(title string) error {
	return checkLength("title", title, 1, maxTitleLen)
}

func validateStatus(s models.GoalStatus) error {
	switch s {
	case models.GoalTodo, models.GoalDoing, models.GoalDone:
		return nil
	}
	return &ValidationError{Field: "status", Constraint: "must be one of todo, doing, done"}
}

func validateTags(tags []string) error {
	if len(tags) > maxTags {
		return &ValidationError{Field: "tags", Constraint: fmt.Sprintf("must have at most %d entries", maxTags)}
	}
	for _, t := range tags {
		if utf8.RuneCountInString(t) > maxTagLen {
			return &ValidationError{Field: "tags", Constraint: fmt.Sprintf("entries must be at most %d characters", maxTagLen)}
		}
	}
	return nil
}

// validateGoalPatch checks only the supplied fields.
func validateGoalPatch(p models.GoalPatch) error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Detail != nil {
		if err := checkLength("detail", *p.Detail, 0, maxDetailLen); err != nil {
			return err
		}
	}
	if p.Assignee != nil {
		if err := checkLength("assignee", *p.Assignee, 0, maxAssigneeLen); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := validateStatus(*p.Status); err != nil {
			return err
		}
	}
	if p.DueOn != nil && !utils.IsCalendarDate(*p.DueOn) {
		return &ValidationError{Field: "due_on", Constraint: "must be a date in YYYY-MM-DD format"}
	}
	if p.Tags != nil {
		if err := validateTags(*p.Tags); err != nil {
			return err
		}
	}
	return nil
}

func validateNicknames(field string, nicknames []string) error {
	for _, n := range nicknames {
		if err := checkNotBlank(field, n); err != nil {
			return err
		}
	}
	return nil
}

// validateAuthored covers comments (body) and reactions (emoji).
func validateAuthored(author, field, value string, min, max int) error {
	if err := checkNotBlank("author", author); err != nil {
		return err
	}
	if err := checkLength("author", author, 1, maxAuthorLen); err != nil {
		return err
	}
	if err := checkNotBlank(field, value); err != nil {
		return err
	}
	return checkLength(field, value, min, max)
}
