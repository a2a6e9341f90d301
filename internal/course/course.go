// Package course provides the training-module catalogue and the per-user
// training progress records.
package course

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ErrInvalidStatus indicates a training status outside the known set.
var ErrInvalidStatus = errors.New("invalid training status")

// Training statuses. Progress is a percentage and is tracked independently
// of the status.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// ValidStatus reports whether s is a known training status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// defaultData is the content document for modules created without one.
const defaultData = `{"sections":[]}`

// Module is a training module in the catalogue. Data holds the module's
// content document as raw json, the backend never interprets it.
type Module struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Data        json.RawMessage
	IsActive    bool
	OrderIndex  int
}

// NewModule creates a catalogue entry from a title and optional fields.
// The id is derived from the title, an empty content document gets the
// default one.
func NewModule(title, description, icon string, data json.RawMessage) (Module, error) {
	id := Slugify(title)
	if id == "" {
		return Module{}, errors.New("module title produces an empty id")
	}

	if len(data) == 0 {
		data = json.RawMessage(defaultData)
	}

	return Module{
		ID:          id,
		Title:       title,
		Description: description,
		Icon:        icon,
		Data:        data,
		IsActive:    true,
	}, nil
}

// ModuleUpdate is a partial update, nil fields are left untouched.
type ModuleUpdate struct {
	Title       *string
	Description *string
	Icon        *string
	Data        json.RawMessage
	IsActive    *bool
	OrderIndex  *int
}

// Training is one user's progress on one module. There is at most one
// record per (user, module) pair.
type Training struct {
	UserID    uuid.UUID
	ModuleID  string
	Status    string
	Progress  int
	UpdatedAt time.Time
}

// UserTraining is a training joined with the catalogue fields of its
// module, the shape the frontend renders progress lists from.
type UserTraining struct {
	Training
	ModuleTitle string
	ModuleIcon  string
}

// Slugify derives a url-safe module id from a title. Runs of
// non-alphanumeric characters collapse to single dashes.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
