// Package session holds per-chat checklist progress and the keyed store
// that owns it.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/Denis16-blip/store-checklist-bot/internal/checklist"
)

// Status is the outcome recorded for a completed checklist step.
type Status string

const (
	StatusOK    Status = "ok"
	StatusSkip  Status = "skip"
	StatusIssue Status = "issue"
)

// Mode is the interaction state of a session. Exactly one mode is active at
// a time.
type Mode int

const (
	// Idle: no checklist run in progress.
	Idle Mode = iota
	// AwaitingAnswer: a step is displayed, waiting for Ok/Issue/Skip/Finish.
	AwaitingAnswer
	// CollectingPhotos: Issue selected, accepting up to MaxPhotos photos.
	CollectingPhotos
	// CollectingComment: photos collected, waiting for one comment.
	CollectingComment
	// Finished: terminal for the run until a new start.
	Finished
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case AwaitingAnswer:
		return "awaiting_answer"
	case CollectingPhotos:
		return "collecting_photos"
	case CollectingComment:
		return "collecting_comment"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// MaxPhotos is the most photo references one Issue answer may carry. The
// cap matches the Bot API media group limit.
const MaxPhotos = 10

// Answer is the recorded outcome of one checklist step. Ok and Skip answers
// never carry a comment or photos; Issue answers carry at most one comment
// and up to MaxPhotos photo references.
type Answer struct {
	Step    checklist.Step `json:"step"`
	Status  Status         `json:"status"`
	Comment string         `json:"comment,omitempty"`
	Photos  []string       `json:"photos,omitempty"`
}

// Session is the mutable per-chat checklist state. All mutation happens on
// the runtime's per-chat worker; the store only hands out pointers.
type Session struct {
	ChatID int64  `json:"chat_id"`
	RunID  string `json:"run_id,omitempty"`
	Mode   Mode   `json:"mode"`
	// Position is the index into the flattened step list,
	// 0 <= Position <= total step count.
	Position      int       `json:"position"`
	Answers       []Answer  `json:"answers,omitempty"`
	PendingPhotos []string  `json:"pending_photos,omitempty"`
	LastActive    time.Time `json:"last_active"`
}

// Begin resets the session to the start of a fresh run.
func (s *Session) Begin() {
	s.RunID = uuid.NewString()
	s.Mode = AwaitingAnswer
	s.Position = 0
	s.Answers = nil
	s.PendingPhotos = nil
}

// Record appends an answer and clears pending photos.
func (s *Session) Record(a Answer) {
	s.Answers = append(s.Answers, a)
	s.PendingPhotos = nil
}

// Touch updates the last-activity timestamp used by eviction.
func (s *Session) Touch(now time.Time) { s.LastActive = now }
