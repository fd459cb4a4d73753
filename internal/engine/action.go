package engine

import (
	"strings"

	"github.com/Denis16-blip/store-checklist-bot/internal/telegram"
)

// ActionKind enumerates everything a user can do to a session. Updates are
// decoded into an Action exactly once, at the transport boundary; the state
// machine never looks at raw callback strings.
type ActionKind int

const (
	ActionNone ActionKind = iota
	// ActionStartCommand is the /start command.
	ActionStartCommand
	// ActionBegin is the "begin checklist" button.
	ActionBegin
	// ActionOK, ActionIssue, ActionSkip answer the current step.
	ActionOK
	ActionIssue
	ActionSkip
	// ActionNext re-shows the current step or the finish prompt.
	ActionNext
	// ActionFinish ends the run and requests the report.
	ActionFinish
	// ActionPhoto is an uploaded photo.
	ActionPhoto
	// ActionText is any other text message.
	ActionText
)

// Callback data values carried by inline keyboard buttons.
const (
	cbBegin  = "start_checklist"
	cbOK     = "ans_ok"
	cbIssue  = "ans_issue"
	cbSkip   = "ans_skip"
	cbNext   = "next"
	cbFinish = "finish"
)

// Action is a decoded user interaction.
type Action struct {
	Kind   ActionKind
	ChatID int64
	// CallbackID is set for button presses and must be acknowledged.
	CallbackID string
	// FileID is set for ActionPhoto.
	FileID string
	// Text is set for ActionText.
	Text string
}

// DecodeAction translates a Telegram update into an Action. It reports false
// for updates that carry nothing actionable (no chat, unknown callback data,
// non-text non-photo messages).
func DecodeAction(u *telegram.Update) (Action, bool) {
	chatID := u.ChatID()
	if chatID == 0 {
		return Action{}, false
	}

	if cb := u.CallbackQuery; cb != nil {
		a := Action{ChatID: chatID, CallbackID: cb.ID}
		switch cb.Data {
		case cbBegin:
			a.Kind = ActionBegin
		case cbOK:
			a.Kind = ActionOK
		case cbIssue:
			a.Kind = ActionIssue
		case cbSkip:
			a.Kind = ActionSkip
		case cbNext:
			a.Kind = ActionNext
		case cbFinish:
			a.Kind = ActionFinish
		default:
			return Action{}, false
		}
		return a, true
	}

	if m := u.Message; m != nil {
		if len(m.Photo) > 0 {
			// Sizes come smallest first; keep the largest.
			return Action{
				Kind:   ActionPhoto,
				ChatID: chatID,
				FileID: m.Photo[len(m.Photo)-1].FileID,
			}, true
		}
		text := strings.TrimSpace(m.Text)
		if text == "" {
			return Action{}, false
		}
		if text == "/start" || strings.HasPrefix(text, "/start ") {
			return Action{Kind: ActionStartCommand, ChatID: chatID}, true
		}
		return Action{Kind: ActionText, ChatID: chatID, Text: text}, true
	}

	return Action{}, false
}

// doneSentinels end photo collection when received as a text message while
// collecting photos. Matched case-insensitively after trimming.
var doneSentinels = map[string]struct{}{
	"done":   {},
	"ready":  {},
	"next":   {},
	"готово": {},
	"всё":    {},
	"все":    {},
	"дальше": {},
}

func isDoneSentinel(s string) bool {
	_, ok := doneSentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
