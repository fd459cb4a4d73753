// Package engine implements the checklist state machine: it walks the
// flattened step list, records answers, runs the Issue photo/comment
// sub-flow and hands finished runs to the report dispatcher.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Denis16-blip/store-checklist-bot/internal/checklist"
	"github.com/Denis16-blip/store-checklist-bot/internal/metrics"
	"github.com/Denis16-blip/store-checklist-bot/internal/session"
	"github.com/Denis16-blip/store-checklist-bot/internal/telegram"
)

// Sender is the outbound half of the messaging provider. *telegram.Client
// implements it; tests substitute a fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) error
	SendMediaGroup(ctx context.Context, chatID int64, media []telegram.InputMediaPhoto) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// User-facing texts, verbatim from the production bot.
const (
	msgGreeting = "ЕЖЕДНЕВНЫЙ ЧЕК-ЛИСТ ГОТОВНОСТИ ТОРГОВОГО ЗАЛА К ПРОДАЖАМ\n\n" +
		"Нажми кнопку ниже, чтобы начать."
	msgIssueStart    = "⚠️ Зафиксируем проблему по пункту. Пришли 1–10 фото (можно несколько подряд). Когда достаточно — напиши «готово»."
	msgPhotosCap     = "Принял 10 фото (максимум). Напиши короткий комментарий к проблеме."
	msgAskComment    = "Ок. Напиши короткий комментарий к проблеме (что не так/что нужно сделать)."
	msgAwaitPhotos   = "Пришли фото проблемы. Когда будет достаточно — напиши «готово»."
	msgIssueRecorded = "Записал проблему. Двигаемся дальше."
	msgExhausted     = "Пункты закончились. Нажми «🏁 Завершить», чтобы получить сводку."
	msgAllDone       = "Все пункты уже пройдены. Нажми «🏁 Завершить» для отчёта."
	msgFallback      = "Напиши /start, чтобы начать чек-лист, или используй кнопки под текущим пунктом."
	msgEmptyReport   = "Нет данных для отчёта. Пройди хотя бы один пункт через кнопки."
	msgReportDone    = "🏁 Отчёт сформирован. Спасибо!"
)

func kbStart() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🚀 Начать чек-лист", CallbackData: cbBegin}},
	}}
}

func kbMain() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{
			{Text: "✅ Ок", CallbackData: cbOK},
			{Text: "⚠️ Проблема", CallbackData: cbIssue},
		},
		{
			{Text: "⏭ Пропустить", CallbackData: cbSkip},
			{Text: "🏁 Завершить", CallbackData: cbFinish},
		},
	}}
}

func kbFinish() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🏁 Завершить", CallbackData: cbFinish}},
	}}
}

// Engine drives one session at a time. The bridge guarantees updates for a
// chat arrive here sequentially, so no per-session locking is needed.
type Engine struct {
	List     *checklist.List
	Sessions *session.Store
	Sender   Sender
	Reports  *Dispatcher
	Log      zerolog.Logger
}

// timeNow is stubbed in tests.
var timeNow = time.Now

// New wires an engine and its report dispatcher.
func New(list *checklist.List, store *session.Store, sender Sender, adminChatID int64, l zerolog.Logger) *Engine {
	return &Engine{
		List:     list,
		Sessions: store,
		Sender:   sender,
		Reports: &Dispatcher{
			Sender:      sender,
			AdminChatID: adminChatID,
			Log:         l.With().Str("component", "reports").Logger(),
		},
		Log: l,
	}
}

// HandleUpdate applies one update to its session. It runs on the bridge's
// per-chat worker; all mutation of the session happens here, atomically with
// respect to other updates for the same chat.
func (e *Engine) HandleUpdate(ctx context.Context, u *telegram.Update) {
	act, ok := DecodeAction(u)
	if !ok {
		e.Log.Debug().Int64("update_id", u.ID).Msg("update carries no action")
		return
	}

	if act.CallbackID != "" {
		// Best effort: a failed ack only leaves the button spinner visible.
		if err := e.Sender.AnswerCallbackQuery(ctx, act.CallbackID); err != nil {
			e.Log.Warn().Err(err).Msg("answering callback query failed")
		}
	}

	s := e.Sessions.Get(act.ChatID)
	defer func() {
		s.Touch(timeNow())
		metrics.SessionsActive.Set(float64(e.Sessions.Len()))
	}()

	switch act.Kind {
	case ActionStartCommand:
		e.send(ctx, act.ChatID, msgGreeting, kbStart())
	case ActionBegin:
		e.begin(ctx, act.ChatID)
	case ActionOK:
		e.answer(ctx, s, session.StatusOK)
	case ActionSkip:
		e.answer(ctx, s, session.StatusSkip)
	case ActionIssue:
		e.issue(ctx, s)
	case ActionNext:
		e.next(ctx, s)
	case ActionFinish:
		e.finish(ctx, s)
	case ActionPhoto:
		e.photo(ctx, s, act.FileID)
	case ActionText:
		e.text(ctx, s, act.Text)
	}
}

// begin starts a fresh run, discarding any previous session state.
func (e *Engine) begin(ctx context.Context, chatID int64) {
	s := e.Sessions.Reset(chatID)
	s.Begin()
	metrics.RunsStarted.Inc()
	e.Log.Info().Int64("chat_id", chatID).Str("run_id", s.RunID).Msg("checklist run started")
	e.send(ctx, chatID, e.List.Step(0).Prompt(), kbMain())
}

// answer records an Ok or Skip outcome for the current step and advances.
func (e *Engine) answer(ctx context.Context, s *session.Session, status session.Status) {
	if s.Mode != session.AwaitingAnswer {
		e.remind(ctx, s)
		return
	}
	if s.Position >= e.List.Len() {
		e.send(ctx, s.ChatID, msgAllDone, kbFinish())
		return
	}
	s.Record(session.Answer{Step: e.List.Step(s.Position), Status: status})
	e.advance(ctx, s)
}

// issue enters the photo collection sub-flow for the current step.
func (e *Engine) issue(ctx context.Context, s *session.Session) {
	if s.Mode != session.AwaitingAnswer {
		e.remind(ctx, s)
		return
	}
	if s.Position >= e.List.Len() {
		e.send(ctx, s.ChatID, msgAllDone, kbFinish())
		return
	}
	s.Mode = session.CollectingPhotos
	s.PendingPhotos = nil
	e.send(ctx, s.ChatID, msgIssueStart, nil)
}

// next re-shows the current step, or the finish prompt when the list is
// exhausted.
func (e *Engine) next(ctx context.Context, s *session.Session) {
	if s.Mode != session.AwaitingAnswer {
		e.remind(ctx, s)
		return
	}
	if s.Position >= e.List.Len() {
		e.send(ctx, s.ChatID, msgAllDone, kbFinish())
		return
	}
	e.send(ctx, s.ChatID, e.List.Step(s.Position).Prompt(), kbMain())
}

// photo handles an uploaded photo. Photos only mean something while
// collecting evidence for an Issue.
func (e *Engine) photo(ctx context.Context, s *session.Session, fileID string) {
	switch s.Mode {
	case session.CollectingPhotos:
		s.PendingPhotos = append(s.PendingPhotos, fileID)
		if len(s.PendingPhotos) >= session.MaxPhotos {
			// Cap reached: advance to the comment without waiting for the sentinel.
			s.Mode = session.CollectingComment
			e.send(ctx, s.ChatID, msgPhotosCap, nil)
		}
	case session.CollectingComment:
		e.send(ctx, s.ChatID, msgAskComment, nil)
	default:
		e.remind(ctx, s)
	}
}

// text handles a free-text message according to the current mode.
func (e *Engine) text(ctx context.Context, s *session.Session, text string) {
	switch s.Mode {
	case session.CollectingPhotos:
		if isDoneSentinel(text) {
			s.Mode = session.CollectingComment
			e.send(ctx, s.ChatID, msgAskComment, nil)
			return
		}
		// Anything else means "keep waiting", not an error.
		e.send(ctx, s.ChatID, msgAwaitPhotos, nil)
	case session.CollectingComment:
		if s.Position >= e.List.Len() {
			// Should not happen: position never advances past the end while an
			// issue is open. Recover by clamping to the last step.
			s.Position = e.List.Len() - 1
		}
		s.Record(session.Answer{
			Step:    e.List.Step(s.Position),
			Status:  session.StatusIssue,
			Comment: text,
			Photos:  s.PendingPhotos,
		})
		s.Mode = session.AwaitingAnswer
		e.send(ctx, s.ChatID, msgIssueRecorded, nil)
		e.advance(ctx, s)
	case session.AwaitingAnswer:
		// Stray text while a step is displayed: repeat the step and choices.
		e.next(ctx, s)
	default:
		e.remind(ctx, s)
	}
}

// finish ends the run from any state and dispatches the report built from
// whatever has been answered so far.
func (e *Engine) finish(ctx context.Context, s *session.Session) {
	s.PendingPhotos = nil
	if len(s.Answers) == 0 {
		e.send(ctx, s.ChatID, msgEmptyReport, kbStart())
		return
	}

	r := BuildReport(s)
	s.Mode = session.Finished
	if err := e.Reports.Dispatch(ctx, r); err != nil {
		// The user report is the primary deliverable; by this point it was
		// retried once already. Nothing left to do but record the failure.
		e.Log.Error().Err(err).Int64("chat_id", s.ChatID).Str("run_id", r.RunID).Msg("report delivery failed")
		return
	}
	e.send(ctx, s.ChatID, msgReportDone, nil)
	e.Log.Info().Int64("chat_id", s.ChatID).Str("run_id", r.RunID).
		Int("answers", r.Total).Int("issues", len(r.Issues)).Msg("report dispatched")
}

// advance moves to the next step and shows it, or the finish prompt when the
// list is exhausted.
func (e *Engine) advance(ctx context.Context, s *session.Session) {
	s.Position++
	if s.Position >= e.List.Len() {
		e.send(ctx, s.ChatID, msgExhausted, kbFinish())
		return
	}
	e.send(ctx, s.ChatID, e.List.Step(s.Position).Prompt(), kbMain())
}

// remind re-prompts the user with whatever is valid in the current mode.
// State errors are always recovered locally, never surfaced as failures.
func (e *Engine) remind(ctx context.Context, s *session.Session) {
	switch s.Mode {
	case session.CollectingPhotos:
		e.send(ctx, s.ChatID, msgAwaitPhotos, nil)
	case session.CollectingComment:
		e.send(ctx, s.ChatID, msgAskComment, nil)
	case session.Finished, session.Idle:
		e.send(ctx, s.ChatID, msgFallback, kbStart())
	default:
		e.send(ctx, s.ChatID, msgFallback, nil)
	}
}

// send delivers a prompt. Prompt delivery failures are logged and dropped:
// the inbound transport retries nothing at this point, and the user can
// always recover with /start.
func (e *Engine) send(ctx context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) {
	if err := e.Sender.SendMessage(ctx, chatID, text, kb); err != nil {
		e.Log.Error().Err(err).Int64("chat_id", chatID).Msg("sending prompt failed")
	}
}
