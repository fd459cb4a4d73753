package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Denis16-blip/store-checklist-bot/internal/metrics"
	"github.com/Denis16-blip/store-checklist-bot/internal/session"
	"github.com/Denis16-blip/store-checklist-bot/internal/telegram"
)

// Report is the derived summary of a checklist run. It is computed from the
// session's answers on demand and never stored.
type Report struct {
	RunID   string
	ChatID  int64
	Total   int // answered steps, equals len of the session's answers
	OK      int
	Skipped int
	Issues  []session.Answer // in answer order
}

// BuildReport derives a report from the session's recorded answers.
func BuildReport(s *session.Session) Report {
	r := Report{RunID: s.RunID, ChatID: s.ChatID, Total: len(s.Answers)}
	for _, a := range s.Answers {
		switch a.Status {
		case session.StatusOK:
			r.OK++
		case session.StatusSkip:
			r.Skipped++
		case session.StatusIssue:
			r.Issues = append(r.Issues, a)
		}
	}
	return r
}

// Header renders the summary counts.
func (r Report) Header() string {
	return fmt.Sprintf(
		"Сводка чек-листа\nВсего пунктов: %d\n✅ Ок: %d\n⚠️ Проблем: %d\n⏭ Пропущено: %d",
		r.Total, r.OK, len(r.Issues), r.Skipped,
	)
}

// issueCaption renders one issue for delivery, either as a media group
// caption or as a plain message when no photos were attached.
func issueCaption(a session.Answer) string {
	return fmt.Sprintf("%s\n%s — %s\n\n%s\n\n%s", a.Step.Section, a.Step.Code, a.Step.Title, a.Step.Text, a.Comment)
}

// mediaGroup packs photo references into a single album with the caption on
// the first item, respecting the provider's group size limit.
func mediaGroup(photos []string, caption string) []telegram.InputMediaPhoto {
	if len(photos) > telegram.MaxMediaGroup {
		photos = photos[:telegram.MaxMediaGroup]
	}
	media := make([]telegram.InputMediaPhoto, 0, len(photos))
	for i, p := range photos {
		m := telegram.InputMediaPhoto{Type: "photo", Media: p}
		if i == 0 {
			m.Caption = caption
		}
		media = append(media, m)
	}
	return media
}

// Dispatcher renders reports and fans them out to the reporting user and,
// when configured and distinct, the administrator.
type Dispatcher struct {
	Sender Sender
	// AdminChatID receives a copy of every report. Zero disables the fan-out.
	AdminChatID int64
	Log         zerolog.Logger
}

// Dispatch delivers the report. Delivery to the user is the primary
// deliverable and is retried once before giving up; the administrator copy
// is best effort, its failure is logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, r Report) error {
	if err := d.deliver(ctx, r.ChatID, r, ""); err != nil {
		d.Log.Warn().Err(err).Int64("chat_id", r.ChatID).Msg("report delivery failed, retrying once")
		if err := d.deliver(ctx, r.ChatID, r, ""); err != nil {
			metrics.ReportFailures.WithLabelValues("user").Inc()
			return fmt.Errorf("delivering report to user %d: %w", r.ChatID, err)
		}
	}
	metrics.ReportsDelivered.WithLabelValues("user").Inc()

	if d.AdminChatID != 0 && d.AdminChatID != r.ChatID {
		prefix := fmt.Sprintf("📋 Отчёт от пользователя %d\n\n", r.ChatID)
		if err := d.deliver(ctx, d.AdminChatID, r, prefix); err != nil {
			// Deliberate policy: the admin copy never fails the run.
			metrics.ReportFailures.WithLabelValues("admin").Inc()
			d.Log.Warn().Err(err).Int64("admin_chat_id", d.AdminChatID).Msg("admin report delivery failed")
		} else {
			metrics.ReportsDelivered.WithLabelValues("admin").Inc()
		}
	}
	return nil
}

// deliver sends the header and every issue to one recipient.
func (d *Dispatcher) deliver(ctx context.Context, chatID int64, r Report, headerPrefix string) error {
	if err := d.Sender.SendMessage(ctx, chatID, headerPrefix+r.Header(), nil); err != nil {
		return err
	}
	for _, a := range r.Issues {
		caption := issueCaption(a)
		if len(a.Photos) == 0 {
			if err := d.Sender.SendMessage(ctx, chatID, caption, nil); err != nil {
				return err
			}
			continue
		}
		if err := d.Sender.SendMediaGroup(ctx, chatID, mediaGroup(a.Photos, caption)); err != nil {
			return err
		}
	}
	return nil
}
