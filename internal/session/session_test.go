package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Denis16-blip/store-checklist-bot/internal/checklist"
)

func TestBeginResetsRunState(t *testing.T) {
	s := &Session{ChatID: 1}
	s.Begin()
	first := s.RunID
	require.NotEmpty(t, first)
	require.Equal(t, AwaitingAnswer, s.Mode)

	s.Position = 5
	s.Answers = []Answer{{Status: StatusOK}}
	s.PendingPhotos = []string{"p1"}
	s.Mode = CollectingPhotos

	s.Begin()
	require.NotEqual(t, first, s.RunID)
	require.Equal(t, AwaitingAnswer, s.Mode)
	require.Zero(t, s.Position)
	require.Empty(t, s.Answers)
	require.Empty(t, s.PendingPhotos)
}

func TestRecordClearsPendingPhotos(t *testing.T) {
	s := &Session{ChatID: 1}
	s.Begin()
	s.PendingPhotos = []string{"p1", "p2"}
	s.Record(Answer{
		Step:   checklist.Step{Index: 0},
		Status: StatusIssue,
		Photos: s.PendingPhotos,
	})

	require.Len(t, s.Answers, 1)
	require.Equal(t, []string{"p1", "p2"}, s.Answers[0].Photos)
	require.Empty(t, s.PendingPhotos)
}

func TestSessionJSONRoundTrip(t *testing.T) {
	s := &Session{ChatID: 1, LastActive: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	s.Begin()
	s.Record(Answer{
		Step:   checklist.Step{Index: 0, Section: "1. ЗОНА", Code: "1.1", Title: "ВЫКЛАДКА", Text: "Проверить полку"},
		Status: StatusOK,
	})
	s.PendingPhotos = []string{"p1", "p2"}
	s.Record(Answer{
		Step:    checklist.Step{Index: 1, Section: "1. ЗОНА", Code: "1.1", Title: "ВЫКЛАДКА", Text: "Проверить ценники"},
		Status:  StatusIssue,
		Comment: "ценники перепутаны",
		Photos:  []string{"p1", "p2"},
	})
	s.Mode = CollectingComment
	s.Position = 2

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var got Session
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, *s, got)

	// Ok answers serialize without comment or photo fields at all.
	var raw struct {
		Answers []map[string]any `json:"answers"`
	}
	require.NoError(t, json.Unmarshal(b, &raw))
	require.NotContains(t, raw.Answers[0], "comment")
	require.NotContains(t, raw.Answers[0], "photos")
	require.Contains(t, raw.Answers[1], "comment")
	require.Contains(t, raw.Answers[1], "photos")
}

func TestModeString(t *testing.T) {
	for m, want := range map[Mode]string{
		Idle:              "idle",
		AwaitingAnswer:    "awaiting_answer",
		CollectingPhotos:  "collecting_photos",
		CollectingComment: "collecting_comment",
		Finished:          "finished",
		Mode(99):          "unknown",
	} {
		require.Equal(t, want, m.String())
	}
}

func TestStoreGetCreatesOnce(t *testing.T) {
	st := NewStore()
	a := st.Get(1)
	require.Equal(t, int64(1), a.ChatID)
	require.Equal(t, Idle, a.Mode)
	require.Same(t, a, st.Get(1))
	require.Equal(t, 1, st.Len())

	st.Get(2)
	require.Equal(t, 2, st.Len())
}

func TestStoreResetReplaces(t *testing.T) {
	st := NewStore()
	a := st.Get(1)
	a.Position = 3

	b := st.Reset(1)
	require.NotSame(t, a, b)
	require.Zero(t, b.Position)
	require.Same(t, b, st.Get(1))
}

func TestEvictDropsOnlyStale(t *testing.T) {
	st := NewStore()
	now := time.Now()

	stale := st.Get(1)
	stale.Touch(now.Add(-48 * time.Hour))
	fresh := st.Get(2)
	fresh.Touch(now.Add(-time.Minute))

	require.Equal(t, 1, st.Evict(24*time.Hour, now))
	require.Equal(t, 1, st.Len())
	require.Same(t, fresh, st.Get(2))
	// Chat 1 starts over with a fresh session.
	require.NotSame(t, stale, st.Get(1))
}
