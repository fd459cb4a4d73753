package checklist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	l, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, l.Sections)
	require.Greater(t, l.Len(), 20)

	first := l.Step(0)
	require.Equal(t, 0, first.Index)
	require.Contains(t, first.Section, "ОБЩЕЕ РАЗМЕЩЕНИЕ")
	require.Equal(t, "1.1", first.Code)
}

func TestStepsAreComplete(t *testing.T) {
	l, err := Load()
	require.NoError(t, err)
	for i := 0; i < l.Len(); i++ {
		s := l.Step(i)
		require.Equal(t, i, s.Index)
		require.NotEmpty(t, s.Section, "step %d", i)
		require.NotEmpty(t, s.Code, "step %d", i)
		require.NotEmpty(t, s.Title, "step %d", i)
		require.NotEmpty(t, s.Text, "step %d", i)
	}
}

func TestTraversalOrderFollowsDocument(t *testing.T) {
	l, err := Load()
	require.NoError(t, err)

	// Steps walk sections and items in document order.
	var want []string
	for _, sec := range l.Sections {
		for _, it := range sec.Items {
			for range it.Points {
				want = append(want, it.Code)
			}
		}
	}
	var got []string
	for i := 0; i < l.Len(); i++ {
		got = append(got, l.Step(i).Code)
	}
	require.Equal(t, want, got)
}

func TestPrompt(t *testing.T) {
	s := Step{
		Section: "1. ВХОДНАЯ ЗОНА",
		Code:    "1.1",
		Title:   "ВЫКЛАДКА",
		Text:    "Проверить полку",
	}
	require.Equal(t, "1. ВХОДНАЯ ЗОНА\n1.1 — ВЫКЛАДКА\n\nПроверить полку", s.Prompt())
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "{sections: [",
			wantErr: "checklist:",
		},
		{
			name:    "empty document",
			yaml:    "sections: []",
			wantErr: "no steps",
		},
		{
			name: "section without title",
			yaml: `
sections:
  - items:
      - code: "1.1"
        title: "X"
        points: ["a"]
`,
			wantErr: "has no title",
		},
		{
			name: "item without code",
			yaml: `
sections:
  - title: "S"
    items:
      - title: "X"
        points: ["a"]
`,
			wantErr: "has no code",
		},
		{
			name: "item without points",
			yaml: `
sections:
  - title: "S"
    items:
      - code: "1.1"
        title: "X"
`,
			wantErr: "has no points",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tc.wantErr),
				"error %q does not mention %q", err, tc.wantErr)
		})
	}
}
