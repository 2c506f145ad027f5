package prompt_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avictorio/taskpilot/internal/prompt"
	"github.com/avictorio/taskpilot/internal/state"
)

func sampleState(t *testing.T, projects int) *state.State {
	t.Helper()
	st := state.New()
	for i := 0; i < projects; i++ {
		st.AddProject(state.NewProject(fmt.Sprintf("Project %d", i+1), "", "2026-09-15"))
	}
	return st
}

func TestBuildIsDeterministic(t *testing.T) {
	st := sampleState(t, 3)
	_, err := st.AddTask("Project 1", state.NewTask("Fix login", "", "Sarah", "", "high"))
	require.NoError(t, err)
	st.AddTeamMember(state.NewTeamMember("Sarah Johnson", "Developer", ""))
	history := []state.Turn{
		{Role: state.RoleUser, Content: "add a task"},
		{Role: state.RoleAssistant, Content: "done"},
	}
	cfg := prompt.DefaultConfig()

	first := prompt.Build(st, history, cfg)
	second := prompt.Build(st, history, cfg)
	assert.Equal(t, first, second)
}

func TestBuildHeaderCounts(t *testing.T) {
	st := sampleState(t, 2)
	_, err := st.AddTask("Project 1", state.NewTask("a", "", "", "", ""))
	require.NoError(t, err)
	_, err = st.AddTask("Project 2", state.NewTask("b", "", "", "", ""))
	require.NoError(t, err)
	_, _, _, err = st.UpdateTaskStatus("Project 1", "a", state.StatusCompleted)
	require.NoError(t, err)

	out := prompt.Build(st, nil, prompt.DefaultConfig())
	assert.Contains(t, out, "- Projects: 2 (2 tasks, 1 completed)")
	assert.Contains(t, out, "- Team Members: 0")
}

func TestBuildEnumeratesSmallCollections(t *testing.T) {
	st := sampleState(t, 2)
	_, err := st.AddTask("Project 1", state.NewTask("Fix login", "", "Sarah", "", "high"))
	require.NoError(t, err)

	out := prompt.Build(st, nil, prompt.DefaultConfig())
	assert.Contains(t, out, "1. Project 1 - Due: 2026-09-15 (Tasks: 0/1 completed)")
	assert.Contains(t, out, "- Fix login [pending, high] assigned to Sarah")
}

func TestBuildSummarizesLargeCollections(t *testing.T) {
	st := sampleState(t, 12)

	out := prompt.Build(st, nil, prompt.DefaultConfig())
	assert.Contains(t, out, "Projects: 12 total (list omitted, use view_projects)")
	assert.NotContains(t, out, "1. Project 1")
}

func TestBuildRecentTurnsTail(t *testing.T) {
	st := state.New()
	var history []state.Turn
	for i := 0; i < 10; i++ {
		history = append(history, state.Turn{Role: state.RoleUser, Content: fmt.Sprintf("message %d", i)})
	}

	out := prompt.Build(st, history, prompt.Config{MaxChars: 4000, ListLimit: 10, RecentTurns: 3})
	assert.NotContains(t, out, "message 6")
	assert.Contains(t, out, "message 7")
	assert.Contains(t, out, "message 9")
}

func TestBuildTruncatesLongTurns(t *testing.T) {
	st := state.New()
	history := []state.Turn{
		{Role: state.RoleUser, Content: strings.Repeat("x", 500)},
	}

	out := prompt.Build(st, history, prompt.DefaultConfig())
	assert.Contains(t, out, strings.Repeat("x", 200)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 201))
}

func TestBuildEnforcesHardBudget(t *testing.T) {
	st := sampleState(t, 9)
	for i := 1; i <= 9; i++ {
		for j := 0; j < 5; j++ {
			_, err := st.AddTask(fmt.Sprintf("Project %d", i),
				state.NewTask(fmt.Sprintf("some fairly long task name %d-%d", i, j), "", "", "", ""))
			require.NoError(t, err)
		}
	}

	const budget = 500
	out := prompt.Build(st, nil, prompt.Config{MaxChars: budget, ListLimit: 10, RecentTurns: 5})
	assert.LessOrEqual(t, len(out), budget)
	assert.True(t, strings.HasSuffix(out, "[context truncated]"))
}

func TestBuildNeverSplitsRunes(t *testing.T) {
	st := state.New()
	st.UserName = strings.Repeat("日本語プロジェクト", 40)
	history := []state.Turn{
		{Role: state.RoleUser, Content: strings.Repeat("é", 300)},
	}

	for _, budget := range []int{0, 50, 64, 65, 301, 400} {
		out := prompt.Build(st, history, prompt.Config{MaxChars: budget, ListLimit: 10, RecentTurns: 5})
		assert.True(t, utf8.ValidString(out), "budget %d must cut on a rune boundary", budget)
		if budget > 0 {
			assert.LessOrEqual(t, len(out), budget, "budget %d", budget)
		}
	}
}

func TestBuildTinyBudgetStaysWithinIt(t *testing.T) {
	st := sampleState(t, 3)

	// Smaller than the truncation marker itself.
	out := prompt.Build(st, nil, prompt.Config{MaxChars: 10, ListLimit: 10, RecentTurns: 5})
	assert.LessOrEqual(t, len(out), 10)
}
