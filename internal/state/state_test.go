package state_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avictorio/taskpilot/internal/state"
)

// fixClock pins the creation-time clock to a fixed day for the test.
func fixClock(t *testing.T, day string) {
	t.Helper()
	ts, err := time.Parse(state.DateLayout, day)
	require.NoError(t, err)
	t.Cleanup(state.SetNow(func() time.Time { return ts }))
}

// seeded builds a state with three projects, each holding a "Task X" task,
// plus one unrelated task.
func seeded(t *testing.T) *state.State {
	t.Helper()
	st := state.New()
	for _, name := range []string{"Website Redesign", "API Migration", "Q3 Launch"} {
		st.AddProject(state.NewProject(name, "", ""))
		_, err := st.AddTask(name, state.NewTask("Task X", "", "", "", ""))
		require.NoError(t, err)
	}
	_, err := st.AddTask("Q3 Launch", state.NewTask("Task Y", "", "", "", ""))
	require.NoError(t, err)
	return st
}

// ─── Defaults ───────────────────────────────────────────────────────────────

func TestNewProjectDefaults(t *testing.T) {
	fixClock(t, "2026-03-14")
	p := state.NewProject("Website Redesign", "", "")

	assert.Equal(t, state.DefaultDescription, p.Description)
	assert.Equal(t, "2026-03-14", p.DueDate, "due date defaults to the creation date")
	assert.Equal(t, "2026-03-14", p.CreatedAt)
	assert.NotNil(t, p.Tasks)
	assert.Empty(t, p.Tasks)
}

func TestNewTaskDefaults(t *testing.T) {
	fixClock(t, "2026-03-14")
	task := state.NewTask("Fix login", "", "", "", "")

	assert.Equal(t, state.DefaultDescription, task.Description)
	assert.Equal(t, state.DefaultAssignee, task.AssignedTo)
	assert.Equal(t, state.PriorityMedium, task.Priority)
	assert.Equal(t, state.StatusPending, task.Status)
	assert.Equal(t, "2026-03-14", task.CreatedAt)
	assert.Empty(t, task.DueDate, "task due date stays empty when absent")
}

func TestDeriveEmail(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Sarah Johnson", "s.j@company.com"},
		{"Jim Q. Halpert", "j.h@company.com"},
		{"Cher", "c@company.com"},
		{"  Dwight   Schrute  ", "d.s@company.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, state.DeriveEmail(tt.name), "name %q", tt.name)
	}
}

func TestNewTeamMemberKeepsExplicitEmail(t *testing.T) {
	m := state.NewTeamMember("Sarah Johnson", "Developer", "sarah@corp.example")
	assert.Equal(t, "sarah@corp.example", m.Email)
}

// ─── Validation ─────────────────────────────────────────────────────────────

func TestValidDate(t *testing.T) {
	assert.True(t, state.ValidDate("2026-01-31"))
	assert.False(t, state.ValidDate("31/01/2026"))
	assert.False(t, state.ValidDate("2026-13-40"))
}

// ─── Lookups ────────────────────────────────────────────────────────────────

func TestFindProjectsSubstringCaseInsensitive(t *testing.T) {
	st := seeded(t)

	matches := st.FindProjects("WEBSITE")
	require.Len(t, matches, 1)
	assert.Equal(t, "Website Redesign", matches[0].Project.Name)
	assert.Equal(t, 1, matches[0].Index)

	assert.Empty(t, st.FindProjects("nonexistent"))
}

func TestDeleteProjectAmbiguous(t *testing.T) {
	st := seeded(t)

	// "i" appears in every project name.
	_, err := st.DeleteProject("i")
	require.ErrorIs(t, err, state.ErrAmbiguous)
	assert.Len(t, st.Projects, 3, "ambiguous delete must not remove anything")

	_, err = st.DeleteProject("nothing here")
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestDeleteProjectUnique(t *testing.T) {
	st := seeded(t)
	name, err := st.DeleteProject("api")
	require.NoError(t, err)
	assert.Equal(t, "API Migration", name)
	assert.Len(t, st.Projects, 2)
}

// ─── Task operations ────────────────────────────────────────────────────────

func TestDeleteTasksByPatternAcrossProjects(t *testing.T) {
	st := seeded(t)

	count, affected := st.DeleteTasksByPattern("Task X")
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"Website Redesign", "API Migration", "Q3 Launch"}, affected)

	// The unrelated task survives.
	refs := st.FindTasks("Task Y")
	require.Len(t, refs, 1)

	// Idempotent: a second run removes nothing.
	count, affected = st.DeleteTasksByPattern("Task X")
	assert.Zero(t, count)
	assert.Empty(t, affected)
}

func TestDeleteTasksByPatternZeroMatchesIsNotAnError(t *testing.T) {
	st := state.New()
	count, affected := st.DeleteTasksByPattern("anything")
	assert.Zero(t, count)
	assert.Empty(t, affected)
}

func TestUpdateTaskStatusUnconstrainedTransitions(t *testing.T) {
	st := seeded(t)

	prev, project, task, err := st.UpdateTaskStatus("Website", "Task X", state.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, state.StatusPending, prev)
	assert.Equal(t, "Website Redesign", project)
	assert.Equal(t, "Task X", task)

	// Reopening a completed task is legal.
	prev, _, _, err = st.UpdateTaskStatus("Website", "Task X", state.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, state.StatusCompleted, prev)
}

func TestReassignTaskFreeText(t *testing.T) {
	st := seeded(t)

	// No team member named Angela exists; the assignment is still legal.
	prev, _, _, err := st.ReassignTask("API", "Task X", "Angela")
	require.NoError(t, err)
	assert.Equal(t, state.DefaultAssignee, prev)

	refs := st.FindTasks("Task X")
	var found bool
	for _, r := range refs {
		if r.ProjectName == "API Migration" {
			assert.Equal(t, "Angela", r.Task.AssignedTo)
			found = true
		}
	}
	assert.True(t, found)
}

func TestRemoveCompletedTasks(t *testing.T) {
	st := seeded(t)
	_, _, _, err := st.UpdateTaskStatus("Website", "Task X", state.StatusCompleted)
	require.NoError(t, err)
	_, _, _, err = st.UpdateTaskStatus("Q3", "Task Y", state.StatusCompleted)
	require.NoError(t, err)

	count, affected := st.RemoveCompletedTasks()
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"Website Redesign", "Q3 Launch"}, affected)

	total, completed := st.TaskCounts()
	assert.Equal(t, 2, total)
	assert.Zero(t, completed)
}

// ─── Team members ───────────────────────────────────────────────────────────

func TestUpdateTeamMemberPartialFields(t *testing.T) {
	st := state.New()
	st.AddTeamMember(state.NewTeamMember("Sarah Johnson", "Developer", ""))

	m, err := st.UpdateTeamMember("sarah", "", "Lead Developer", "")
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", m.Name)
	assert.Equal(t, "Lead Developer", m.Role)
	assert.Equal(t, "s.j@company.com", m.Email)
}

func TestDeleteTeamMember(t *testing.T) {
	st := state.New()
	st.AddTeamMember(state.NewTeamMember("Sarah Johnson", "Developer", ""))
	st.AddTeamMember(state.NewTeamMember("Jim Halpert", "Sales", ""))

	name, err := st.DeleteTeamMember("jim")
	require.NoError(t, err)
	assert.Equal(t, "Jim Halpert", name)
	assert.Len(t, st.TeamMembers, 1)

	_, err = st.DeleteTeamMember("jim")
	require.ErrorIs(t, err, state.ErrNotFound)
}

// ─── Round-trip and cloning ─────────────────────────────────────────────────

func TestStateJSONRoundTrip(t *testing.T) {
	st := seeded(t)
	st.AddTeamMember(state.NewTeamMember("Sarah Johnson", "Developer", ""))

	blob, err := json.Marshal(st)
	require.NoError(t, err)

	decoded := state.New()
	require.NoError(t, json.Unmarshal(blob, decoded))
	assert.Equal(t, st, decoded, "persistence round-trip must be exact")

	// Insertion order survives the round-trip.
	require.Len(t, decoded.Projects, 3)
	assert.Equal(t, "Website Redesign", decoded.Projects[0].Name)
	assert.Equal(t, "Q3 Launch", decoded.Projects[2].Name)
}
