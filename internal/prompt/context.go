// Package prompt assembles the bounded context block injected into each
// inference call: entity counts, a capped enumeration of the current state,
// and the tail of the conversation.
//
// Building is a pure function of (state, history, config): identical inputs
// always produce identical output, and the result never exceeds the
// configured size budget.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/avictorio/taskpilot/internal/state"
)

// Config bounds the context block.
type Config struct {
	// MaxChars is the hard size budget for the whole block.
	MaxChars int
	// ListLimit caps per-collection enumeration; larger collections are
	// summarized as counts only.
	ListLimit int
	// RecentTurns is how many trailing conversation turns are included.
	RecentTurns int
}

// DefaultConfig returns the default context budget.
func DefaultConfig() Config {
	return Config{
		MaxChars:    4000,
		ListLimit:   10,
		RecentTurns: 5,
	}
}

const truncationMarker = "\n[context truncated]"

// turnContentLimit caps each quoted conversation turn.
const turnContentLimit = 200

// Build produces the context block for the next inference call.
func Build(st *state.State, history []state.Turn, cfg Config) string {
	var b strings.Builder

	total, completed := st.TaskCounts()
	b.WriteString("Current State:\n")
	fmt.Fprintf(&b, "- User: %s\n", st.UserName)
	fmt.Fprintf(&b, "- Projects: %d (%d tasks, %d completed)\n", len(st.Projects), total, completed)
	fmt.Fprintf(&b, "- Team Members: %d\n", len(st.TeamMembers))

	writeProjects(&b, st, cfg.ListLimit)
	writeTeamMembers(&b, st, cfg.ListLimit)
	writeRecent(&b, history, cfg.RecentTurns)

	out := b.String()
	if cfg.MaxChars > 0 && len(out) > cfg.MaxChars {
		marker := truncationMarker
		if len(marker) > cfg.MaxChars {
			marker = ""
		}
		out = cutAt(out, cfg.MaxChars-len(marker)) + marker
	}
	return out
}

func writeProjects(b *strings.Builder, st *state.State, limit int) {
	if len(st.Projects) == 0 {
		return
	}
	if len(st.Projects) > limit {
		fmt.Fprintf(b, "\nProjects: %d total (list omitted, use view_projects)\n", len(st.Projects))
		return
	}
	b.WriteString("\nProjects:\n")
	for i, p := range st.Projects {
		completed := 0
		for _, t := range p.Tasks {
			if t.Status == state.StatusCompleted {
				completed++
			}
		}
		fmt.Fprintf(b, "%d. %s - Due: %s (Tasks: %d/%d completed)\n",
			i+1, p.Name, p.DueDate, completed, len(p.Tasks))
		for _, t := range p.Tasks {
			fmt.Fprintf(b, "   - %s [%s, %s] assigned to %s\n",
				t.Name, t.Status, t.Priority, t.AssignedTo)
		}
	}
}

func writeTeamMembers(b *strings.Builder, st *state.State, limit int) {
	if len(st.TeamMembers) == 0 {
		return
	}
	if len(st.TeamMembers) > limit {
		fmt.Fprintf(b, "\nTeam Members: %d total (list omitted, use view_team_members)\n", len(st.TeamMembers))
		return
	}
	b.WriteString("\nTeam Members:\n")
	for i, m := range st.TeamMembers {
		fmt.Fprintf(b, "%d. %s - %s (%s)\n", i+1, m.Name, m.Role, m.Email)
	}
}

func writeRecent(b *strings.Builder, history []state.Turn, n int) {
	if len(history) == 0 || n <= 0 {
		return
	}
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	b.WriteString("\nRecent Conversation:\n")
	for _, turn := range history[start:] {
		who := "User"
		if turn.Role == state.RoleAssistant {
			who = "Assistant"
		}
		fmt.Fprintf(b, "%s: %s\n", who, truncate(turn.Content, turnContentLimit))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return cutAt(s, max) + "..."
}

// cutAt slices s to at most n bytes without splitting a multi-byte rune.
func cutAt(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
