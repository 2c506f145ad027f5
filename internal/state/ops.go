package state

import (
	"errors"
	"fmt"
	"strings"
)

// Lookup errors. ErrNotFound is a zero-effect outcome for the caller, not a
// fatal condition; ErrAmbiguous asks the caller to narrow the pattern.
var (
	ErrNotFound  = errors.New("no match found")
	ErrAmbiguous = errors.New("multiple matches found")
)

// contains reports case-insensitive substring containment — the matching
// rule for every name lookup in the model.
func contains(name, pattern string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}

// ─── Project operations ──────────────────────────────────────────────────────

// ProjectMatch pairs a matched project with its 1-based position.
type ProjectMatch struct {
	Index   int     `json:"index"`
	Project Project `json:"project"`
}

// AddProject appends a project. Duplicate names are permitted.
func (s *State) AddProject(p Project) {
	s.Projects = append(s.Projects, p)
}

// FindProjects returns every project whose name contains the pattern,
// case-insensitively, in insertion order.
func (s *State) FindProjects(pattern string) []ProjectMatch {
	var matches []ProjectMatch
	for i := range s.Projects {
		if contains(s.Projects[i].Name, pattern) {
			matches = append(matches, ProjectMatch{Index: i + 1, Project: s.Projects[i]})
		}
	}
	return matches
}

// projectIndex resolves a pattern to exactly one project position.
func (s *State) projectIndex(pattern string) (int, error) {
	matches := s.FindProjects(pattern)
	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("project containing %q: %w", pattern, ErrNotFound)
	case 1:
		return matches[0].Index - 1, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Project.Name
		}
		return 0, fmt.Errorf("project containing %q matches %s: %w",
			pattern, strings.Join(names, ", "), ErrAmbiguous)
	}
}

// DeleteProject removes the single project matching the pattern and returns
// its name.
func (s *State) DeleteProject(pattern string) (string, error) {
	i, err := s.projectIndex(pattern)
	if err != nil {
		return "", err
	}
	name := s.Projects[i].Name
	s.Projects = append(s.Projects[:i], s.Projects[i+1:]...)
	return name, nil
}

// ClearProjects removes every project (and with them, every task) and
// returns how many were removed.
func (s *State) ClearProjects() int {
	n := len(s.Projects)
	s.Projects = []Project{}
	return n
}

// ─── Task operations ─────────────────────────────────────────────────────────

// TaskRef locates a task inside a specific project.
type TaskRef struct {
	ProjectName string `json:"project"`
	Task        Task   `json:"task"`
}

// AddTask appends a task to the single project matching projectPattern and
// returns the project's name.
func (s *State) AddTask(projectPattern string, t Task) (string, error) {
	i, err := s.projectIndex(projectPattern)
	if err != nil {
		return "", err
	}
	s.Projects[i].Tasks = append(s.Projects[i].Tasks, t)
	return s.Projects[i].Name, nil
}

// FindTasks returns every task across all projects whose name contains the
// pattern. An empty pattern matches everything.
func (s *State) FindTasks(pattern string) []TaskRef {
	var refs []TaskRef
	for i := range s.Projects {
		for _, t := range s.Projects[i].Tasks {
			if pattern == "" || contains(t.Name, pattern) {
				refs = append(refs, TaskRef{ProjectName: s.Projects[i].Name, Task: t})
			}
		}
	}
	return refs
}

// taskIndex resolves (projectPattern, taskPattern) to exactly one task.
func (s *State) taskIndex(projectPattern, taskPattern string) (pi, ti int, err error) {
	pi, err = s.projectIndex(projectPattern)
	if err != nil {
		return 0, 0, err
	}
	found := -1
	var names []string
	for j := range s.Projects[pi].Tasks {
		if contains(s.Projects[pi].Tasks[j].Name, taskPattern) {
			found = j
			names = append(names, s.Projects[pi].Tasks[j].Name)
		}
	}
	switch len(names) {
	case 0:
		return 0, 0, fmt.Errorf("task containing %q in project %q: %w",
			taskPattern, s.Projects[pi].Name, ErrNotFound)
	case 1:
		return pi, found, nil
	default:
		return 0, 0, fmt.Errorf("task containing %q matches %s: %w",
			taskPattern, strings.Join(names, ", "), ErrAmbiguous)
	}
}

// UpdateTaskStatus sets the status of the single matching task and returns
// the previous status plus the resolved project and task names.
func (s *State) UpdateTaskStatus(projectPattern, taskPattern, status string) (prev, project, task string, err error) {
	pi, ti, err := s.taskIndex(projectPattern, taskPattern)
	if err != nil {
		return "", "", "", err
	}
	t := &s.Projects[pi].Tasks[ti]
	prev = t.Status
	t.Status = status
	return prev, s.Projects[pi].Name, t.Name, nil
}

// UpdateTaskPriority sets the priority of the single matching task.
func (s *State) UpdateTaskPriority(projectPattern, taskPattern, priority string) (prev, project, task string, err error) {
	pi, ti, err := s.taskIndex(projectPattern, taskPattern)
	if err != nil {
		return "", "", "", err
	}
	t := &s.Projects[pi].Tasks[ti]
	prev = t.Priority
	t.Priority = priority
	return prev, s.Projects[pi].Name, t.Name, nil
}

// ReassignTask sets the assignee of the single matching task. The assignee is
// free text; it need not name an existing team member.
func (s *State) ReassignTask(projectPattern, taskPattern, assignee string) (prev, project, task string, err error) {
	pi, ti, err := s.taskIndex(projectPattern, taskPattern)
	if err != nil {
		return "", "", "", err
	}
	t := &s.Projects[pi].Tasks[ti]
	prev = t.AssignedTo
	t.AssignedTo = assignee
	return prev, s.Projects[pi].Name, t.Name, nil
}

// DeleteTask removes the single matching task from its project.
func (s *State) DeleteTask(projectPattern, taskPattern string) (project, task string, err error) {
	pi, ti, err := s.taskIndex(projectPattern, taskPattern)
	if err != nil {
		return "", "", err
	}
	task = s.Projects[pi].Tasks[ti].Name
	s.Projects[pi].Tasks = append(s.Projects[pi].Tasks[:ti], s.Projects[pi].Tasks[ti+1:]...)
	return s.Projects[pi].Name, task, nil
}

// DeleteTasksByPattern removes every task across all projects whose name
// contains the pattern. Zero matches is not an error: the count is 0 and the
// affected list empty. Running it twice deletes nothing new.
func (s *State) DeleteTasksByPattern(pattern string) (count int, affected []string) {
	for i := range s.Projects {
		kept := s.Projects[i].Tasks[:0]
		removed := 0
		for _, t := range s.Projects[i].Tasks {
			if contains(t.Name, pattern) {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		if removed > 0 {
			s.Projects[i].Tasks = kept
			count += removed
			affected = append(affected, s.Projects[i].Name)
		}
	}
	return count, affected
}

// RemoveCompletedTasks drops every completed task from every project.
func (s *State) RemoveCompletedTasks() (count int, affected []string) {
	for i := range s.Projects {
		kept := s.Projects[i].Tasks[:0]
		removed := 0
		for _, t := range s.Projects[i].Tasks {
			if t.Status == StatusCompleted {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		if removed > 0 {
			s.Projects[i].Tasks = kept
			count += removed
			affected = append(affected, s.Projects[i].Name)
		}
	}
	return count, affected
}

// ─── Team member operations ──────────────────────────────────────────────────

// MemberMatch pairs a matched team member with its 1-based position.
type MemberMatch struct {
	Index  int        `json:"index"`
	Member TeamMember `json:"member"`
}

// AddTeamMember appends a team member.
func (s *State) AddTeamMember(m TeamMember) {
	s.TeamMembers = append(s.TeamMembers, m)
}

// FindTeamMembers returns every member whose name contains the pattern.
func (s *State) FindTeamMembers(pattern string) []MemberMatch {
	var matches []MemberMatch
	for i := range s.TeamMembers {
		if contains(s.TeamMembers[i].Name, pattern) {
			matches = append(matches, MemberMatch{Index: i + 1, Member: s.TeamMembers[i]})
		}
	}
	return matches
}

// memberIndex resolves a pattern to exactly one team member position.
func (s *State) memberIndex(pattern string) (int, error) {
	matches := s.FindTeamMembers(pattern)
	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("team member containing %q: %w", pattern, ErrNotFound)
	case 1:
		return matches[0].Index - 1, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Member.Name
		}
		return 0, fmt.Errorf("team member containing %q matches %s: %w",
			pattern, strings.Join(names, ", "), ErrAmbiguous)
	}
}

// UpdateTeamMember updates the provided non-empty fields of the single
// matching member and returns the (possibly renamed) member.
func (s *State) UpdateTeamMember(pattern, name, role, email string) (TeamMember, error) {
	i, err := s.memberIndex(pattern)
	if err != nil {
		return TeamMember{}, err
	}
	m := &s.TeamMembers[i]
	if name != "" {
		m.Name = name
	}
	if role != "" {
		m.Role = role
	}
	if email != "" {
		m.Email = email
	}
	return *m, nil
}

// DeleteTeamMember removes the single matching member and returns its name.
func (s *State) DeleteTeamMember(pattern string) (string, error) {
	i, err := s.memberIndex(pattern)
	if err != nil {
		return "", err
	}
	name := s.TeamMembers[i].Name
	s.TeamMembers = append(s.TeamMembers[:i], s.TeamMembers[i+1:]...)
	return name, nil
}

// ClearTeamMembers removes every team member.
func (s *State) ClearTeamMembers() int {
	n := len(s.TeamMembers)
	s.TeamMembers = []TeamMember{}
	return n
}

// ─── Aggregates ──────────────────────────────────────────────────────────────

// TaskCounts returns total and completed task counts across all projects.
func (s *State) TaskCounts() (total, completed int) {
	for i := range s.Projects {
		for _, t := range s.Projects[i].Tasks {
			total++
			if t.Status == StatusCompleted {
				completed++
			}
		}
	}
	return total, completed
}
