// Package state implements the domain state model for the assistant:
// projects, tasks, and team members, plus the conversation turns kept
// alongside them.
//
// All operations here are pure in-memory transformations. Persistence and
// write-serialization are the session manager's job; nothing in this
// package touches storage.
package state

import (
	"strings"
	"time"
)

// now is a package-level var to allow test injection.
var now = time.Now

// DateLayout is the calendar-date format used everywhere in the state blob.
const DateLayout = "2006-01-02"

// DefaultDescription is the placeholder used when no description is given.
const DefaultDescription = "No description provided"

// DefaultAssignee is the placeholder for tasks nobody has been assigned to.
const DefaultAssignee = "Unassigned"

// emailDomain is the domain used when deriving a team member's email.
const emailDomain = "company.com"

// Task status values. Transitions are unconstrained: any value may be set
// directly, including reopening a completed task.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Task belongs to exactly one project. Assignee is free text: it may name a
// team member but is not a foreign key, and no referential integrity is
// enforced at write time.
type Task struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
	DueDate     string `json:"due_date,omitempty"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// Project owns its tasks; there are no cross-project task references.
// Name uniqueness is not enforced — duplicates are permitted.
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Tasks       []Task `json:"tasks"`
	CreatedAt   string `json:"created_at"`
}

// TeamMember is an addressable person. No linkage to Task.AssignedTo exists;
// matching happens by name at query time only.
type TeamMember struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Turn is one conversation message, user or assistant.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// State is the domain data bound to one session. Slice order is insertion
// order and must survive persistence round-trips.
type State struct {
	UserName    string       `json:"user_name"`
	Projects    []Project    `json:"projects"`
	TeamMembers []TeamMember `json:"team_members"`
}

// New returns the initial state for a fresh session.
func New() *State {
	return &State{
		UserName:    "Project Manager",
		Projects:    []Project{},
		TeamMembers: []TeamMember{},
	}
}

// ─── Constructors (defaults applied at creation time only) ──────────────────

// NewProject builds a project applying the creation-time defaults:
// placeholder description and due date equal to the current date.
func NewProject(name, description, dueDate string) Project {
	today := now().Format(DateLayout)
	if description == "" {
		description = DefaultDescription
	}
	if dueDate == "" {
		dueDate = today
	}
	return Project{
		Name:        name,
		Description: description,
		DueDate:     dueDate,
		Tasks:       []Task{},
		CreatedAt:   today,
	}
}

// NewTask builds a task with defaults: unassigned, placeholder description,
// medium priority, pending status. Due date stays empty when absent.
func NewTask(name, description, assignedTo, dueDate, priority string) Task {
	if description == "" {
		description = DefaultDescription
	}
	if assignedTo == "" {
		assignedTo = DefaultAssignee
	}
	if priority == "" {
		priority = PriorityMedium
	}
	return Task{
		Name:        name,
		Description: description,
		AssignedTo:  assignedTo,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      StatusPending,
		CreatedAt:   now().Format(DateLayout),
	}
}

// NewTeamMember builds a team member, deriving the email from the name's
// initials when none is given ("Sarah Johnson" → "s.j@company.com").
func NewTeamMember(name, role, email string) TeamMember {
	if email == "" {
		email = DeriveEmail(name)
	}
	return TeamMember{
		Name:      name,
		Role:      role,
		Email:     email,
		CreatedAt: now().Format(DateLayout),
	}
}

// DeriveEmail builds the first-initial.last-initial@domain convention from a
// free-text name. Single-word names yield just the one initial.
func DeriveEmail(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return "@" + emailDomain
	}
	first := string([]rune(fields[0])[0])
	if len(fields) == 1 {
		return first + "@" + emailDomain
	}
	last := string([]rune(fields[len(fields)-1])[0])
	return first + "." + last + "@" + emailDomain
}

// ─── Validation ──────────────────────────────────────────────────────────────

// ValidDate reports whether d parses as a YYYY-MM-DD calendar date.
func ValidDate(d string) bool {
	_, err := time.Parse(DateLayout, d)
	return err == nil
}
