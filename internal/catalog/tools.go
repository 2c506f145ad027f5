package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/avictorio/taskpilot/internal/state"
)

// statusEnum and priorityEnum are the enumerated task fields published in
// the operation schemas.
var (
	statusEnum   = []string{state.StatusPending, state.StatusInProgress, state.StatusCompleted}
	priorityEnum = []string{state.PriorityLow, state.PriorityMedium, state.PriorityHigh}
)

// lookupResult converts a lookup failure into its outcome record. Lookup
// failures never abort the conversation.
func lookupResult(action string, err error) Result {
	status := StatusError
	switch {
	case errors.Is(err, state.ErrNotFound):
		status = StatusNotFound
	case errors.Is(err, state.ErrAmbiguous):
		status = StatusMultiple
	}
	return Result{Action: action, Status: status, Message: err.Error()}
}

// registerAll wires the complete operation set. Registration order is the
// order the specs are published in.
func (c *Catalog) registerAll() {

	// ─── Projects ────────────────────────────────────────────────────────

	c.register(Spec{
		Name:        "add_project",
		Description: "Add a new project to the project list",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "The name of the project", Required: true},
			{Name: "description", Type: TypeString, Description: "A description of the project"},
			{Name: "due_date", Type: TypeString, Description: "The due date for the project (YYYY-MM-DD)"},
		},
	}, func(st *state.State, args Args) Result {
		dueDate := args.String("due_date")
		if dueDate != "" && !state.ValidDate(dueDate) {
			return Result{
				Action: "add_project", Status: StatusError,
				Message: fmt.Sprintf("Invalid date format: %s. Please use YYYY-MM-DD format.", dueDate),
			}
		}
		p := state.NewProject(args.String("name"), args.String("description"), dueDate)
		st.AddProject(p)
		return Result{
			Action: "add_project", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Added project: %s with due date %s", p.Name, p.DueDate),
		}
	})

	c.register(Spec{
		Name:        "view_projects",
		Description: "View all current projects",
	}, func(st *state.State, _ Args) Result {
		if len(st.Projects) == 0 {
			return Result{
				Action: "view_projects", Status: StatusSuccess,
				Message: "No projects found. You can create a new project by saying 'Create a project called [Project Name]'.",
			}
		}
		lines := make([]string, len(st.Projects))
		for i, p := range st.Projects {
			completed := 0
			for _, t := range p.Tasks {
				if t.Status == state.StatusCompleted {
					completed++
				}
			}
			lines[i] = fmt.Sprintf("%d. %s - Due: %s (Tasks: %d/%d completed)",
				i+1, p.Name, p.DueDate, completed, len(p.Tasks))
		}
		return Result{
			Action: "view_projects", Status: StatusSuccess, Count: len(st.Projects),
			Message: fmt.Sprintf("Current projects (%d):\n%s", len(st.Projects), strings.Join(lines, "\n")),
		}
	})

	c.register(Spec{
		Name:        "find_project",
		Description: "Find a project by name (case-insensitive substring match)",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "The name of the project", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		pattern := args.String("name")
		matches := st.FindProjects(pattern)
		switch len(matches) {
		case 0:
			return Result{
				Action: "find_project", Status: StatusNotFound,
				Message: fmt.Sprintf("No project found with name containing '%s'", pattern),
			}
		case 1:
			return Result{
				Action: "find_project", Status: StatusSuccess, Count: 1, Matches: matches,
				Message: fmt.Sprintf("Found project: %s at index %d", matches[0].Project.Name, matches[0].Index),
			}
		default:
			return Result{
				Action: "find_project", Status: StatusMultiple, Count: len(matches), Matches: matches,
				Message: fmt.Sprintf("Found %d projects matching '%s'", len(matches), pattern),
			}
		}
	})

	c.register(Spec{
		Name:        "delete_project",
		Description: "Delete the single project matching a name",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "The name of the project to delete", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		name, err := st.DeleteProject(args.String("name"))
		if err != nil {
			return lookupResult("delete_project", err)
		}
		return Result{
			Action: "delete_project", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Deleted project: %s", name),
		}
	})

	c.register(Spec{
		Name:        "clear_all_projects",
		Description: "Delete every project and all of their tasks. Destructive; requires confirmation.",
		Params: []Param{
			{Name: "confirm", Type: TypeBoolean, Description: "Must be true to proceed", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		if !args.Bool("confirm") {
			return Result{
				Action: "clear_all_projects", Status: StatusError,
				Message: "Confirmation required: pass confirm=true to clear all projects.",
			}
		}
		n := st.ClearProjects()
		return Result{
			Action: "clear_all_projects", Status: StatusSuccess, Count: n,
			Message: "All projects have been cleared.",
		}
	})

	// ─── Tasks ───────────────────────────────────────────────────────────

	c.register(Spec{
		Name:        "add_task",
		Description: "Add a task to the project matching a name",
		Params: []Param{
			{Name: "project_name", Type: TypeString, Description: "The name of the project", Required: true},
			{Name: "name", Type: TypeString, Description: "The name of the task", Required: true},
			{Name: "assigned_to", Type: TypeString, Description: "Who the task is assigned to"},
			{Name: "description", Type: TypeString, Description: "Description of the task"},
			{Name: "due_date", Type: TypeString, Description: "Due date for the task (YYYY-MM-DD)"},
			{Name: "priority", Type: TypeString, Description: "Priority level", Default: state.PriorityMedium, Enum: priorityEnum},
		},
	}, func(st *state.State, args Args) Result {
		dueDate := args.String("due_date")
		if dueDate != "" && !state.ValidDate(dueDate) {
			return Result{
				Action: "add_task", Status: StatusError,
				Message: fmt.Sprintf("Invalid date format: %s. Please use YYYY-MM-DD format.", dueDate),
			}
		}
		t := state.NewTask(args.String("name"), args.String("description"),
			args.String("assigned_to"), dueDate, args.String("priority"))
		project, err := st.AddTask(args.String("project_name"), t)
		if err != nil {
			return lookupResult("add_task", err)
		}
		return Result{
			Action: "add_task", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Added task '%s' to project '%s'", t.Name, project),
		}
	})

	c.register(Spec{
		Name:        "list_tasks",
		Description: "List tasks across all projects, optionally filtered by name",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "Only tasks whose name contains this pattern"},
		},
	}, func(st *state.State, args Args) Result {
		refs := st.FindTasks(args.String("name"))
		if len(refs) == 0 {
			return Result{
				Action: "list_tasks", Status: StatusSuccess,
				Message: "No tasks found.",
			}
		}
		lines := make([]string, len(refs))
		for i, r := range refs {
			lines[i] = fmt.Sprintf("%d. %s [%s, %s] - %s (project: %s)",
				i+1, r.Task.Name, r.Task.Status, r.Task.Priority, r.Task.AssignedTo, r.ProjectName)
		}
		return Result{
			Action: "list_tasks", Status: StatusSuccess, Count: len(refs),
			Message: fmt.Sprintf("Tasks (%d):\n%s", len(refs), strings.Join(lines, "\n")),
		}
	})

	c.register(Spec{
		Name:        "update_task_status",
		Description: "Update the status of a task. Any status may be set directly, including reopening a completed task.",
		Params: []Param{
			{Name: "project_name", Type: TypeString, Description: "The name of the project", Required: true},
			{Name: "task_name", Type: TypeString, Description: "The name of the task", Required: true},
			{Name: "status", Type: TypeString, Description: "The new status", Required: true, Enum: statusEnum},
		},
	}, func(st *state.State, args Args) Result {
		prev, project, task, err := st.UpdateTaskStatus(
			args.String("project_name"), args.String("task_name"), args.String("status"))
		if err != nil {
			return lookupResult("update_task_status", err)
		}
		return Result{
			Action: "update_task_status", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Updated task '%s' status from '%s' to '%s' in project '%s'.",
				task, prev, args.String("status"), project),
		}
	})

	c.register(Spec{
		Name:        "update_task_priority",
		Description: "Update the priority of a task",
		Params: []Param{
			{Name: "project_name", Type: TypeString, Description: "The name of the project", Required: true},
			{Name: "task_name", Type: TypeString, Description: "The name of the task", Required: true},
			{Name: "priority", Type: TypeString, Description: "The new priority", Required: true, Enum: priorityEnum},
		},
	}, func(st *state.State, args Args) Result {
		prev, project, task, err := st.UpdateTaskPriority(
			args.String("project_name"), args.String("task_name"), args.String("priority"))
		if err != nil {
			return lookupResult("update_task_priority", err)
		}
		return Result{
			Action: "update_task_priority", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Updated task '%s' priority from '%s' to '%s' in project '%s'.",
				task, prev, args.String("priority"), project),
		}
	})

	c.register(Spec{
		Name:        "reassign_task",
		Description: "Reassign a task to someone. The assignee is free text and need not be an existing team member.",
		Params: []Param{
			{Name: "project_name", Type: TypeString, Description: "The name of the project", Required: true},
			{Name: "task_name", Type: TypeString, Description: "The name of the task", Required: true},
			{Name: "assigned_to", Type: TypeString, Description: "The new assignee", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		prev, project, task, err := st.ReassignTask(
			args.String("project_name"), args.String("task_name"), args.String("assigned_to"))
		if err != nil {
			return lookupResult("reassign_task", err)
		}
		return Result{
			Action: "reassign_task", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Reassigned task '%s' from '%s' to '%s' in project '%s'.",
				task, prev, args.String("assigned_to"), project),
		}
	})

	c.register(Spec{
		Name:        "delete_task",
		Description: "Delete the single task matching a name within a project",
		Params: []Param{
			{Name: "project_name", Type: TypeString, Description: "The name of the project", Required: true},
			{Name: "task_name", Type: TypeString, Description: "The name of the task", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		project, task, err := st.DeleteTask(args.String("project_name"), args.String("task_name"))
		if err != nil {
			return lookupResult("delete_task", err)
		}
		return Result{
			Action: "delete_task", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Deleted task '%s' from project '%s'.", task, project),
		}
	})

	c.register(Spec{
		Name:        "delete_tasks_by_name",
		Description: "Delete every task whose name contains a pattern, across all projects, and report the count removed",
		Params: []Param{
			{Name: "task_name", Type: TypeString, Description: "The name pattern to match", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		pattern := args.String("task_name")
		count, affected := st.DeleteTasksByPattern(pattern)
		if count == 0 {
			return Result{
				Action: "delete_tasks_by_name", Status: StatusNotFound,
				Message: fmt.Sprintf("No tasks found with name containing '%s'.", pattern),
			}
		}
		return Result{
			Action: "delete_tasks_by_name", Status: StatusSuccess, Count: count, Affected: affected,
			Message: fmt.Sprintf("Deleted %d task(s) containing '%s' from project(s): %s",
				count, pattern, strings.Join(affected, ", ")),
		}
	})

	c.register(Spec{
		Name:        "remove_completed_tasks",
		Description: "Remove all completed tasks from all projects",
	}, func(st *state.State, _ Args) Result {
		count, affected := st.RemoveCompletedTasks()
		if count == 0 {
			return Result{
				Action: "remove_completed_tasks", Status: StatusNotFound,
				Message: "No completed tasks found to remove.",
			}
		}
		return Result{
			Action: "remove_completed_tasks", Status: StatusSuccess, Count: count, Affected: affected,
			Message: fmt.Sprintf("Removed %d completed task(s) from project(s): %s",
				count, strings.Join(affected, ", ")),
		}
	})

	// ─── Team members ────────────────────────────────────────────────────

	c.register(Spec{
		Name:        "add_team_member",
		Description: "Add a new team member. Email defaults to the initials convention when omitted.",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "The name of the team member", Required: true},
			{Name: "role", Type: TypeString, Description: "The role of the team member", Required: true},
			{Name: "email", Type: TypeString, Description: "The email of the team member"},
		},
	}, func(st *state.State, args Args) Result {
		m := state.NewTeamMember(args.String("name"), args.String("role"), args.String("email"))
		st.AddTeamMember(m)
		return Result{
			Action: "add_team_member", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Added team member: %s with role %s and email %s", m.Name, m.Role, m.Email),
		}
	})

	c.register(Spec{
		Name:        "view_team_members",
		Description: "View all team members",
	}, func(st *state.State, _ Args) Result {
		if len(st.TeamMembers) == 0 {
			return Result{
				Action: "view_team_members", Status: StatusSuccess,
				Message: "No team members found. You can add team members by saying 'Add [Name] as a [Role]'.",
			}
		}
		lines := make([]string, len(st.TeamMembers))
		for i, m := range st.TeamMembers {
			lines[i] = fmt.Sprintf("%d. %s - %s (%s)", i+1, m.Name, m.Role, m.Email)
		}
		return Result{
			Action: "view_team_members", Status: StatusSuccess, Count: len(st.TeamMembers),
			Message: fmt.Sprintf("Current team members (%d):\n%s", len(st.TeamMembers), strings.Join(lines, "\n")),
		}
	})

	c.register(Spec{
		Name:        "find_team_member",
		Description: "Find a team member by name (case-insensitive substring match)",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "The name of the team member", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		pattern := args.String("name")
		matches := st.FindTeamMembers(pattern)
		switch len(matches) {
		case 0:
			return Result{
				Action: "find_team_member", Status: StatusNotFound,
				Message: fmt.Sprintf("No team member found with name containing '%s'", pattern),
			}
		case 1:
			return Result{
				Action: "find_team_member", Status: StatusSuccess, Count: 1, Matches: matches,
				Message: fmt.Sprintf("Found team member: %s at index %d", matches[0].Member.Name, matches[0].Index),
			}
		default:
			return Result{
				Action: "find_team_member", Status: StatusMultiple, Count: len(matches), Matches: matches,
				Message: fmt.Sprintf("Found %d team members matching '%s'", len(matches), pattern),
			}
		}
	})

	c.register(Spec{
		Name:        "update_team_member",
		Description: "Update the single team member matching a name. Only the provided fields change.",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "The name of the team member to update", Required: true},
			{Name: "new_name", Type: TypeString, Description: "The new name"},
			{Name: "role", Type: TypeString, Description: "The new role"},
			{Name: "email", Type: TypeString, Description: "The new email"},
		},
	}, func(st *state.State, args Args) Result {
		m, err := st.UpdateTeamMember(args.String("name"),
			args.String("new_name"), args.String("role"), args.String("email"))
		if err != nil {
			return lookupResult("update_team_member", err)
		}
		return Result{
			Action: "update_team_member", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Updated team member: %s", m.Name),
		}
	})

	c.register(Spec{
		Name:        "delete_team_member",
		Description: "Delete the single team member matching a name",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "The name of the team member to delete", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		name, err := st.DeleteTeamMember(args.String("name"))
		if err != nil {
			return lookupResult("delete_team_member", err)
		}
		return Result{
			Action: "delete_team_member", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Deleted team member: %s", name),
		}
	})

	c.register(Spec{
		Name:        "clear_all_team_members",
		Description: "Delete every team member. Destructive; requires confirmation.",
		Params: []Param{
			{Name: "confirm", Type: TypeBoolean, Description: "Must be true to proceed", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		if !args.Bool("confirm") {
			return Result{
				Action: "clear_all_team_members", Status: StatusError,
				Message: "Confirmation required: pass confirm=true to clear all team members.",
			}
		}
		n := st.ClearTeamMembers()
		return Result{
			Action: "clear_all_team_members", Status: StatusSuccess, Count: n,
			Message: "All team members have been cleared.",
		}
	})

	// ─── Misc ────────────────────────────────────────────────────────────

	c.register(Spec{
		Name:        "clear_all_data",
		Description: "Delete every project, task, and team member. Destructive; requires confirmation.",
		Params: []Param{
			{Name: "confirm", Type: TypeBoolean, Description: "Must be true to proceed", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		if !args.Bool("confirm") {
			return Result{
				Action: "clear_all_data", Status: StatusError,
				Message: "Confirmation required: pass confirm=true to clear all data.",
			}
		}
		n := st.ClearProjects() + st.ClearTeamMembers()
		return Result{
			Action: "clear_all_data", Status: StatusSuccess, Count: n,
			Message: "All projects, tasks, and team members have been cleared.",
		}
	})

	c.register(Spec{
		Name:        "update_user_name",
		Description: "Update the user's display name",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "The user's name", Required: true},
		},
	}, func(st *state.State, args Args) Result {
		st.UserName = args.String("name")
		return Result{
			Action: "update_user_name", Status: StatusSuccess, Count: 1,
			Message: fmt.Sprintf("Updated user name to: %s", st.UserName),
		}
	})
}
