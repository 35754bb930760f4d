package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/app"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
)

// taskCmd implements 'teamboard task'.
func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Create, inspect and share tasks",
	}
	cmd.AddCommand(
		taskListCmd(),
		taskShowCmd(),
		taskAddCmd(),
		taskEditCmd(),
		taskRmCmd(),
		taskAssignCmd(),
		taskUnassignCmd(),
		taskCommentCmd(),
		taskCommentsCmd(),
	)
	return cmd
}

func projectFlag(cmd *cobra.Command, target *int64) {
	cmd.Flags().Int64VarP(target, "project", "p", 0, "Project id")
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func taskListCmd() *cobra.Command {
	var (
		project   int64
		query     string
		priority  string
		completed string
		from      string
		to        string
		limit     int
		offset    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks you can see",
		Example: `  teamboard task list --search release
  teamboard task list --priority critical --completed=false
  teamboard task list --from 2026-03-01 --to 2026-03-31 --limit 20`,
		Run: func(cmd *cobra.Command, _ []string) {
			user := currentUser()
			filter := app.TaskFilter{
				ProjectID: optionalID(project),
				Query:     query,
				Limit:     limit,
				Offset:    offset,
			}
			if priority != "" {
				p, err := parsePriority(priority)
				if err != nil {
					printError(err)
				}
				filter.Priority = &p
			}
			if cmd.Flags().Changed("completed") {
				done, err := strconv.ParseBool(completed)
				if err != nil {
					printError(tberrors.ValidationError{Field: "completed", Reason: fmt.Sprintf("%q is not true or false", completed)})
				}
				filter.Completed = &done
			}
			if from != "" {
				t, err := parseTime(from, "from")
				if err != nil {
					printError(err)
				}
				filter.From = &t
			}
			if to != "" {
				t, err := parseTime(to, "to")
				if err != nil {
					printError(err)
				}
				filter.To = &t
			}

			withService(func(svc *app.Service) error {
				tasks, _, err := svc.ListTasks(context.Background(), user, filter)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTaskList(tasks))
				return nil
			})
		},
	}
	projectFlag(cmd, &project)
	cmd.Flags().StringVarP(&query, "search", "s", "", "Match text in title or description")
	cmd.Flags().StringVar(&priority, "priority", "", "Only this priority: low, medium, high, critical")
	cmd.Flags().StringVar(&completed, "completed", "", "Only completed (true) or open (false) tasks")
	cmd.Flags().StringVar(&from, "from", "", "Created at or after this time")
	cmd.Flags().StringVar(&to, "to", "", "Created at or before this time")
	cmd.Flags().IntVar(&limit, "limit", 0, fmt.Sprintf("Return at most this many tasks (max %d)", app.MaxPageSize))
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many matching tasks")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				task, err := svc.GetTask(context.Background(), user, id)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTask(task))
				return nil
			})
		},
	}
}

func taskAddCmd() *cobra.Command {
	var (
		description string
		priority    string
		due         string
		project     int64
		assignees   []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new task",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()

			p, err := parsePriority(priority)
			if err != nil {
				printError(err)
			}
			in := app.NewTask{
				Title:       args[0],
				Description: description,
				Priority:    p,
				ProjectID:   optionalID(project),
				Assignees:   assignees,
			}
			if due != "" {
				d, err := parseTime(due, "due date")
				if err != nil {
					printError(err)
				}
				in.DueDate = &d
			}

			withService(func(svc *app.Service) error {
				task, err := svc.CreateTask(context.Background(), user, in)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTask(&app.TaskDetail{Task: *task}))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&priority, "priority", "low", "Priority: low, medium, high, critical")
	cmd.Flags().StringVar(&due, "due", "", "Due date (2006-01-02, 2006-01-02 15:04 or RFC 3339)")
	cmd.Flags().StringSliceVarP(&assignees, "assign", "a", nil, "Users to assign with Editor permission")
	projectFlag(cmd, &project)
	return cmd
}

func taskEditCmd() *cobra.Command {
	var (
		title       string
		description string
		priority    string
		due         string
		clearDue    bool
	)
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task's content",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")

			var patch app.TaskPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				p, err := parsePriority(priority)
				if err != nil {
					printError(err)
				}
				patch.Priority = &p
			}
			if due != "" {
				d, err := parseTime(due, "due date")
				if err != nil {
					printError(err)
				}
				patch.DueDate = &d
			}
			patch.ClearDueDate = clearDue

			withService(func(svc *app.Service) error {
				task, err := svc.UpdateTask(context.Background(), user, id, patch)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTask(&app.TaskDetail{Task: *task}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority: low, medium, high, critical")
	cmd.Flags().StringVar(&due, "due", "", "New due date")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	return cmd
}

func taskRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				if err := svc.DeleteTask(context.Background(), user, id); err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("Deleted task #%d", id)))
				return nil
			})
		},
	}
}

func taskAssignCmd() *cobra.Command {
	var permission, note string
	cmd := &cobra.Command{
		Use:   "assign <task-id> <user>",
		Short: "Give a user direct access to a task",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				a, err := svc.Assign(context.Background(), user, id, args[1], models.Permission(permission), note)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("Assigned #%d to %s (%s)", id, a.UserID, a.Permission)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&permission, "permission", string(models.PermissionEditor), "Viewer or Editor")
	cmd.Flags().StringVar(&note, "note", "", "Note for the assignee")
	return cmd
}

func taskUnassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <task-id> <user>",
		Short: "Remove a user's direct access",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				if err := svc.Unassign(context.Background(), user, id, args[1]); err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("Unassigned %s from #%d", args[1], id)))
				return nil
			})
		},
	}
}

func taskCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <task-id> <text>",
		Short: "Comment on a task",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				if _, err := svc.AddComment(context.Background(), user, id, args[1]); err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("Commented on #%d", id)))
				return nil
			})
		},
	}
}

func taskCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <task-id>",
		Short: "List a task's comments",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				comments, err := svc.ListComments(context.Background(), user, id)
				if err != nil {
					return err
				}
				if len(comments) == 0 {
					printOutput(formatter.FormatMessage("No comments."))
					return nil
				}
				for _, c := range comments {
					printOutput(formatter.FormatMessage(fmt.Sprintf("%s  %s: %s", c.CreatedAt.Local().Format("2006-01-02 15:04"), c.UserID, c.Content)))
				}
				return nil
			})
		},
	}
}
