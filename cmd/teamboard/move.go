package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
)

// moveCmd implements 'teamboard move'.
func moveCmd() *cobra.Command {
	var position int
	cmd := &cobra.Command{
		Use:   "move <task-id> <Todo|InProgress|Done>",
		Short: "Move a task to another column",
		Long: `Move a task to another Kanban column. Moving into Done marks the task
completed; moving out of Done reopens it. --position also reorders it within
the column.`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			status := parseStatus(args[1])
			withService(func(svc *app.Service) error {
				ctx := context.Background()
				task, err := svc.UpdateStatus(ctx, user, id, status)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("position") {
					if task, err = svc.UpdatePosition(ctx, user, id, position); err != nil {
						return err
					}
				}
				msg := fmt.Sprintf("Moved #%d to %s", task.ID, task.Status)
				if task.Status == models.StatusDone {
					msg += " (completed)"
				}
				printOutput(formatter.FormatMessage(msg))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&position, "position", 0, "Position within the column")
	return cmd
}
