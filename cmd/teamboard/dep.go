package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/app"
)

// depCmd implements 'teamboard dep'.
func depCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dep",
		Aliases: []string{"deps"},
		Short:   "Manage task prerequisites",
	}
	cmd.AddCommand(depAddCmd(), depRmCmd(), depListCmd(), depBlockersCmd())
	return cmd
}

func depAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <task-id> <prerequisite-id>",
		Short: "Make a task wait on another",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			prereq := parseID(args[1], "prerequisite id")
			withService(func(svc *app.Service) error {
				if err := svc.AddDependency(context.Background(), user, id, prereq); err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("#%d now depends on #%d", id, prereq)))
				return nil
			})
		},
	}
}

func depRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id> <prerequisite-id>",
		Short: "Remove a prerequisite",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			prereq := parseID(args[1], "prerequisite id")
			withService(func(svc *app.Service) error {
				if err := svc.RemoveDependency(context.Background(), user, id, prereq); err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("#%d no longer depends on #%d", id, prereq)))
				return nil
			})
		},
	}
}

func depListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's prerequisites",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				deps, err := svc.GetDependencies(context.Background(), user, id)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatDependencies(deps))
				return nil
			})
		},
	}
}

func depBlockersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blockers <task-id>",
		Short: "List the incomplete prerequisites holding a task back",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				blockers, err := svc.GetBlockers(context.Background(), user, id)
				if err != nil {
					return err
				}
				if len(blockers) == 0 {
					printOutput(formatter.FormatMessage(fmt.Sprintf("#%d is not blocked", id)))
					return nil
				}
				printOutput(formatter.FormatTaskList(blockers))
				return nil
			})
		},
	}
}
