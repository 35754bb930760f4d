package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
)

// projectCmd implements 'teamboard project'.
func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "Manage projects and their members",
	}
	cmd.AddCommand(
		projectListCmd(),
		projectShowCmd(),
		projectCreateCmd(),
		projectRenameCmd(),
		projectDeleteCmd(),
		projectAddMemberCmd(),
		projectRemoveMemberCmd(),
	)
	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your projects",
		Run: func(_ *cobra.Command, _ []string) {
			user := currentUser()
			withService(func(svc *app.Service) error {
				projects, err := svc.ListProjects(context.Background(), user)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatProjects(projects))
				return nil
			})
		},
	}
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its members",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "project id")
			withService(func(svc *app.Service) error {
				project, err := svc.GetProject(context.Background(), user, id)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatProject(project))
				return nil
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a project you own",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			withService(func(svc *app.Service) error {
				project, err := svc.CreateProject(context.Background(), user, args[0], description)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("Created project #%d %s", project.ID, project.Title)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	return cmd
}

func projectRenameCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "rename <project-id> <title>",
		Short: "Change a project's title and description",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "project id")
			withService(func(svc *app.Service) error {
				project, err := svc.UpdateProject(context.Background(), user, id, args[1], description)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("Updated project #%d %s", project.ID, project.Title)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "project id")
			withService(func(svc *app.Service) error {
				if err := svc.DeleteProject(context.Background(), user, id); err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("Deleted project #%d", id)))
				return nil
			})
		},
	}
}

func projectAddMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-member <project-id> <user> <Owner|Editor|Viewer>",
		Short: "Add a member or change their role",
		Args:  cobra.ExactArgs(3),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "project id")
			withService(func(svc *app.Service) error {
				member, err := svc.AddMember(context.Background(), user, id, args[1], models.Role(args[2]))
				if err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("%s is now %s in project #%d", member.UserID, member.Role, id)))
				return nil
			})
		},
	}
}

func projectRemoveMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <project-id> <user>",
		Short: "Remove a member from a project",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "project id")
			withService(func(svc *app.Service) error {
				if err := svc.RemoveMember(context.Background(), user, id, args[1]); err != nil {
					return err
				}
				printOutput(formatter.FormatMessage(fmt.Sprintf("Removed %s from project #%d", args[1], id)))
				return nil
			})
		},
	}
}
