package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/ui"
)

// boardCmd implements 'teamboard board', the interactive Kanban board.
func boardCmd() *cobra.Command {
	var project int64
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive Kanban board",
		Long: `Open the interactive Kanban board. Without --project the board opens on
the last board you viewed, or on the board picker.`,
		Run: func(_ *cobra.Command, _ []string) {
			user := currentUser()

			svc, database, cleanup, err := openService()
			if err != nil {
				printError(err)
			}

			if project > 0 {
				// reopen on the requested board; access is checked when it loads
				if _, err := svc.GetProject(context.Background(), user, project); err != nil {
					cleanup()
					printError(err)
				}
				if err := database.SetSetting(context.Background(), ui.LastBoardKey(user), fmt.Sprint(project)); err != nil {
					cleanup()
					printError(err)
				}
			}

			p := tea.NewProgram(ui.NewApp(svc, database, user), tea.WithAltScreen())
			_, err = p.Run()
			cleanup()
			if err != nil {
				printError(fmt.Errorf("run board: %w", err))
			}
		},
	}
	projectFlag(cmd, &project)
	return cmd
}
