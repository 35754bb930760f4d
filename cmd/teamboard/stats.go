package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/app"
)

// statsCmd implements 'teamboard stats', the dashboard summary.
func statsCmd() *cobra.Command {
	var (
		project int64
		days    int
	)
	cmd := &cobra.Command{
		Use:     "stats",
		Aliases: []string{"dashboard"},
		Short:   "Summarise the tasks you can see",
		Run: func(_ *cobra.Command, _ []string) {
			user := currentUser()
			withService(func(svc *app.Service) error {
				stats, err := svc.Stats(context.Background(), user, optionalID(project), days)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatStats(stats))
				return nil
			})
		},
	}
	projectFlag(cmd, &project)
	cmd.Flags().IntVar(&days, "days", app.DefaultStatsDays, fmt.Sprintf("Days of activity to show (1-%d)", app.MaxStatsDays))
	return cmd
}
