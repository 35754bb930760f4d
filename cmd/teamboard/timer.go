package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/app"
)

// timerCmd implements 'teamboard timer'.
func timerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Track time spent on tasks",
	}
	cmd.AddCommand(timerStartCmd(), timerStopCmd(), timerLogCmd(), timerReportCmd(), timerStatusCmd())
	return cmd
}

func timerStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Start a timer on a task",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				entry, err := svc.StartTimer(context.Background(), user, id)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTimeEntry(entry))
				return nil
			})
		},
	}
}

func timerStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <task-id>",
		Short: "Stop your running timer on a task",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				entry, err := svc.StopTimer(context.Background(), user, id)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTimeEntry(entry))
				return nil
			})
		},
	}
}

func timerLogCmd() *cobra.Command {
	var start, end, notes string
	cmd := &cobra.Command{
		Use:   "log <task-id> --start <time> --end <time>",
		Short: "Record time worked without a timer",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			from, err := parseTime(start, "start")
			if err != nil {
				printError(err)
			}
			to, err := parseTime(end, "end")
			if err != nil {
				printError(err)
			}
			withService(func(svc *app.Service) error {
				entry, err := svc.LogManual(context.Background(), user, id, from, to, notes)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTimeEntry(entry))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "When work started")
	cmd.Flags().StringVar(&end, "end", "", "When work ended")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "What was done")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func timerReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <task-id>",
		Short: "Show a task's time history and total",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			user := currentUser()
			id := parseID(args[0], "task id")
			withService(func(svc *app.Service) error {
				report, err := svc.TimeReport(context.Background(), user, id)
				if err != nil {
					return err
				}
				printOutput(formatter.FormatTimeReport(report))
				return nil
			})
		},
	}
}

func timerStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your running timer",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			user := currentUser()
			withService(func(svc *app.Service) error {
				entry, err := svc.ActiveTimer(context.Background(), user)
				if err != nil {
					return err
				}
				if entry == nil {
					printOutput(formatter.FormatMessage("No timer running."))
					return nil
				}
				printOutput(formatter.FormatTimeEntry(entry))
				return nil
			})
		},
	}
}
