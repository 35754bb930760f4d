package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/config"
	"github.com/tgienger/teamboard/internal/db"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/notify"
	"github.com/tgienger/teamboard/internal/output"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

//nolint:gochecknoglobals // CLI flags and formatter are package-level by design
var (
	cfgFile      string
	outputFormat string
	userFlag     string
	cfg          *config.Config
	formatter    output.Formatter
	log          *logrus.Entry
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "teamboard",
		Short:         "Shared Kanban board with dependencies and time tracking",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if cfg, err = config.Load(cfgFile); err != nil {
				return err
			}
			if userFlag != "" {
				cfg.User = userFlag
			}
			if formatter, err = output.New(outputFormat); err != nil {
				formatter = output.NewHumanFormatter()
				return err
			}
			// the TUI owns the terminal, so it only logs to a file
			interactive := cmd.Name() == "board"
			log, err = setupLogger(cfg.Env, cfg.LogFile, interactive)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/teamboard/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", output.FormatHuman, "Output format: human, json or yaml")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Act as this user (overrides config)")

	rootCmd.AddCommand(
		serveCmd(),
		boardCmd(),
		projectCmd(),
		taskCmd(),
		moveCmd(),
		depCmd(),
		timerCmd(),
		statsCmd(),
		configCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
	}
}

func setupLogger(env, logFilePath string, interactive bool) (*logrus.Entry, error) {
	var log = logrus.New()

	var out io.Writer = os.Stderr
	if logFilePath != "" {
		logFile, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		out = logFile
	} else if interactive {
		out = io.Discard
	}
	log.SetOutput(out)

	switch env {
	case config.EnvLocal:
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{ForceColors: logFilePath == "" && !interactive, FullTimestamp: true})
	case config.EnvDev:
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.WarnLevel)
	}

	return logrus.NewEntry(log).WithField("env", env), nil
}

// openService opens the database and wires the application service. The
// returned func flushes pending notifications and closes the database.
func openService() (*app.Service, *db.DB, func(), error) {
	database, err := db.New(cfg.Database.Path, db.Options{BusyTimeout: cfg.Database.BusyTimeout()})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	events := notify.NewDispatcher(
		notify.LogNotifier{Log: log.WithField("component", "notify")},
		notify.LogCalendar{Log: log.WithField("component", "calendar")},
		log,
		10*time.Second,
	)

	svc := app.New(database, events, log, app.Options{
		LockBlockedTasks: cfg.Policy.LockBlockedTasks,
		GateManualTime:   cfg.Policy.GateManualTime,
	})

	cleanup := func() {
		events.Wait()
		database.Close()
	}
	return svc, database, cleanup, nil
}

// withService runs fn against a freshly opened service and prints any error.
func withService(fn func(svc *app.Service) error) {
	svc, _, cleanup, err := openService()
	if err != nil {
		printError(err)
	}
	err = fn(svc)
	cleanup()
	if err != nil {
		printError(err)
	}
}

func currentUser() string {
	if cfg.User == "" {
		printError(tberrors.ValidationError{Field: "user", Reason: "set --user, TEAMBOARD_USER or user in the config file"})
	}
	return cfg.User
}

func printOutput(s string) {
	os.Stdout.WriteString(s) //nolint:gosec // stdout write errors are unrecoverable
}

func printError(err error) {
	f := formatter
	if f == nil {
		f = output.NewHumanFormatter()
	}
	os.Stdout.WriteString(f.FormatError(err)) //nolint:gosec // stdout write errors are unrecoverable
	os.Exit(1)
}

func parseID(raw, what string) int64 {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || id <= 0 {
		printError(tberrors.ValidationError{Field: what, Reason: fmt.Sprintf("%q is not a valid id", raw)})
	}
	return id
}

// parseStatus matches column names loosely: "in-progress" and "inprogress"
// both mean InProgress. Unknown values pass through for the engine to reject.
func parseStatus(raw string) models.Status {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(raw)
	for _, s := range models.Statuses {
		if strings.EqualFold(string(s), norm) {
			return s
		}
	}
	return models.Status(raw)
}

func parsePriority(raw string) (models.Priority, error) {
	if raw == "" {
		return models.PriorityLow, nil
	}
	p, ok := models.ParsePriority(raw)
	if !ok {
		return 0, tberrors.ValidationError{Field: "priority", Reason: fmt.Sprintf("%q is not one of low, medium, high, critical", raw)}
	}
	return p, nil
}

// parseTime accepts RFC 3339, "2006-01-02 15:04" and "2006-01-02" in local time.
func parseTime(raw, what string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, tberrors.ValidationError{Field: what, Reason: fmt.Sprintf("cannot parse %q", raw)}
}
