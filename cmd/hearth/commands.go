package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kindredhq/hearth/internal/calendar"
	"github.com/kindredhq/hearth/internal/dateutil"
	"github.com/kindredhq/hearth/internal/medication"
	"github.com/kindredhq/hearth/internal/mirror"
	"github.com/kindredhq/hearth/internal/notify"
	"github.com/kindredhq/hearth/internal/syncpass"
	"github.com/kindredhq/hearth/internal/wire"
)

type uuidProvider struct{}

func (uuidProvider) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func parseDayFlag(raw string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return dateutil.StartOfDay(fallback), nil
	}
	return wire.ParseDate(raw)
}

func parseFilterFlags(kinds, countdownTypes, members []string) (calendar.Filter, error) {
	filter := calendar.Filter{
		CountdownTypes: countdownTypes,
		MemberIDs:      members,
	}
	for _, raw := range kinds {
		matched := false
		for _, known := range calendar.Kinds() {
			if calendar.Kind(raw) == known {
				filter.Kinds = append(filter.Kinds, known)
				matched = true
				break
			}
		}
		if !matched {
			return calendar.Filter{}, fmt.Errorf("unknown event kind %q", raw)
		}
	}
	return filter, nil
}

func printEvents(events []calendar.Event) {
	for _, event := range events {
		line := fmt.Sprintf("%s  %-12s %s", event.Day().Format("2006-01-02"), event.Kind(), event.Title())
		if member := event.MemberID(); member != "" {
			line += fmt.Sprintf("  [%s]", member)
		}
		fmt.Println(line)
	}
}

func newCalendarCommand() *cobra.Command {
	var (
		fromFlag       string
		toFlag         string
		kinds          []string
		countdownTypes []string
		members        []string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the household timeline for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer application.close()

			now := time.Now()
			rangeStart, err := parseDayFlag(fromFlag, now)
			if err != nil {
				return err
			}
			rangeEnd, err := parseDayFlag(toFlag, now.AddDate(0, 1, 0))
			if err != nil {
				return err
			}
			filter, err := parseFilterFlags(kinds, countdownTypes, members)
			if err != nil {
				return err
			}

			sources, err := application.store.CalendarSources(cmd.Context())
			if err != nil {
				return err
			}
			events, err := calendar.Compose(sources, rangeStart, rangeEnd, filter)
			if err != nil {
				return err
			}
			printEvents(events)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Range start (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Range end (YYYY-MM-DD, default one month out)")
	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "Event kinds to keep")
	cmd.Flags().StringSliceVar(&countdownTypes, "countdown-types", nil, "Countdown types to keep")
	cmd.Flags().StringSliceVar(&members, "members", nil, "Member ids to keep")
	return cmd
}

// generateTodayLogs realizes today's due doses as scheduled log rows so they
// can be acted on and synced. Already-realized occurrences are left alone.
func generateTodayLogs(ctx context.Context, store *mirror.Store, day time.Time) ([]medication.Log, error) {
	schedules, err := store.Schedules(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := store.Logs(ctx)
	if err != nil {
		return nil, err
	}
	generated, err := medication.GenerateLogs(schedules, existing, day, uuidProvider{})
	if err != nil {
		return nil, err
	}
	for _, log := range generated {
		record, err := mirror.NewLocalRecord(wire.EntityTypeMedicationLog, log.ID, log.AccountID, log.ToPayload())
		if err != nil {
			return nil, err
		}
		if _, err := store.SaveLocal(ctx, record); err != nil {
			return nil, err
		}
	}
	return append(existing, generated...), nil
}

func logsOnDay(logs []medication.Log, day time.Time) []medication.Log {
	var matched []medication.Log
	for _, log := range logs {
		if dateutil.SameDay(log.ScheduledAt, day) {
			matched = append(matched, log)
		}
	}
	return matched
}

func newTodayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's agenda and dose checklist",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer application.close()

			ctx := cmd.Context()
			today := dateutil.StartOfDay(time.Now())

			logs, err := generateTodayLogs(ctx, application.store, today)
			if err != nil {
				return err
			}

			sources, err := application.store.CalendarSources(ctx)
			if err != nil {
				return err
			}
			events, err := calendar.Compose(sources, today, today, calendar.Filter{})
			if err != nil {
				return err
			}
			printEvents(events)

			todayLogs := logsOnDay(logs, today)
			if len(todayLogs) > 0 {
				fmt.Println()
				for _, log := range todayLogs {
					fmt.Printf("%s  %-10s %s\n", log.ScheduledAt.Format("15:04"), log.Status, log.MedicationID)
				}
			}

			schedules, err := application.store.Schedules(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("\nday: %s\n", medication.ClassifyDayWithSchedules(today, todayLogs, schedules))
			return nil
		},
	}
}

func newSummaryCommand() *cobra.Command {
	var monthFlag string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the monthly adherence summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer application.close()

			month := time.Now()
			if strings.TrimSpace(monthFlag) != "" {
				parsed, err := time.Parse("2006-01", monthFlag)
				if err != nil {
					return fmt.Errorf("invalid month %q, want YYYY-MM", monthFlag)
				}
				month = parsed
			}
			monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
			monthEnd := monthStart.AddDate(0, 1, 0)

			logs, err := application.store.Logs(cmd.Context())
			if err != nil {
				return err
			}
			var monthLogs []medication.Log
			for _, log := range logs {
				if !log.ScheduledAt.Before(monthStart) && log.ScheduledAt.Before(monthEnd) {
					monthLogs = append(monthLogs, log)
				}
			}

			summary := medication.Summarize(monthLogs)
			fmt.Printf("%s: taken %d, missed %d, skipped %d, adherence %d%%\n",
				monthStart.Format("January 2006"),
				summary.TakenCount, summary.MissedCount, summary.SkippedCount,
				summary.AdherencePercentage)
			return nil
		},
	}

	cmd.Flags().StringVar(&monthFlag, "month", "", "Month to summarize (YYYY-MM, default current)")
	return cmd
}

func newStreakCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the current run of fully-taken days",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer application.close()

			logs, err := application.store.Logs(cmd.Context())
			if err != nil {
				return err
			}

			streak := medication.CurrentStreak(time.Now(), func(day time.Time) []medication.Log {
				return logsOnDay(logs, day)
			})
			fmt.Printf("streak: %d day(s)\n", streak)
			return nil
		},
	}
}

func newLogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "log <log-id> <taken|missed|skipped>",
		Short: "Record the outcome of a scheduled dose",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := medication.ParseLogStatus(args[1])
			if err != nil {
				return err
			}

			application, err := newApp()
			if err != nil {
				return err
			}
			defer application.close()

			ctx := cmd.Context()
			record, found, err := application.store.Get(ctx, wire.EntityTypeMedicationLog, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no dose log with id %q", args[0])
			}

			payload, err := wire.DecodeMedicationLog([]byte(record.PayloadJSON))
			if err != nil {
				return err
			}
			log, err := medication.LogFromPayload(payload)
			if err != nil {
				return err
			}

			updated := log.WithStatus(status, time.Now().UTC())
			next, err := mirror.NewLocalRecord(wire.EntityTypeMedicationLog, updated.ID, updated.AccountID, updated.ToPayload())
			if err != nil {
				return err
			}
			if _, err := application.store.SaveLocal(ctx, next); err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", updated.ID, updated.Status)
			return nil
		},
	}
}

func runSyncPass(ctx context.Context, application *app) (syncpass.Report, error) {
	remote, err := application.newRemote()
	if err != nil {
		return syncpass.Report{}, err
	}
	if _, err := remote.Authenticate(ctx, application.config.AccountID, application.config.DeviceID, application.config.JoinCode); err != nil {
		return syncpass.Report{}, err
	}

	runner, err := syncpass.NewRunner(syncpass.Config{
		Store:  application.store,
		Remote: remote,
		Logger: application.logger,
	})
	if err != nil {
		return syncpass.Report{}, err
	}
	return runner.RunPass(ctx)
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass against the household server",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer application.close()

			report, err := runSyncPass(cmd.Context(), application)
			if err != nil {
				return err
			}
			for _, entity := range report.Entities {
				if entity.Err != nil {
					fmt.Printf("%-16s failed: %v\n", entity.EntityType, entity.Err)
					continue
				}
				fmt.Printf("%-16s pushed %d (accepted %d), pulled %d\n",
					entity.EntityType, entity.Pushed, entity.Accepted, entity.Pulled)
			}
			if failed := report.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d collection(s) failed to sync", len(failed))
			}
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var (
		fromFlag string
		toFlag   string
		outFlag  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the timeline as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer application.close()

			now := time.Now()
			rangeStart, err := parseDayFlag(fromFlag, now)
			if err != nil {
				return err
			}
			rangeEnd, err := parseDayFlag(toFlag, now.AddDate(0, 3, 0))
			if err != nil {
				return err
			}

			sources, err := application.store.CalendarSources(cmd.Context())
			if err != nil {
				return err
			}
			events, err := calendar.Compose(sources, rangeStart, rangeEnd, calendar.Filter{})
			if err != nil {
				return err
			}

			serialized := calendar.ExportICS(events, now)
			if outFlag == "" {
				fmt.Print(serialized)
				return nil
			}
			return os.WriteFile(outFlag, []byte(serialized), 0o644)
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Range start (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Range end (YYYY-MM-DD, default three months out)")
	cmd.Flags().StringVar(&outFlag, "out", "", "Output path (default stdout)")
	return cmd
}

// planReminders reschedules every reminder from the current mirror contents.
// Called after each sync pass so remote edits reach the scheduler.
func planReminders(ctx context.Context, application *app, scheduler notify.ReminderScheduler) error {
	today := dateutil.StartOfDay(time.Now())
	if _, err := generateTodayLogs(ctx, application.store, today); err != nil {
		return err
	}

	schedules, err := application.store.Schedules(ctx)
	if err != nil {
		return err
	}
	countdowns, err := application.store.Countdowns(ctx)
	if err != nil {
		return err
	}

	reminders := notify.MedicationReminders(schedules, today)
	reminders = append(reminders, notify.CountdownReminders(countdowns, time.Now())...)
	for _, reminder := range reminders {
		if err := scheduler.ScheduleReminder(reminder); err != nil {
			return err
		}
	}
	return nil
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Sync periodically and deliver reminders until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer application.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scheduler, err := notify.NewCronScheduler(notify.SchedulerConfig{
				Deliver: func(reminder notify.Reminder) {
					if reminder.Body != "" {
						fmt.Printf("[reminder] %s: %s\n", reminder.Title, reminder.Body)
						return
					}
					fmt.Printf("[reminder] %s\n", reminder.Title)
				},
				Logger: application.logger,
			})
			if err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			runOnce := func() {
				if report, err := runSyncPass(ctx, application); err != nil {
					if ctx.Err() != nil {
						return
					}
					application.logger.Warn("sync pass failed", zap.Error(err))
				} else if failed := report.Failed(); len(failed) > 0 {
					for _, entity := range failed {
						application.logger.Warn("collection failed to sync",
							zap.String("entity_type", string(entity.EntityType)),
							zap.Error(entity.Err))
					}
				}
				if err := planReminders(ctx, application, scheduler); err != nil && ctx.Err() == nil {
					application.logger.Warn("reminder planning failed", zap.Error(err))
				}
			}

			runOnce()

			ticker := cron.New()
			ticker.Schedule(cron.Every(application.config.SyncInterval), cron.FuncJob(runOnce))
			ticker.Start()
			defer func() { <-ticker.Stop().Done() }()

			<-ctx.Done()
			return nil
		},
	}
}
