// Package notify decides when reminders fire and hands delivery to a
// scheduler. The cron-backed scheduler keeps one entry per reminder id;
// delivery itself (push, display, sound) is the caller's callback.
package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var errMissingDeliver = errors.New("notify: deliver callback is required")

// Reminder is one planned notification.
type Reminder struct {
	ID        string
	Title     string
	Body      string
	FireAt    time.Time
	Recurring bool
}

// ReminderScheduler schedules and cancels reminders by id. Scheduling the
// same id again replaces the previous registration.
type ReminderScheduler interface {
	ScheduleReminder(reminder Reminder) error
	CancelReminder(id string)
}

type SchedulerConfig struct {
	Deliver  func(Reminder)
	Logger   *zap.Logger
	Location *time.Location
}

// CronScheduler delivers reminders from an in-process cron runner. One-shot
// reminders fire once and drop out; recurring ones fire annually at the same
// month, day and time.
type CronScheduler struct {
	cron    *cron.Cron
	deliver func(Reminder)
	logger  *zap.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewCronScheduler(cfg SchedulerConfig) (*CronScheduler, error) {
	if cfg.Deliver == nil {
		return nil, errMissingDeliver
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	return &CronScheduler{
		cron:    cron.New(cron.WithLocation(location)),
		deliver: cfg.Deliver,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}, nil
}

// Start launches the cron runner.
func (s *CronScheduler) Start() {
	s.cron.Start()
}

// Stop halts the runner and waits for in-flight deliveries.
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// ScheduleReminder registers the reminder, replacing any entry with the
// same id.
func (s *CronScheduler) ScheduleReminder(reminder Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[reminder.ID]; ok {
		s.cron.Remove(existing)
		delete(s.entries, reminder.ID)
	}

	var schedule cron.Schedule
	if reminder.Recurring {
		schedule = annualSchedule{at: reminder.FireAt}
	} else {
		schedule = oneShotSchedule{at: reminder.FireAt}
	}

	entryID := s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.logger.Debug("reminder fired",
			zap.String("reminder_id", reminder.ID),
			zap.Time("fire_at", reminder.FireAt))
		s.deliver(reminder)
		if !reminder.Recurring {
			s.CancelReminder(reminder.ID)
		}
	}))
	s.entries[reminder.ID] = entryID
	return nil
}

// CancelReminder drops the reminder if it is registered.
func (s *CronScheduler) CancelReminder(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
}

// oneShotSchedule fires exactly once at its instant. Returning the zero time
// afterwards retires the entry from the cron runner.
type oneShotSchedule struct {
	at time.Time
}

func (s oneShotSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// annualSchedule fires every year at the stored month, day and clock time.
type annualSchedule struct {
	at time.Time
}

func (s annualSchedule) Next(t time.Time) time.Time {
	candidate := time.Date(t.Year(), s.at.Month(), s.at.Day(),
		s.at.Hour(), s.at.Minute(), 0, 0, t.Location())
	if !candidate.After(t) {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return candidate
}
