package mirror

import (
	"context"

	"go.uber.org/zap"

	"github.com/kindredhq/hearth/internal/appointment"
	"github.com/kindredhq/hearth/internal/calendar"
	"github.com/kindredhq/hearth/internal/countdown"
	"github.com/kindredhq/hearth/internal/medication"
	"github.com/kindredhq/hearth/internal/profile"
	"github.com/kindredhq/hearth/internal/todolist"
	"github.com/kindredhq/hearth/internal/wire"
)

// Typed loaders decode the active envelopes of one collection into domain
// models. A record that fails to decode is logged and skipped; one corrupt
// payload written by an older client must not take the whole calendar down.

// Schedules loads every active medication schedule.
func (s *Store) Schedules(ctx context.Context) ([]medication.Schedule, error) {
	records, err := s.ListActive(ctx, wire.EntityTypeMedication)
	if err != nil {
		return nil, err
	}
	var schedules []medication.Schedule
	for _, record := range records {
		payload, err := wire.DecodeMedication([]byte(record.PayloadJSON))
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		schedule, err := medication.FromPayload(payload)
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		schedules = append(schedules, schedule)
	}
	return schedules, nil
}

// Logs loads every active medication log.
func (s *Store) Logs(ctx context.Context) ([]medication.Log, error) {
	records, err := s.ListActive(ctx, wire.EntityTypeMedicationLog)
	if err != nil {
		return nil, err
	}
	var logs []medication.Log
	for _, record := range records {
		payload, err := wire.DecodeMedicationLog([]byte(record.PayloadJSON))
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		log, err := medication.LogFromPayload(payload)
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// Appointments loads every active appointment.
func (s *Store) Appointments(ctx context.Context) ([]appointment.Appointment, error) {
	records, err := s.ListActive(ctx, wire.EntityTypeAppointment)
	if err != nil {
		return nil, err
	}
	var appointments []appointment.Appointment
	for _, record := range records {
		payload, err := wire.DecodeAppointment([]byte(record.PayloadJSON))
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		item, err := appointment.FromPayload(payload)
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		appointments = append(appointments, item)
	}
	return appointments, nil
}

// Countdowns loads every active countdown event.
func (s *Store) Countdowns(ctx context.Context) ([]countdown.Event, error) {
	records, err := s.ListActive(ctx, wire.EntityTypeCountdown)
	if err != nil {
		return nil, err
	}
	var events []countdown.Event
	for _, record := range records {
		payload, err := wire.DecodeCountdown([]byte(record.PayloadJSON))
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		event, err := countdown.FromPayload(payload)
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Profiles loads every active member profile.
func (s *Store) Profiles(ctx context.Context) ([]profile.Profile, error) {
	records, err := s.ListActive(ctx, wire.EntityTypeProfile)
	if err != nil {
		return nil, err
	}
	var profiles []profile.Profile
	for _, record := range records {
		payload, err := wire.DecodeProfile([]byte(record.PayloadJSON))
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		member, err := profile.FromPayload(payload)
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		profiles = append(profiles, member)
	}
	return profiles, nil
}

// TodoLists loads every active todo list.
func (s *Store) TodoLists(ctx context.Context) ([]todolist.List, error) {
	records, err := s.ListActive(ctx, wire.EntityTypeTodoList)
	if err != nil {
		return nil, err
	}
	var lists []todolist.List
	for _, record := range records {
		payload, err := wire.DecodeTodoList([]byte(record.PayloadJSON))
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		list, err := todolist.FromPayload(payload)
		if err != nil {
			s.logSkippedRecord(record, err)
			continue
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// CalendarSources loads everything the calendar compositor consumes.
func (s *Store) CalendarSources(ctx context.Context) (calendar.Sources, error) {
	schedules, err := s.Schedules(ctx)
	if err != nil {
		return calendar.Sources{}, err
	}
	appointments, err := s.Appointments(ctx)
	if err != nil {
		return calendar.Sources{}, err
	}
	countdowns, err := s.Countdowns(ctx)
	if err != nil {
		return calendar.Sources{}, err
	}
	profiles, err := s.Profiles(ctx)
	if err != nil {
		return calendar.Sources{}, err
	}
	todoLists, err := s.TodoLists(ctx)
	if err != nil {
		return calendar.Sources{}, err
	}
	return calendar.Sources{
		Schedules:    schedules,
		Appointments: appointments,
		Countdowns:   countdowns,
		Profiles:     profiles,
		TodoLists:    todoLists,
	}, nil
}

func (s *Store) logSkippedRecord(record Record, err error) {
	s.logger.Warn("mirror record skipped",
		zap.String("entity_type", string(record.EntityType)),
		zap.String("record_id", record.ID),
		zap.Error(err))
}
