// Package calendar merges the household's dated records into one ordered
// timeline. Each source keeps its own model; the compositor projects them
// into a closed set of event variants, filters them and sorts them by day
// and time of day.
package calendar

import (
	"time"

	"github.com/kindredhq/hearth/internal/appointment"
	"github.com/kindredhq/hearth/internal/countdown"
	"github.com/kindredhq/hearth/internal/dateutil"
	"github.com/kindredhq/hearth/internal/medication"
	"github.com/kindredhq/hearth/internal/profile"
	"github.com/kindredhq/hearth/internal/todolist"
)

// Kind names one calendar event variant.
type Kind string

const (
	KindAppointment Kind = "appointment"
	KindMedication  Kind = "medication"
	KindBirthday    Kind = "birthday"
	KindCountdown   Kind = "countdown"
	KindTodoList    Kind = "todo_list"
)

// Kinds lists every event variant in display order.
func Kinds() []Kind {
	return []Kind{KindAppointment, KindMedication, KindBirthday, KindCountdown, KindTodoList}
}

// Event is one entry on the composed timeline. The variant set is closed;
// each variant carries only the fields its kind needs.
type Event interface {
	Kind() Kind
	Day() time.Time
	Title() string
	MemberID() string

	// sortMinutes orders events within a day. Events without a time of day
	// pin to the start of the day so the ordering stays reproducible.
	sortMinutes() int
}

// AppointmentEvent is one concrete appointment occurrence, either the stored
// instant or one expansion of a recurring series.
type AppointmentEvent struct {
	Appointment appointment.Appointment
	StartsAt    time.Time
}

func (e AppointmentEvent) Kind() Kind       { return KindAppointment }
func (e AppointmentEvent) Day() time.Time   { return dateutil.StartOfDay(e.StartsAt) }
func (e AppointmentEvent) Title() string    { return e.Appointment.Title }
func (e AppointmentEvent) MemberID() string { return e.Appointment.MemberID }

func (e AppointmentEvent) sortMinutes() int {
	if e.Appointment.AllDay {
		return 0
	}
	return e.StartsAt.Hour()*60 + e.StartsAt.Minute()
}

// MedicationEvent is one scheduled dose instant resolved from an active
// schedule entry.
type MedicationEvent struct {
	Occurrence medication.Occurrence
}

func (e MedicationEvent) Kind() Kind       { return KindMedication }
func (e MedicationEvent) Day() time.Time   { return dateutil.StartOfDay(e.Occurrence.ScheduledAt) }
func (e MedicationEvent) Title() string    { return e.Occurrence.Schedule.Name }
func (e MedicationEvent) MemberID() string { return "" }

func (e MedicationEvent) sortMinutes() int { return e.Occurrence.Entry.Time.MinutesOfDay() }

// BirthdayEvent is one annual birthday projected from a member profile.
// TurnsAge is the age reached on that day.
type BirthdayEvent struct {
	Profile  profile.Profile
	Date     time.Time
	TurnsAge int
}

func (e BirthdayEvent) Kind() Kind       { return KindBirthday }
func (e BirthdayEvent) Day() time.Time   { return e.Date }
func (e BirthdayEvent) Title() string    { return e.Profile.Name }
func (e BirthdayEvent) MemberID() string { return e.Profile.ID }

func (e BirthdayEvent) sortMinutes() int { return 0 }

// CountdownEvent is one projected countdown day. DaysRemaining counts from
// the composition range start, floored at zero.
type CountdownEvent struct {
	Occurrence    countdown.Occurrence
	DaysRemaining int
}

func (e CountdownEvent) Kind() Kind       { return KindCountdown }
func (e CountdownEvent) Day() time.Time   { return e.Occurrence.Date }
func (e CountdownEvent) Title() string    { return e.Occurrence.Event.Title }
func (e CountdownEvent) MemberID() string { return e.Occurrence.Event.MemberID }

func (e CountdownEvent) sortMinutes() int { return 0 }

// TodoListEvent is a todo list surfaced on its due date.
type TodoListEvent struct {
	List    todolist.List
	DueDate time.Time
}

func (e TodoListEvent) Kind() Kind       { return KindTodoList }
func (e TodoListEvent) Day() time.Time   { return e.DueDate }
func (e TodoListEvent) Title() string    { return e.List.Title }
func (e TodoListEvent) MemberID() string { return e.List.MemberID }

func (e TodoListEvent) sortMinutes() int { return 0 }
