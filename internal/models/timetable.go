package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ClassType enumerates the kinds of sessions a student can schedule.
type ClassType string

const (
	ClassTypeLecture  ClassType = "Lecture"
	ClassTypeLab      ClassType = "Lab"
	ClassTypeTutorial ClassType = "Tutorial"
	ClassTypeSeminar  ClassType = "Seminar"
)

// Valid reports whether the class type is one of the known values.
func (t ClassType) Valid() bool {
	switch t {
	case ClassTypeLecture, ClassTypeLab, ClassTypeTutorial, ClassTypeSeminar:
		return true
	default:
		return false
	}
}

// ClassStatus tracks the lifecycle of a scheduled session.
type ClassStatus string

const (
	ClassStatusScheduled   ClassStatus = "scheduled"
	ClassStatusCancelled   ClassStatus = "cancelled"
	ClassStatusRescheduled ClassStatus = "rescheduled"
)

// Valid reports whether the status is one of the known values.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusScheduled, ClassStatusCancelled, ClassStatusRescheduled:
		return true
	default:
		return false
	}
}

// Weekdays lists the legal day keys in week order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// IsWeekday reports whether day is a legal weekday name.
func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// ClassSession is one scheduled class occurrence. Times are naive local
// HH:mm strings; zero-padded values compare correctly lexically.
type ClassSession struct {
	ID        string      `json:"id"`
	Subject   string      `json:"subject"`
	Professor string      `json:"professor"`
	StartTime string      `json:"startTime"`
	EndTime   string      `json:"endTime"`
	Room      string      `json:"room"`
	Type      ClassType   `json:"type"`
	Date      string      `json:"date"`
	Status    ClassStatus `json:"status"`
}

// Week maps each weekday to its ordered session list. All seven keys are
// always present, never partially populated.
type Week struct {
	Monday    []ClassSession `json:"Monday"`
	Tuesday   []ClassSession `json:"Tuesday"`
	Wednesday []ClassSession `json:"Wednesday"`
	Thursday  []ClassSession `json:"Thursday"`
	Friday    []ClassSession `json:"Friday"`
	Saturday  []ClassSession `json:"Saturday"`
	Sunday    []ClassSession `json:"Sunday"`
}

// NewWeek returns a week with all seven day lists initialised empty.
func NewWeek() Week {
	return Week{
		Monday:    []ClassSession{},
		Tuesday:   []ClassSession{},
		Wednesday: []ClassSession{},
		Thursday:  []ClassSession{},
		Friday:    []ClassSession{},
		Saturday:  []ClassSession{},
		Sunday:    []ClassSession{},
	}
}

// Sessions returns the session list for the given weekday name.
func (w *Week) Sessions(day string) []ClassSession {
	switch day {
	case "Monday":
		return w.Monday
	case "Tuesday":
		return w.Tuesday
	case "Wednesday":
		return w.Wednesday
	case "Thursday":
		return w.Thursday
	case "Friday":
		return w.Friday
	case "Saturday":
		return w.Saturday
	case "Sunday":
		return w.Sunday
	default:
		return nil
	}
}

// SetSessions replaces the session list for the given weekday name.
func (w *Week) SetSessions(day string, sessions []ClassSession) {
	switch day {
	case "Monday":
		w.Monday = sessions
	case "Tuesday":
		w.Tuesday = sessions
	case "Wednesday":
		w.Wednesday = sessions
	case "Thursday":
		w.Thursday = sessions
	case "Friday":
		w.Friday = sessions
	case "Saturday":
		w.Saturday = sessions
	case "Sunday":
		w.Sunday = sessions
	}
}

// Schedule is the ordered week sequence, stored as a single JSONB column.
type Schedule []Week

// Value implements driver.Valuer for JSONB storage.
func (s Schedule) Value() (driver.Value, error) {
	if s == nil {
		s = Schedule{}
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (s *Schedule) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = Schedule{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported schedule column type %T", src)
	}
}

// EnsureWeek grows the schedule with empty weeks until weekIndex exists.
func (s *Schedule) EnsureWeek(weekIndex int) {
	for len(*s) <= weekIndex {
		*s = append(*s, NewWeek())
	}
}

// Timetable is one student's full weekly schedule across week indices.
// Revision backs the optimistic save check and never leaves the API.
type Timetable struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Schedule  Schedule  `db:"schedule" json:"schedule"`
	Revision  int       `db:"revision" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
