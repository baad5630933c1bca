package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Mood enumerates the daily mood scale used in reports.
type Mood string

const (
	MoodAmazing Mood = "amazing"
	MoodHappy   Mood = "happy"
	MoodOkay    Mood = "okay"
	MoodSad     Mood = "sad"
	MoodUpset   Mood = "upset"
)

// Moods lists every mood value in display order.
var Moods = []Mood{MoodAmazing, MoodHappy, MoodOkay, MoodSad, MoodUpset}

// StringList is a []string stored as a JSONB column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}
}

// Report is a teacher-authored daily report for a student.
// At most one report exists per (student_id, date).
type Report struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	Date         string     `db:"date" json:"date"`
	Mood         Mood       `db:"mood" json:"mood"`
	Activities   StringList `db:"activities" json:"activities"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	Achievements StringList `db:"achievements" json:"achievements"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ReportFilter captures filtering criteria for listing reports.
type ReportFilter struct {
	StudentIDs []string
	TeacherID  string
	Date       string
}
