// Package task holds the daily task record and the time-of-day ordering
// shared by storage, rendering and reminders.
package task

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyText   = errors.New("task text is empty")
	ErrEmptyTime   = errors.New("task time is empty")
	ErrInvalidTime = errors.New("task time must be HH:MM")
)

// Task is a single entry of the daily list. ID identifies the row for the
// lifetime of the process and is never persisted.
type Task struct {
	ID        string `json:"-"`
	Text      string `json:"text"`
	Time      string `json:"time"`
	Completed bool   `json:"completed"`
}

// New validates the label and time and returns a pending task with a fresh ID.
// The time is normalized to zero-padded HH:MM.
func New(text, clock string) (Task, error) {
	text = strings.TrimSpace(text)
	clock = strings.TrimSpace(clock)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	if clock == "" {
		return Task{}, ErrEmptyTime
	}
	c, err := ParseClock(clock)
	if err != nil {
		return Task{}, err
	}
	return Task{ID: NewID(), Text: text, Time: c.String()}, nil
}

func NewID() string {
	return uuid.NewString()
}

// Label is the display projection of a task.
func (t Task) Label() string {
	return t.Time + " - " + t.Text
}

// Clock is a time of day with minute granularity.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses H:MM or HH:MM in 24-hour form.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 || !digits(h) || !digits(m) {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// Compare orders tasks by numeric hour then minute. Tasks whose time does
// not parse sort after every valid time and compare equal to each other.
func Compare(a, b Task) int {
	ca, errA := ParseClock(a.Time)
	cb, errB := ParseClock(b.Time)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return ca.minutes() - cb.minutes()
}

// Sorted returns a stable-sorted copy.
func Sorted(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, Compare)
	return out
}

// InsertIndex returns the position of the first task strictly later than t,
// or len(tasks) when there is none. tasks must already be sorted.
func InsertIndex(tasks []Task, t Task) int {
	for i, existing := range tasks {
		if Compare(existing, t) > 0 {
			return i
		}
	}
	return len(tasks)
}

// Insert places t at its sorted position, after any tasks with an equal time.
func Insert(tasks []Task, t Task) []Task {
	return slices.Insert(tasks, InsertIndex(tasks, t), t)
}

// Index returns the position of the task with the given ID, or -1.
func Index(tasks []Task, id string) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
}

// Remove deletes the task with the given ID. It reports whether one was removed.
func Remove(tasks []Task, id string) ([]Task, bool) {
	i := Index(tasks, id)
	if i < 0 {
		return tasks, false
	}
	return slices.Delete(tasks, i, i+1), true
}

// ClearCompleted resets the completion flag on every task in place.
func ClearCompleted(tasks []Task) {
	for i := range tasks {
		tasks[i].Completed = false
	}
}

// Due returns the pending tasks scheduled exactly at clock.
func Due(tasks []Task, clock string) []Task {
	var due []Task
	for _, t := range tasks {
		if t.Time == clock && !t.Completed {
			due = append(due, t)
		}
	}
	return due
}
