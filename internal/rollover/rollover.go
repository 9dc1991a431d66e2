// Package rollover clears completion flags once per local calendar day.
package rollover

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"daylist/internal/task"
	"daylist/internal/taskstore"
)

type State int

const (
	Stale State = iota
	Current
)

func (s State) String() string {
	if s == Current {
		return "current"
	}
	return "stale"
}

type Manager struct {
	store *taskstore.Store
	log   log.FieldLogger
}

func New(store *taskstore.Store, logger log.FieldLogger) *Manager {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Manager{store: store, log: logger}
}

// State reports whether the list was already reset on now's calendar day.
func (m *Manager) State(ctx context.Context, now time.Time) State {
	last, ok := m.store.LastResetDate(ctx)
	if ok && sameDay(last, now) {
		return Current
	}
	return Stale
}

// Check resets every task to pending and records today when the stored date
// is absent or from another day. It reports whether a reset happened.
func (m *Manager) Check(ctx context.Context, now time.Time) (bool, error) {
	if m.State(ctx, now) == Current {
		return false, nil
	}
	err := m.store.Update(ctx, func(tasks []task.Task) []task.Task {
		task.ClearCompleted(tasks)
		return tasks
	})
	if err != nil {
		return false, fmt.Errorf("reset tasks: %w", err)
	}
	if err := m.store.SetLastResetDate(ctx, now); err != nil {
		return false, err
	}
	m.log.WithField("date", taskstore.FormatDate(now)).Info("daily tasks reset")
	return true, nil
}

func sameDay(a, b time.Time) bool {
	b = b.In(time.Local)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
