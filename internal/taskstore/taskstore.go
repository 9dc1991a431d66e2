// Package taskstore persists the daily task collection and the last reset
// date through a kv.Store. The whole collection is rewritten on every save.
package taskstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"daylist/internal/kv"
	"daylist/internal/task"
)

const (
	DefaultTasksKey    = "tasks"
	DefaultLastDateKey = "lastDate"

	// DateLayout matches the locale date string the marker has always used,
	// e.g. "Mon Oct 19 2026".
	DateLayout = "Mon Jan 02 2006"
)

type Store struct {
	mu          sync.Mutex
	kv          kv.Store
	tasksKey    string
	lastDateKey string
	log         log.FieldLogger
}

type Option func(*Store)

func WithKeys(tasksKey, lastDateKey string) Option {
	return func(s *Store) {
		if tasksKey != "" {
			s.tasksKey = tasksKey
		}
		if lastDateKey != "" {
			s.lastDateKey = lastDateKey
		}
	}
}

func WithLogger(l log.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func New(store kv.Store, opts ...Option) *Store {
	if store == nil {
		panic("taskstore.New: kv store is nil")
	}
	s := &Store{
		kv:          store,
		tasksKey:    DefaultTasksKey,
		lastDateKey: DefaultLastDateKey,
		log:         log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted tasks sorted by time, each with a fresh ID.
// A missing, unreadable or malformed value loads as an empty list.
func (s *Store) Load(ctx context.Context) []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) []task.Task {
	raw, ok, err := s.kv.Get(ctx, s.tasksKey)
	if err != nil {
		s.log.WithError(err).WithField("key", s.tasksKey).Warn("read tasks failed, using empty list")
		return []task.Task{}
	}
	if !ok || raw == "" {
		return []task.Task{}
	}
	var tasks []task.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		s.log.WithError(err).WithField("key", s.tasksKey).Debug("stored tasks malformed, using empty list")
		return []task.Task{}
	}
	if len(tasks) == 0 {
		return []task.Task{}
	}
	for i := range tasks {
		tasks[i].ID = task.NewID()
	}
	return task.Sorted(tasks)
}

// Save sorts a copy of tasks and overwrites the stored collection with it.
func (s *Store) Save(ctx context.Context, tasks []task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, tasks)
}

func (s *Store) save(ctx context.Context, tasks []task.Task) error {
	sorted := task.Sorted(tasks)
	if sorted == nil {
		sorted = []task.Task{}
	}
	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.kv.Set(ctx, s.tasksKey, string(data)); err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	s.log.WithField("count", len(sorted)).Debug("tasks saved")
	return nil
}

// Update runs a read-modify-write of the collection while holding the lock.
func (s *Store) Update(ctx context.Context, fn func([]task.Task) []task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, fn(s.load(ctx)))
}

// LastResetDate returns the recorded reset day in local time.
func (s *Store) LastResetDate(ctx context.Context) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok, err := s.kv.Get(ctx, s.lastDateKey)
	if err != nil {
		s.log.WithError(err).WithField("key", s.lastDateKey).Warn("read last reset date failed")
		return time.Time{}, false
	}
	if !ok || raw == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, raw, time.Local)
	if err != nil {
		s.log.WithError(err).WithField("value", raw).Debug("last reset date malformed")
		return time.Time{}, false
	}
	return d, true
}

func (s *Store) SetLastResetDate(ctx context.Context, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, s.lastDateKey, FormatDate(day)); err != nil {
		return fmt.Errorf("write last reset date: %w", err)
	}
	return nil
}

// FormatDate renders the local calendar day of t.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}
