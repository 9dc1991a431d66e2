// Package reminder polls the wall clock and announces pending tasks whose
// scheduled time matches the current minute.
package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"daylist/internal/notify"
	"daylist/internal/rollover"
	"daylist/internal/task"
	"daylist/internal/taskstore"
)

const (
	DefaultInterval = time.Minute
	DefaultTemplate = "It's {time}. Task: {text}"
)

var ErrStarted = errors.New("reminder scheduler already started")

type Scheduler struct {
	store    *taskstore.Store
	notifier notify.Notifier
	log      log.FieldLogger

	interval   time.Duration
	template   string
	now        func() time.Time
	rollover   *rollover.Manager
	onRollover func()

	mu          sync.Mutex
	lastChecked string
	started     bool
	cancel      context.CancelFunc
	done        chan struct{}
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTemplate sets the spoken message; {time} and {text} are substituted.
func WithTemplate(tmpl string) Option {
	return func(s *Scheduler) {
		if strings.TrimSpace(tmpl) != "" {
			s.template = tmpl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l log.FieldLogger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRollover runs the daily reset before every poll. onReset, when set,
// is called after a reset happened.
func WithRollover(m *rollover.Manager, onReset func()) Option {
	return func(s *Scheduler) {
		s.rollover = m
		s.onRollover = onReset
	}
}

func New(store *taskstore.Store, notifier notify.Notifier, opts ...Option) *Scheduler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Scheduler{
		store:    store,
		notifier: notifier,
		log:      log.StandardLogger(),
		interval: DefaultInterval,
		template: DefaultTemplate,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start checks immediately and then once per interval until ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.poll(ctx)
	go s.loop(ctx)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// Stop cancels polling and waits for the loop to exit. Safe to call more
// than once, or before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) poll(ctx context.Context) {
	now := s.now()
	if s.rollover != nil {
		reset, err := s.rollover.Check(ctx, now)
		if err != nil {
			s.log.WithError(err).Warn("daily reset failed")
		} else if reset && s.onRollover != nil {
			s.onRollover()
		}
	}
	s.Check(ctx, now)
}

// Check announces every pending task scheduled at now's minute and returns
// them. A minute already checked is skipped.
func (s *Scheduler) Check(ctx context.Context, now time.Time) []task.Task {
	clock := now.Format("15:04")
	minute := now.Format("2006-01-02 ") + clock

	s.mu.Lock()
	if minute == s.lastChecked {
		s.mu.Unlock()
		return nil
	}
	s.lastChecked = minute
	s.mu.Unlock()

	due := task.Due(s.store.Load(ctx), clock)
	for _, t := range due {
		s.log.WithFields(log.Fields{"task": t.Text, "time": t.Time}).Info("reminder")
		s.notifier.Notify(ctx, notify.Event{
			Kind:    notify.Reminder,
			Task:    t,
			Message: s.Message(t),
			At:      now,
		})
	}
	return due
}

func (s *Scheduler) Message(t task.Task) string {
	return strings.NewReplacer("{time}", t.Time, "{text}", t.Text).Replace(s.template)
}
