// Package app owns the store and the components built on it, and runs them
// in startup order: load, daily reset, render, then reminders.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"daylist/internal/config"
	"daylist/internal/kv"
	"daylist/internal/notify"
	"daylist/internal/reminder"
	"daylist/internal/rollover"
	"daylist/internal/task"
	"daylist/internal/taskstore"
	"daylist/internal/ui"
)

type App struct {
	cfg      config.Config
	log      *log.Logger
	kv       kv.Store
	tasks    *taskstore.Store
	rollover *rollover.Manager
	now      func() time.Time

	// Bell output; the terminal by default.
	bellOut io.Writer
}

type Option func(*App)

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func WithKV(store kv.Store) Option {
	return func(a *App) { a.kv = store }
}

func WithBellOutput(w io.Writer) Option {
	return func(a *App) { a.bellOut = w }
}

// New opens the configured backend unless one is supplied with WithKV.
func New(cfg config.Config, logger *log.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	a := &App{cfg: cfg, log: logger, now: time.Now, bellOut: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}
	if a.kv == nil {
		store, err := kv.Open(kv.Options{
			Backend:     cfg.Backend,
			DBPath:      cfg.DBPath,
			RedisURL:    cfg.RedisURL,
			RedisPrefix: cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
		}
		a.kv = store
	}
	a.tasks = taskstore.New(a.kv, taskstore.WithLogger(logger.WithField("component", "store")))
	a.rollover = rollover.New(a.tasks, logger.WithField("component", "rollover"))
	return a, nil
}

func (a *App) Store() *taskstore.Store {
	return a.tasks
}

// Startup runs the daily reset and returns the sorted list to render.
func (a *App) Startup(ctx context.Context) ([]task.Task, error) {
	if _, err := a.rollover.Check(ctx, a.now()); err != nil {
		return nil, err
	}
	tasks := a.tasks.Load(ctx)
	a.log.WithField("count", len(tasks)).Info("tasks loaded")
	return tasks, nil
}

// Notifier builds the notification fan-out: speech for reminders, the
// completion sound for accomplished tasks, the bell for both, plus forward
// when non-nil.
func (a *App) Notifier(forward notify.Notifier) notify.Notifier {
	logger := a.log.WithField("component", "notify")
	var n notify.Multi
	if c := notify.ParseCommand(a.cfg.SpeechCommand, true, logger); c != nil {
		n = append(n, notify.Filter(c, notify.Reminder))
	}
	if c := notify.ParseCommand(a.cfg.SoundCommand, false, logger); c != nil {
		n = append(n, notify.Filter(c, notify.Accomplished))
	}
	if a.cfg.Bell {
		n = append(n, &notify.Bell{W: a.bellOut})
	}
	if forward != nil {
		n = append(n, forward)
	}
	return n
}

// Scheduler builds the reminder loop. onRollover runs after a reset that
// happened mid-session.
func (a *App) Scheduler(n notify.Notifier, onRollover func()) *reminder.Scheduler {
	return reminder.New(a.tasks, n,
		reminder.WithInterval(time.Duration(a.cfg.PollInterval)),
		reminder.WithTemplate(a.cfg.ReminderTemplate),
		reminder.WithClock(a.now),
		reminder.WithRollover(a.rollover, onRollover),
		reminder.WithLogger(a.log.WithField("component", "reminder")),
	)
}

// Run shows the list and keeps reminders running until the user quits or
// ctx ends.
func (a *App) Run(ctx context.Context, configPath string, firstLaunch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks, err := a.Startup(ctx)
	if err != nil {
		return err
	}

	var program *tea.Program
	forward := notify.Func(func(ctx context.Context, ev notify.Event) {
		if ev.Kind == notify.Reminder {
			ui.Forward(program).Notify(ctx, ev)
		}
	})
	notifier := a.Notifier(forward)

	model := ui.New(ui.Deps{
		Store:    a.tasks,
		Notifier: notifier,
		Config:   a.cfg,
		Log:      a.log.WithField("component", "ui"),
		Context:  ctx,
		Now:      a.now,
	}, tasks)
	if firstLaunch {
		model = model.Welcome(configPath)
	}
	program = tea.NewProgram(model, tea.WithContext(ctx))

	sched := a.Scheduler(notifier, func() { go program.Send(ui.RolloverMsg{}) })
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	_, err = program.Run()
	return err
}

func (a *App) Close() error {
	if a.kv == nil {
		return nil
	}
	return a.kv.Close()
}
