package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"daylist/internal/config"
	"daylist/internal/notify"
	"daylist/internal/task"
	"daylist/internal/taskstore"
)

type mode int

const (
	modeList mode = iota
	modeAdd
)

const (
	fieldText = iota
	fieldTime
)

const accomplishedMessage = "Task accomplished!"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	completedStyle = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// EventMsg carries a notification into the program, typically a reminder
// fired by the scheduler goroutine.
type EventMsg struct {
	Event notify.Event
}

// RolloverMsg reports that the daily reset rewrote the stored list.
type RolloverMsg struct{}

type Deps struct {
	Store    *taskstore.Store
	Notifier notify.Notifier
	Config   config.Config
	Log      log.FieldLogger
	// Context scopes store calls and notifications made by the model.
	Context context.Context
	Now     func() time.Time
}

type Model struct {
	store    *taskstore.Store
	notifier notify.Notifier
	cfg      config.Config
	log      log.FieldLogger
	ctx      context.Context
	now      func() time.Time

	tasks      []task.Task
	cursor     int
	mode       mode
	textInput  textinput.Model
	timeInput  textinput.Model
	field      int
	status     string
	banner     string
	confirmDel bool
	pendingDel *task.Task
}

func New(d Deps, tasks []task.Task) Model {
	ti := textinput.New()
	ti.Placeholder = "Task"
	ti.CharLimit = 256
	ti.Width = 40

	tm := textinput.New()
	tm.Placeholder = "HH:MM"
	tm.CharLimit = 5
	tm.Width = 5

	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Log == nil {
		d.Log = log.StandardLogger()
	}
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	m := Model{
		store:     d.Store,
		notifier:  d.Notifier,
		cfg:       d.Config,
		log:       d.Log,
		ctx:       d.Context,
		now:       d.Now,
		textInput: ti,
		timeInput: tm,
		mode:      modeList,
		status:    fmt.Sprintf("Press '%s' to add, %s to toggle, '%s' to delete.", d.Config.Keys.Add, keyName(d.Config.Keys.Toggle), d.Config.Keys.Delete),
	}
	return m.Render(tasks)
}

// Render replaces every row with a sorted copy of tasks.
func (m Model) Render(tasks []task.Task) Model {
	m.tasks = task.Sorted(tasks)
	m.cursor = clampCursor(m.cursor, len(m.tasks))
	m.confirmDel = false
	m.pendingDel = nil
	return m
}

// Insert places t before the first row scheduled strictly later and moves
// the cursor onto it.
func (m Model) Insert(t task.Task) Model {
	idx := task.InsertIndex(m.tasks, t)
	m.tasks = task.Insert(m.tasks, t)
	m.cursor = idx
	return m
}

// Welcome replaces the opening hint with first-launch guidance.
func (m Model) Welcome(configPath string) Model {
	m.status = fmt.Sprintf("Welcome! Settings were written to %s. Press '%s' to add your first task.", configPath, m.cfg.Keys.Add)
	return m
}

// Tasks returns the rows in display order.
func (m Model) Tasks() []task.Task {
	return m.tasks
}

func (m Model) Status() string {
	return m.status
}

func (m Model) Banner() string {
	return m.banner
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		if msg.Width > 20 {
			m.textInput.Width = msg.Width - 20
		}
	case EventMsg:
		m.banner = msg.Event.Message
	case RolloverMsg:
		// The rows on screen may have been saved after the reset; clear and
		// save them again so the reset sticks.
		task.ClearCompleted(m.tasks)
		m.banner = ""
		m.status = "New day: all tasks reset"
		m.persist()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.mode == modeAdd {
		return m.updateAddMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel:
		m = m.leaveAddMode()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.NextField, "shift+tab":
		if m.field == fieldText {
			m.field = fieldTime
			m.textInput.Blur()
			m.timeInput.Focus()
		} else {
			m.field = fieldText
			m.timeInput.Blur()
			m.textInput.Focus()
		}
		return m, nil
	case m.cfg.Keys.Confirm:
		t, err := task.New(m.textInput.Value(), m.timeInput.Value())
		if err != nil {
			m.status = validationMessage(err)
			return m, nil
		}
		m = m.Insert(t)
		m = m.leaveAddMode()
		m.status = "Added " + t.Label()
		m.persist()
		return m, nil
	default:
		var cmd tea.Cmd
		if m.field == fieldTime {
			m.timeInput, cmd = m.timeInput.Update(msg)
		} else {
			m.textInput, cmd = m.textInput.Update(msg)
		}
		return m, cmd
	}
}

func (m Model) leaveAddMode() Model {
	m.textInput.SetValue("")
	m.timeInput.SetValue("")
	m.textInput.Blur()
	m.timeInput.Blur()
	m.field = fieldText
	m.mode = modeList
	return m
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.tasks))
		}
	case m.cfg.Keys.Add:
		m.mode = modeAdd
		m.field = fieldText
		m.textInput.Focus()
		m.banner = ""
		m.status = "Add mode: type a task, tab to the time, Enter to save"
	case m.cfg.Keys.Toggle:
		if len(m.tasks) == 0 {
			return m, nil
		}
		return m.toggle(m.cursor)
	case m.cfg.Keys.Delete:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Label())
	}
	return m, nil
}

func (m Model) toggle(i int) (tea.Model, tea.Cmd) {
	m.tasks[i].Completed = !m.tasks[i].Completed
	t := m.tasks[i]
	if t.Completed {
		m.banner = accomplishedMessage
		m.status = "Completed " + t.Label()
		m.notifier.Notify(m.ctx, notify.Event{
			Kind:    notify.Accomplished,
			Task:    t,
			Message: accomplishedMessage,
			At:      m.now(),
		})
	} else {
		m.banner = ""
		m.status = "Reopened " + t.Label()
	}
	m.persist()
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		var removed bool
		m.tasks, removed = task.Remove(m.tasks, m.pendingDel.ID)
		if removed {
			m.cursor = clampCursor(m.cursor, len(m.tasks))
			m.status = "Deleted " + m.pendingDel.Label()
			m.persist()
		} else {
			m.status = "Nothing to delete"
		}
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

// persist writes every row back; a failure is shown in the status line.
func (m *Model) persist() {
	if err := m.store.Save(m.ctx, m.tasks); err != nil {
		m.log.WithError(err).Error("save tasks failed")
		m.status = fmt.Sprintf("save failed: %v", err)
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, task.ErrEmptyText), errors.Is(err, task.ErrEmptyTime):
		return "Please fill in both the task and its start time."
	case errors.Is(err, task.ErrInvalidTime):
		return "Start time must be HH:MM (24-hour)."
	default:
		return err.Error()
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Today · " + m.now().Format("Mon Jan 2")))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	if m.mode == modeAdd {
		b.WriteString("\n")
		b.WriteString("Task: ")
		b.WriteString(m.textInput.View())
		b.WriteString("\n")
		b.WriteString("Time: ")
		b.WriteString(m.timeInput.View())
		b.WriteString("\n")
	}

	if m.banner != "" {
		b.WriteString("\n")
		b.WriteString(bannerStyle.Render(m.banner))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.tasks {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = cursorStyle.Render(">")
		}

		checkbox := "[ ]"
		label := t.Label()
		if t.Completed {
			checkbox = "[x]"
			label = completedStyle.Render(label)
		}

		b.WriteString(fmt.Sprintf("%s %s %s", cursor, checkbox, label))
		b.WriteString("\n")
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s delete • %s next field • %s quit",
		k.Up, k.Down, k.Add, keyName(k.Toggle), k.Delete, k.NextField, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

// Forward returns a notifier that delivers events to a running program.
// Delivery happens on its own goroutine so callers never wait on the UI.
func Forward(p *tea.Program) notify.Notifier {
	return notify.Func(func(_ context.Context, ev notify.Event) {
		go p.Send(EventMsg{Event: ev})
	})
}
