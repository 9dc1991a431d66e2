// Package notify delivers reminder and completion events to the user.
// Every notifier is fire-and-forget: nothing reports back to the caller.
package notify

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"daylist/internal/task"
)

type Kind int

const (
	Reminder Kind = iota
	Accomplished
)

func (k Kind) String() string {
	switch k {
	case Reminder:
		return "reminder"
	case Accomplished:
		return "accomplished"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind    Kind
	Task    task.Task
	Message string
	At      time.Time
}

type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, ev Event)

func (f Func) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Multi fans an event out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}

// Filter forwards only events of the listed kinds.
func Filter(n Notifier, kinds ...Kind) Notifier {
	return Func(func(ctx context.Context, ev Event) {
		for _, k := range kinds {
			if ev.Kind == k {
				n.Notify(ctx, ev)
				return
			}
		}
	})
}

// Bell writes the terminal bell character.
type Bell struct {
	mu sync.Mutex
	W  io.Writer
}

func (b *Bell) Notify(context.Context, Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = b.W.Write([]byte("\a"))
}

// Command runs an external program per event, such as a speech synthesizer
// or a sound player. The argument "{message}" is replaced with the event
// message. With AppendMessage set and no placeholder, the message becomes the
// last argument.
type Command struct {
	Name          string
	Args          []string
	AppendMessage bool
	Log           log.FieldLogger

	wg sync.WaitGroup
}

// ParseCommand splits a configured command line on whitespace.
// An empty line returns nil.
func ParseCommand(line string, appendMessage bool, logger log.FieldLogger) *Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return &Command{Name: fields[0], Args: fields[1:], AppendMessage: appendMessage, Log: logger}
}

func (c *Command) args(message string) []string {
	out := make([]string, 0, len(c.Args)+1)
	substituted := false
	for _, a := range c.Args {
		if strings.Contains(a, "{message}") {
			a = strings.ReplaceAll(a, "{message}", message)
			substituted = true
		}
		out = append(out, a)
	}
	if c.AppendMessage && !substituted && message != "" {
		out = append(out, message)
	}
	return out
}

func (c *Command) Notify(ctx context.Context, ev Event) {
	cmd := exec.CommandContext(ctx, c.Name, c.args(ev.Message)...)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := cmd.Run(); err != nil && c.Log != nil {
			c.Log.WithError(err).WithFields(log.Fields{
				"command": c.Name,
				"kind":    ev.Kind.String(),
			}).Warn("notification command failed")
		}
	}()
}

// Wait blocks until every started command has exited.
func (c *Command) Wait() {
	c.wg.Wait()
}
