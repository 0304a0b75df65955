// Package notify models the platform notification capability: a
// three-state permission and a notify call that is suppressed unless
// permission was granted.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Permission is the user's answer to the notification prompt.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Result reports what happened to a notification.
type Result string

const (
	Emitted    Result = "emitted"
	Suppressed Result = "suppressed"
)

type Options struct {
	Tag                string
	RequireInteraction bool
}

type Notification struct {
	Title string
	Body  string
	Options
}

// Notifier delivers a notification to one concrete sink.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Prompter asks the user for notification permission.
type Prompter interface {
	Prompt(ctx context.Context) (Permission, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (Permission, error)

func (f PrompterFunc) Prompt(ctx context.Context) (Permission, error) {
	return f(ctx)
}

// AutoGrant is a Prompter for sinks that need no consent, such as a server log.
var AutoGrant = PrompterFunc(func(context.Context) (Permission, error) {
	return PermissionGranted, nil
})

// Center gates a Notifier behind the permission state.
type Center struct {
	mu         sync.RWMutex
	permission Permission

	notifier Notifier
	prompter Prompter
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewCenter(notifier Notifier, prompter Prompter, log *zap.SugaredLogger) *Center {
	return &Center{
		permission: PermissionDefault,
		notifier:   notifier,
		prompter:   prompter,
		log:        log,
		now:        time.Now,
	}
}

func (c *Center) Permission() Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.permission
}

// SetPermission overrides the state, for example from a saved answer or a flag.
func (c *Center) SetPermission(p Permission) {
	c.mu.Lock()
	c.permission = p
	c.mu.Unlock()
}

// RequestPermission asks the prompter and returns the new state. A prompt
// failure leaves the state unchanged.
func (c *Center) RequestPermission(ctx context.Context) Permission {
	if c.prompter == nil {
		return c.Permission()
	}

	p, err := c.prompter.Prompt(ctx)
	if err != nil {
		c.log.Warnw("notification permission request failed", "error", err)
		return c.Permission()
	}
	switch p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
	default:
		c.log.Warnw("ignoring unknown permission answer", "answer", p)
		return c.Permission()
	}

	c.SetPermission(p)
	return p
}

// Notify emits n when permission is granted. Sink failures, including
// panics, are logged and reported as Suppressed.
func (c *Center) Notify(ctx context.Context, title, body string, opts Options) (res Result) {
	if c.Permission() != PermissionGranted {
		return Suppressed
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("notifier panicked", "title", title, "panic", r)
			res = Suppressed
		}
	}()

	n := Notification{Title: title, Body: body, Options: opts}
	if err := c.notifier.Send(ctx, n); err != nil {
		c.log.Errorw("failed to show notification", "title", title, "error", err)
		return Suppressed
	}
	return Emitted
}

// ShowTaskReminder emits the primary or follow-up reminder for a task.
func (c *Center) ShowTaskReminder(ctx context.Context, taskTitle string, followUp bool) Result {
	title, body := ReminderText(taskTitle, followUp)
	return c.Notify(ctx, title, body, Options{
		Tag:                fmt.Sprintf("task-reminder-%d", c.now().UnixMilli()),
		RequireInteraction: true,
	})
}

// ReminderText returns the notification title and body for a task reminder.
func ReminderText(taskTitle string, followUp bool) (string, string) {
	if followUp {
		return "Task Follow-up", "Still pending: " + taskTitle
	}
	return "Task Reminder", "Time to complete: " + taskTitle
}
