package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []Notification
	err   error
	panic bool
}

func (r *recordingNotifier) Send(ctx context.Context, n Notification) error {
	if r.panic {
		panic("boom")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func fixedPrompter(p Permission) Prompter {
	return PrompterFunc(func(context.Context) (Permission, error) { return p, nil })
}

func TestCenter_SuppressedUntilGranted(t *testing.T) {
	sink := &recordingNotifier{}
	c := NewCenter(sink, fixedPrompter(PermissionGranted), zap.NewNop().Sugar())
	ctx := context.Background()

	assert.Equal(t, PermissionDefault, c.Permission())
	assert.Equal(t, Suppressed, c.Notify(ctx, "t", "b", Options{}))

	assert.Equal(t, PermissionGranted, c.RequestPermission(ctx))
	assert.Equal(t, Emitted, c.Notify(ctx, "t", "b", Options{Tag: "x"}))

	require.Len(t, sink.sent, 1)
	assert.Equal(t, "x", sink.sent[0].Tag)
}

func TestCenter_DeniedStaysSuppressed(t *testing.T) {
	sink := &recordingNotifier{}
	c := NewCenter(sink, fixedPrompter(PermissionDenied), zap.NewNop().Sugar())

	assert.Equal(t, PermissionDenied, c.RequestPermission(context.Background()))
	assert.Equal(t, Suppressed, c.ShowTaskReminder(context.Background(), "walk dog", false))
	assert.Empty(t, sink.sent)
}

func TestCenter_PromptErrorKeepsState(t *testing.T) {
	c := NewCenter(&recordingNotifier{}, PrompterFunc(func(context.Context) (Permission, error) {
		return PermissionGranted, errors.New("no tty")
	}), zap.NewNop().Sugar())

	assert.Equal(t, PermissionDefault, c.RequestPermission(context.Background()))
}

func TestCenter_SinkFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()

	failing := NewCenter(&recordingNotifier{err: errors.New("offline")}, AutoGrant, zap.NewNop().Sugar())
	failing.RequestPermission(ctx)
	assert.Equal(t, Suppressed, failing.Notify(ctx, "t", "b", Options{}))

	panicking := NewCenter(&recordingNotifier{panic: true}, AutoGrant, zap.NewNop().Sugar())
	panicking.RequestPermission(ctx)
	assert.Equal(t, Suppressed, panicking.Notify(ctx, "t", "b", Options{}))
}

func TestCenter_ShowTaskReminder(t *testing.T) {
	sink := &recordingNotifier{}
	c := NewCenter(sink, AutoGrant, zap.NewNop().Sugar())
	c.SetPermission(PermissionGranted)
	ctx := context.Background()

	c.ShowTaskReminder(ctx, "file taxes", false)
	c.ShowTaskReminder(ctx, "file taxes", true)

	require.Len(t, sink.sent, 2)
	assert.Equal(t, "Task Reminder", sink.sent[0].Title)
	assert.Equal(t, "Time to complete: file taxes", sink.sent[0].Body)
	assert.Equal(t, "Task Follow-up", sink.sent[1].Title)
	assert.Equal(t, "Still pending: file taxes", sink.sent[1].Body)
	assert.True(t, strings.HasPrefix(sink.sent[0].Tag, "task-reminder-"))
	assert.True(t, sink.sent[0].RequireInteraction)
}

func TestTerminalNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewTerminalNotifier(&buf)

	require.NoError(t, n.Send(context.Background(), Notification{Title: "Task Reminder", Body: "Time to complete: x"}))
	assert.Contains(t, buf.String(), "Task Reminder")
	assert.Contains(t, buf.String(), "Time to complete: x")
	assert.True(t, strings.HasPrefix(buf.String(), "\a"))
}

func TestTerminalPrompter(t *testing.T) {
	tests := []struct {
		input string
		want  Permission
	}{
		{"y\n", PermissionGranted},
		{"YES\n", PermissionGranted},
		{"n\n", PermissionDenied},
		{"\n", PermissionDenied},
		{"", PermissionDefault},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := NewTerminalPrompter(strings.NewReader(tt.input), &out)
		got, err := p.Prompt(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Enable task reminder notifications?")
	}
}

func TestLineNotifier_PushesMessage(t *testing.T) {
	var (
		gotPath string
		gotBody string
		gotAuth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"sentMessages":[]}`))
	}))
	defer srv.Close()

	n, err := NewLineNotifier("token", "U123", messaging_api.WithEndpoint(srv.URL))
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), Notification{Title: "Task Reminder", Body: "Time to complete: x"}))
	assert.Equal(t, "/v2/bot/message/push", gotPath)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Contains(t, gotBody, `"to":"U123"`)
	assert.Contains(t, gotBody, "Time to complete: x")
}

func TestNewNotifier(t *testing.T) {
	log := zap.NewNop().Sugar()

	n, err := NewNotifier("log", "", "", io.Discard, log)
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	n, err = NewNotifier("", "", "", io.Discard, log)
	require.NoError(t, err)
	assert.IsType(t, &TerminalNotifier{}, n)

	_, err = NewNotifier("pager", "", "", io.Discard, log)
	assert.Error(t, err)
}
