package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log *zap.SugaredLogger
}

func NewLogNotifier(log *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, note Notification) error {
	n.log.Infow("notification", "title", note.Title, "body", note.Body, "tag", note.Tag)
	return nil
}

var (
	noteTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFAF"))
	noteBoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#666666")).
			Padding(0, 1)
)

// TerminalNotifier prints a boxed notification and rings the bell.
type TerminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{out: out}
}

func (n *TerminalNotifier) Send(_ context.Context, note Notification) error {
	box := noteBoxStyle.Render(noteTitleStyle.Render(note.Title) + "\n" + note.Body)

	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.out, "\a%s\n", box)
	return err
}

// TerminalPrompter asks for permission on a line-oriented terminal.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

func (p *TerminalPrompter) Prompt(_ context.Context) (Permission, error) {
	fmt.Fprint(p.out, "Enable task reminder notifications? [y/N] ")

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return PermissionDefault, nil
		}
		return PermissionDefault, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return PermissionGranted, nil
	default:
		return PermissionDenied, nil
	}
}

// NewNotifier builds the sink named by backend: "terminal", "line" or "log".
func NewNotifier(backend, channelToken, lineUserID string, out io.Writer, log *zap.SugaredLogger) (Notifier, error) {
	switch backend {
	case "terminal", "":
		return NewTerminalNotifier(out), nil
	case "line":
		return NewLineNotifier(channelToken, lineUserID)
	case "log":
		return NewLogNotifier(log), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", backend)
	}
}
