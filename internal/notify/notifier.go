package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/gobinath/gcalendar/internal"
)

// Notifier sends desktop notifications through notify-send. Sends are
// fire-and-forget: a failure is logged and does not abort the run.
type Notifier struct {
	output io.Writer

	// run is swapped out in tests.
	run func(ctx context.Context, name string, args ...string) error
}

func NewNotifier(output io.Writer) *Notifier {
	if output == nil {
		output = os.Stderr
	}
	return &Notifier{
		output: output,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (n *Notifier) Send(ctx context.Context, e *internal.Event) error {
	title := fmt.Sprintf("Upcoming calendar event: %s", summaryOrDefault(e))

	lines := []string{
		fmt.Sprintf("Date: %s", e.StartsAt.Format("2006-01-02")),
		fmt.Sprintf("Time: %s", e.StartsAt.Format("15:04")),
	}
	if e.Location != "" {
		lines = append(lines, fmt.Sprintf("Location: %s", e.Location))
	}
	if e.Calendar != "" {
		lines = append(lines, fmt.Sprintf("Calendar: %s", e.Calendar))
	}

	ensureSessionEnv()

	err := n.run(ctx, "notify-send",
		"--icon=appointment",
		"--urgency=normal",
		"--expire-time=10000",
		title,
		strings.Join(lines, "\n"),
	)
	if err != nil {
		internal.Logf(n.output, "notify:", "", "unable to send notification for %q: %v", e.Summary, err)
		return err
	}
	return nil
}

func summaryOrDefault(e *internal.Event) string {
	if e.Summary == "" {
		return "Unnamed event"
	}
	return e.Summary
}

// ensureSessionEnv fills in the session variables notify-send needs
// when the process is started by cron rather than the user's session.
func ensureSessionEnv() {
	if os.Getenv("DISPLAY") == "" {
		os.Setenv("DISPLAY", ":0")
	}
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		busPath := fmt.Sprintf("/run/user/%d/bus", os.Getuid())
		if _, err := os.Stat(busPath); err == nil {
			os.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path="+busPath)
		}
	}
}
