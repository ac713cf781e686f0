// Package cron installs and removes the crontab entry that re-invokes
// the tool on a fixed interval. The entry is recognized by a trailing
// marker comment, so install is an idempotent replace and remove only
// ever touches our own line.
package cron

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gobinath/gcalendar/internal"
)

const marker = "# gcalendar-notify"

type Crontab struct {
	// read and write shell out to crontab(1), swapped out in tests.
	read  func(ctx context.Context) (string, error)
	write func(ctx context.Context, content string) error

	executable func() (string, error)
}

func New() *Crontab {
	return &Crontab{
		read:       readCrontab,
		write:      writeCrontab,
		executable: os.Executable,
	}
}

// Install replaces this tool's crontab entry with one that reruns the
// current binary every intervalMinutes with the frozen arguments.
func (c *Crontab) Install(ctx context.Context, intervalMinutes int, frozenArgs []string) error {
	if intervalMinutes <= 0 || intervalMinutes > 59 {
		return fmt.Errorf("%w: cron interval must be between 1 and 59 minutes, got %d", internal.ErrInvalidArgument, intervalMinutes)
	}
	bin, err := c.executable()
	if err != nil {
		return fmt.Errorf("%w: resolving executable path: %v", internal.ErrSchedulerUnavailable, err)
	}

	existing, err := c.read(ctx)
	if err != nil {
		return err
	}
	content := stripEntries(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry(intervalMinutes, bin, frozenArgs) + "\n"
	return c.write(ctx, content)
}

// Remove deletes this tool's crontab entry if present. Removing when
// no entry exists is a no-op.
func (c *Crontab) Remove(ctx context.Context) error {
	existing, err := c.read(ctx)
	if err != nil {
		return err
	}
	content := stripEntries(existing)
	if content == existing {
		return nil
	}
	return c.write(ctx, content)
}

func entry(intervalMinutes int, bin string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, p := range append([]string{bin}, args...) {
		parts = append(parts, quote(p))
	}
	return fmt.Sprintf("*/%d * * * * %s %s", intervalMinutes, strings.Join(parts, " "), marker)
}

const literalChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@_-+=:,./"

// quote makes an argument survive the shell word splitting cron applies
// to the command line, so a calendar name with spaces stays one word.
// Percent signs are backslash-escaped as well, since cron turns an
// unescaped % into a newline before the shell ever sees the line.
func quote(arg string) string {
	safe := arg != "" && strings.IndexFunc(arg, func(r rune) bool {
		return !strings.ContainsRune(literalChars, r)
	}) == -1
	if !safe {
		arg = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.ReplaceAll(arg, "%", `\%`)
}

// stripEntries drops every line carrying the marker comment, keeping
// the rest of the user's crontab untouched.
func stripEntries(content string) string {
	if content == "" {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if strings.HasSuffix(strings.TrimSpace(line), marker) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}

func readCrontab(ctx context.Context) (string, error) {
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "crontab", "-l")
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return out.String(), nil
	}
	// crontab -l exits non-zero when the user has no crontab yet.
	if _, ok := err.(*exec.ExitError); ok {
		return "", nil
	}
	return "", fmt.Errorf("%w: running crontab: %v", internal.ErrSchedulerUnavailable, err)
}

func writeCrontab(ctx context.Context, content string) error {
	cmd := exec.CommandContext(ctx, "crontab", "-")
	cmd.Stdin = strings.NewReader(content)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: updating crontab: %v", internal.ErrSchedulerUnavailable, err)
	}
	return nil
}
