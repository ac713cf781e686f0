package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gobinath/gcalendar/internal"
)

type fakeCrontab struct {
	content string
}

func newFakeCrontab(initial string) (*Crontab, *fakeCrontab) {
	fake := &fakeCrontab{content: initial}
	c := &Crontab{
		read: func(context.Context) (string, error) {
			return fake.content, nil
		},
		write: func(_ context.Context, content string) error {
			fake.content = content
			return nil
		},
		executable: func() (string, error) {
			return "/usr/local/bin/gcalendar", nil
		},
	}
	return c, fake
}

func TestInstall(t *testing.T) {
	c, fake := newFakeCrontab("0 0 * * * /usr/bin/backup\n")
	ctx := context.Background()

	err := c.Install(ctx, 5, []string{"--account", "work", "--notify", "15"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	want := "0 0 * * * /usr/bin/backup\n" +
		"*/5 * * * * /usr/local/bin/gcalendar --account work --notify 15 " + marker + "\n"
	if fake.content != want {
		t.Errorf("crontab = %q, want %q", fake.content, want)
	}
}

func TestInstallReplacesPriorEntry(t *testing.T) {
	c, fake := newFakeCrontab("")
	ctx := context.Background()

	if err := c.Install(ctx, 5, []string{"--notify", "15"}); err != nil {
		t.Fatalf("first Install() error = %v", err)
	}
	if err := c.Install(ctx, 10, []string{"--notify", "30"}); err != nil {
		t.Fatalf("second Install() error = %v", err)
	}

	if n := strings.Count(fake.content, marker); n != 1 {
		t.Errorf("expected exactly one marked entry, found %d in %q", n, fake.content)
	}
	if !strings.Contains(fake.content, "*/10 * * * *") {
		t.Errorf("second install should win, crontab = %q", fake.content)
	}
}

func TestInstallQuotesMultiWordArguments(t *testing.T) {
	c, fake := newFakeCrontab("")
	ctx := context.Background()

	err := c.Install(ctx, 5, []string{"--calendar", "Team Events", "--notify", "15"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	want := "*/5 * * * * /usr/local/bin/gcalendar --calendar 'Team Events' --notify 15 " + marker + "\n"
	if fake.content != want {
		t.Errorf("crontab = %q, want %q", fake.content, want)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"--notify", "--notify"},
		{"/usr/local/bin/gcalendar", "/usr/local/bin/gcalendar"},
		{"Team Events", "'Team Events'"},
		{"", "''"},
		{"it's", `'it'\''s'`},
		{"50% off", `'50\% off'`},
	}

	for _, tt := range tests {
		if got := quote(tt.arg); got != tt.want {
			t.Errorf("quote(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestInstallRejectsBadInterval(t *testing.T) {
	c, _ := newFakeCrontab("")
	ctx := context.Background()

	for _, interval := range []int{0, -5, 60, 120} {
		err := c.Install(ctx, interval, nil)
		if !errors.Is(err, internal.ErrInvalidArgument) {
			t.Errorf("Install(%d) error = %v, want ErrInvalidArgument", interval, err)
		}
	}
}

func TestRemove(t *testing.T) {
	initial := "0 0 * * * /usr/bin/backup\n" +
		"*/5 * * * * /usr/local/bin/gcalendar --notify 15 " + marker + "\n"
	c, fake := newFakeCrontab(initial)
	ctx := context.Background()

	if err := c.Remove(ctx); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if fake.content != "0 0 * * * /usr/bin/backup\n" {
		t.Errorf("crontab = %q, foreign entries must survive", fake.content)
	}

	// Removing again is a no-op.
	if err := c.Remove(ctx); err != nil {
		t.Fatalf("second Remove() error = %v", err)
	}
	if fake.content != "0 0 * * * /usr/bin/backup\n" {
		t.Errorf("crontab = %q after idempotent remove", fake.content)
	}
}

func TestRemoveEmptyCrontab(t *testing.T) {
	c, fake := newFakeCrontab("")
	if err := c.Remove(context.Background()); err != nil {
		t.Fatalf("Remove() on empty crontab error = %v", err)
	}
	if fake.content != "" {
		t.Errorf("crontab = %q, want empty", fake.content)
	}
}

func TestStripEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", ""},
		{
			"only marked entry",
			"*/5 * * * * /bin/gcalendar " + marker + "\n",
			"",
		},
		{
			"keeps other lines",
			"A\n*/5 * * * * /bin/gcalendar " + marker + "\nB\n",
			"A\nB\n",
		},
		{
			"no marked entry",
			"A\nB\n",
			"A\nB\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripEntries(tt.content); got != tt.want {
				t.Errorf("stripEntries(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
