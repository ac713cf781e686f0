package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"

	"github.com/gobinath/gcalendar/calendar/google"
	"github.com/gobinath/gcalendar/internal"
	"github.com/gobinath/gcalendar/internal/cron"
	"github.com/gobinath/gcalendar/internal/notify"
	"github.com/gobinath/gcalendar/internal/render"
	"github.com/gobinath/gcalendar/internal/sqlite"
)

type config struct {
	Account       string
	Reset         bool
	ListAccounts  bool
	ListCalendars bool
	Status        bool
	Calendars     Strings
	NoOfDays      int
	Output        string
	NotifyMins    int
	SetupCron     int
	RemoveCron    bool
	ClientID      string
	ClientSecret  string
	Debug         bool

	// notifySet distinguishes an explicit --notify 0, which is an
	// error, from the flag being left at its default.
	notifySet bool
}

func parseArgs(fs *flag.FlagSet, args []string) (*config, error) {
	cfg := &config{}

	fs.StringVar(&cfg.Account, "account", "default", "an alphanumeric name to uniquely identify the account")
	fs.BoolVar(&cfg.Reset, "reset", false, "delete the stored token and state for the account")
	fs.BoolVar(&cfg.ListAccounts, "list-accounts", false, "list authorized accounts")
	fs.BoolVar(&cfg.ListCalendars, "list-calendars", false, "list the account's calendars")
	fs.BoolVar(&cfg.Status, "status", false, "show authorization status for the account")
	fs.Var(&cfg.Calendars, "calendar", "calendar to read, repeatable (default: primary, \"*\" for all)")
	fs.IntVar(&cfg.NoOfDays, "no-of-days", 7, "number of days to include")
	fs.StringVar(&cfg.Output, "output", render.FormatText, "output format: text or json")
	fs.IntVar(&cfg.NotifyMins, "notify", 0, "notify on events starting within the given minutes")
	fs.IntVar(&cfg.SetupCron, "setup-cron", 0, "install a cron entry running every given minutes")
	fs.BoolVar(&cfg.RemoveCron, "remove-cron", false, "remove the cron entry")
	fs.StringVar(&cfg.ClientID, "client-id", "", "the Google client id")
	fs.StringVar(&cfg.ClientSecret, "client-secret", "", "the Google client secret")
	fs.BoolVar(&cfg.Debug, "debug", false, "show underlying diagnostics on errors")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "notify" {
			cfg.notifySet = true
		}
	})
	return cfg, cfg.validate()
}

// validate fails fast on bad flag values, before any network call.
func (cfg *config) validate() error {
	if err := internal.ValidateAccountID(cfg.Account); err != nil {
		return err
	}
	if cfg.NoOfDays <= 0 {
		return fmt.Errorf("%w: --no-of-days must be a positive number of days, got %d", internal.ErrInvalidArgument, cfg.NoOfDays)
	}
	if !render.ValidFormat(cfg.Output) {
		return fmt.Errorf("%w: --output must be %q or %q, got %q", internal.ErrInvalidArgument, render.FormatText, render.FormatJSON, cfg.Output)
	}
	if cfg.notifySet && cfg.NotifyMins <= 0 {
		return fmt.Errorf("%w: --notify must be a positive number of minutes, got %d", internal.ErrInvalidArgument, cfg.NotifyMins)
	}
	if cfg.SetupCron < 0 {
		return fmt.Errorf("%w: --setup-cron must be a positive number of minutes, got %d", internal.ErrInvalidArgument, cfg.SetupCron)
	}
	if (cfg.ClientID == "") != (cfg.ClientSecret == "") {
		return fmt.Errorf("%w: --client-id and --client-secret must be given together", internal.ErrInvalidArgument)
	}
	return nil
}

// frozenArgs is the argument list baked into the cron entry. The
// installing run itself does not fetch or notify; the scheduled runs
// carry --notify and repeat this configuration.
func (cfg *config) frozenArgs() []string {
	notifyMins := cfg.NotifyMins
	if notifyMins == 0 {
		notifyMins = 15
	}
	args := []string{
		"--account", cfg.Account,
		"--notify", strconv.Itoa(notifyMins),
		"--no-of-days", strconv.Itoa(cfg.NoOfDays),
	}
	for _, cal := range cfg.Calendars {
		args = append(args, "--calendar", cal)
	}
	if cfg.Debug {
		args = append(args, "--debug")
	}
	return args
}

func run(ctx context.Context, cfg *config, stdout, stderr io.Writer) error {
	if cfg.RemoveCron {
		return cron.New().Remove(ctx)
	}
	if cfg.SetupCron > 0 {
		return cron.New().Install(ctx, cfg.SetupCron, cfg.frozenArgs())
	}

	dir, err := configDir()
	if err != nil {
		return err
	}
	db, err := sql.Open(sqlite.DriverName, filepath.Join(dir, "gcalendar.db"))
	if err != nil {
		return err
	}
	defer db.Close()
	store := sqlite.NewStorage(db)

	switch {
	case cfg.Reset:
		return reset(ctx, store, cfg.Account, stdout)
	case cfg.ListAccounts:
		return listAccounts(ctx, store, stdout)
	case cfg.Status:
		return status(ctx, store, cfg.Account, stdout)
	}

	client, err := newClient(ctx, store, cfg)
	if err != nil {
		return err
	}
	return execute(ctx, cfg, store, client, client, stdout, stderr)
}

// execute covers the paths that talk to the calendar service. The
// provider and authorizer are injected, so tests drive it with fakes.
func execute(ctx context.Context, cfg *config, store *sqlite.Storage, provider internal.Provider, auth internal.Authorizer, stdout, stderr io.Writer) error {
	tok, err := resolveToken(ctx, store, auth, cfg, stdout)
	if err != nil {
		return err
	}

	if cfg.ListCalendars {
		cals, err := provider.Calendars(ctx, tok)
		if err != nil {
			return err
		}
		for _, cal := range cals {
			fmt.Fprintln(stdout, cal.Name)
		}
		return nil
	}

	it, err := provider.Events(ctx, tok, cfg.Calendars, cfg.NoOfDays)
	if err != nil {
		return err
	}
	var events []*internal.Event
	for it.Next() {
		events = append(events, it.Event())
	}
	if err := it.Err(); err != nil {
		return err
	}

	if cfg.NotifyMins > 0 {
		return notifyDue(ctx, store, cfg, events, stderr)
	}
	return render.Render(stdout, events, cfg.Output)
}

// newClient builds the provider using, in order of preference, the
// credentials given on the command line, the override stored with the
// account, and the built-in application credentials.
func newClient(ctx context.Context, store *sqlite.Storage, cfg *config) (*google.Client, error) {
	clientID, clientSecret := cfg.ClientID, cfg.ClientSecret
	if clientID == "" {
		acc, err := store.Account(ctx, cfg.Account)
		if err != nil {
			return nil, err
		}
		clientID, clientSecret = acc.ClientID, acc.ClientSecret
	}
	client := google.NewClient(clientID, clientSecret)
	client.Verbose = cfg.Debug
	return client, nil
}

// resolveToken loads the stored token, falling back to the interactive
// authorization flow when the account has none yet.
func resolveToken(ctx context.Context, store *sqlite.Storage, auth internal.Authorizer, cfg *config, stdout io.Writer) (*oauth2.Token, error) {
	tok, err := store.Token(ctx, cfg.Account)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, internal.ErrAuthRequired) {
		return nil, err
	}

	tok, err = auth.Login(ctx, func(authURL string) {
		fmt.Fprintf(stdout, "Go to the following link in your browser\n%s\n", authURL)
	})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if err := store.SaveToken(ctx, cfg.Account, tok); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	if cfg.ClientID != "" {
		err := store.SaveAccount(ctx, &internal.Account{
			ID:           cfg.Account,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		})
		if err != nil {
			return nil, fmt.Errorf("saving account: %w", err)
		}
	}
	return tok, nil
}

func reset(ctx context.Context, store *sqlite.Storage, accountID string, stdout io.Writer) error {
	found, err := store.Reset(ctx, accountID)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(stdout, "Account %q does not exist\n", accountID)
		return nil
	}
	fmt.Fprintf(stdout, "Resetting %s... Success!\n", accountID)
	return nil
}

func listAccounts(ctx context.Context, store *sqlite.Storage, stdout io.Writer) error {
	ids, err := store.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(stdout, id)
	}
	return nil
}

func status(ctx context.Context, store *sqlite.Storage, accountID string, stdout io.Writer) error {
	tok, err := store.Token(ctx, accountID)
	if errors.Is(err, internal.ErrAuthRequired) {
		fmt.Fprintf(stdout, "Account %q: not authorized\n", accountID)
		return nil
	}
	if err != nil {
		return err
	}
	if tok.Expiry.IsZero() {
		fmt.Fprintf(stdout, "Account %q: authorized\n", accountID)
	} else {
		fmt.Fprintf(stdout, "Account %q: authorized (access token expires %s)\n", accountID, tok.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

type notifier interface {
	Send(ctx context.Context, e *internal.Event) error
}

var newNotifier = func(w io.Writer) notifier { return notify.NewNotifier(w) }

func notifyDue(ctx context.Context, store *sqlite.Storage, cfg *config, events []*internal.Event, stderr io.Writer) error {
	state, err := store.NotificationState(ctx, cfg.Account)
	if err != nil {
		return err
	}

	lead := time.Duration(cfg.NotifyMins) * time.Minute
	due, next := notify.FilterDue(events, lead, state, time.Now())

	notifier := newNotifier(stderr)
	for _, e := range due {
		// Send failures are logged by the notifier; the state still
		// records the attempt so a broken notify-send does not cause a
		// burst of duplicates once it recovers.
		_ = notifier.Send(ctx, e)
	}
	return store.SaveNotificationState(ctx, cfg.Account, next)
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "gcalendar")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
