package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gobinath/gcalendar/internal"
)

func main() {
	cfg, err := parseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		<-ch
		cancel()
	}()

	if err := run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		if cfg.Debug {
			fmt.Fprintln(os.Stderr, "Error:", err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		}
		os.Exit(1)
	}
}

// userMessage trades the wrapped diagnostic for a remedy the user can
// act on. --debug prints the full chain instead.
func userMessage(err error) string {
	switch {
	case errors.Is(err, internal.ErrAuthRequired):
		return fmt.Sprintf("%v. Run the command again to authorize the account.", err)
	case errors.Is(err, internal.ErrAuthExpired):
		return "the stored authorization was rejected by Google. Run with --reset and authorize the account again."
	case errors.Is(err, internal.ErrNetwork):
		return "unable to reach Google Calendar. Check your connection and try again."
	case errors.Is(err, internal.ErrSchedulerUnavailable):
		return "unable to talk to the system scheduler (is crontab installed?)."
	default:
		return err.Error()
	}
}
