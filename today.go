package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/perbu/today/agenda"
	"github.com/perbu/today/config"
	"github.com/perbu/today/dateparse"
	"github.com/perbu/today/eventstore"
	"github.com/perbu/today/gcal"
	"github.com/perbu/today/ics"
	"github.com/perbu/today/server"
)

//go:embed .version
var embeddedVersion string

// accessDeniedMsg is the error emitted when the store denies, errors or
// times out on the access request.
const accessDeniedMsg = "Calendar access not granted"

func run(stdout io.Writer, args []string) int {
	loader, err := config.NewFileLoader()
	if err != nil {
		agenda.EmitError(stdout, err.Error())
		return 1
	}
	cfg, err := loader.LoadConfig()
	if err != nil {
		agenda.EmitError(stdout, err.Error())
		return 1
	}

	if len(args) > 0 {
		switch args[0] {
		case "help":
			printUsage()
			return 0
		case "serve":
			return runServe(cfg, loader)
		}
	}

	var dateArg string
	if len(args) > 0 {
		dateArg = args[0]
	}

	store, err := buildStore(cfg, loader, time.Local)
	if err != nil {
		agenda.EmitError(stdout, err.Error())
		return 1
	}
	return runDay(stdout, store, dateArg, time.Local, eventstore.AccessTimeout)
}

// runDay executes one query/filter/normalize/serialize pass and writes a
// single JSON value to stdout.
func runDay(stdout io.Writer, store eventstore.Store, dateArg string, loc *time.Location, timeout time.Duration) int {
	date := dateparse.Resolve(dateArg, loc)
	window, err := dateparse.DayOf(date, loc)
	if err != nil {
		agenda.EmitError(stdout, err.Error())
		return 1
	}

	if !eventstore.WaitForAccess(store, timeout) {
		agenda.EmitError(stdout, accessDeniedMsg)
		return 1
	}

	events, err := store.Events(context.Background(), window.Start, window.End)
	if err != nil {
		agenda.EmitError(stdout, err.Error())
		return 1
	}

	if err := agenda.Emit(stdout, agenda.Build(events, loc)); err != nil {
		return 1
	}
	return 0
}

// buildStore selects the calendar backend from the configuration.
func buildStore(cfg *config.Config, loader config.Loader, loc *time.Location) (eventstore.Store, error) {
	switch cfg.Source {
	case config.SourceICS:
		return ics.New(cfg.ICSFeeds, loc), nil
	case config.SourceGoogle, "":
		return gcal.New(loader), nil
	default:
		return nil, fmt.Errorf("unknown calendar source %q", cfg.Source)
	}
}

// runServe authorizes the store once, then serves the pipeline over HTTP.
// Serve-mode diagnostics go to stderr; there is no stdout JSON contract
// in this mode.
func runServe(cfg *config.Config, loader config.Loader) int {
	store, err := buildStore(cfg, loader, time.Local)
	if err != nil {
		log.Print(err)
		return 1
	}
	if !eventstore.WaitForAccess(store, eventstore.AccessTimeout) {
		log.Print(accessDeniedMsg)
		return 1
	}

	highlight := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "today %s serving on %s\n",
		highlight(version()), highlight(cfg.Listen))

	srv := server.New(store, time.Local)
	if err := srv.Run(cfg.Listen); err != nil {
		log.Print(err)
		return 1
	}
	return 0
}

func printUsage() {
	name := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Println("today - one-day calendar agenda as JSON, version", version())
	fmt.Printf("Usage: %s [YYYY-MM-DD]   print the day's events as a JSON array\n", name("today"))
	fmt.Printf("       %s serve          serve /events and /stats over HTTP\n", name("today"))
}

func version() string {
	return strings.TrimSpace(embeddedVersion)
}

func main() {
	os.Exit(run(os.Stdout, os.Args[1:]))
}
