package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rbright/eds-schedule/internal/app"
	"github.com/rbright/eds-schedule/internal/config"
	"github.com/rbright/eds-schedule/internal/log"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			printUsage()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.SetLevel(cfg.LogLevel)

	timeout := cfg.Timeout + 5*time.Second
	if timeout < 10*time.Second {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.Run(ctx, args, cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println(`eds-schedule edits the date, time and repeat rule of one calendar event at a time.

  status                     waybar JSON for the open edit session
  show                       describe the open edit session
  open REF                   start editing a stored event
  new [CALENDAR]             start editing a new event
  title TEXT                 name a new event
  all-day on|off
  start-date DATE            DATE is YYYY-MM-DD, today or tomorrow
  end-date DATE
  start DATETIME             DATETIME is YYYY-MM-DDTHH:MM or RFC 3339
  end DATETIME
  repeat FREQ                none|daily|weekdays|weekly|monthly|yearly
  limit forever|count|until
  count N
  until DATE
  time-format 12h|24h
  save [this|future|all]     write the session back to its calendar
  cancel                     discard the session
  calendars                  list calendars
  agenda                     upcoming events
  join                       open the meeting link of the next event`)
}
