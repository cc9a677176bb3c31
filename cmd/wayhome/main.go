package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/wayhome/wayhome-go/api"
	"github.com/wayhome/wayhome-go/credstore"
	"github.com/wayhome/wayhome-go/crm"
	"github.com/wayhome/wayhome-go/internal/config"
	"github.com/wayhome/wayhome-go/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		printUsage()
		return errors.New("missing command")
	}

	c := config.New()
	logger := newLogger(c)

	store := newStore(c)
	authAPI, err := session.NewHTTPAuthAPI(c.GetAPIBaseURL(), session.WithAuthLogger(logger))
	if err != nil {
		return fmt.Errorf("session.NewHTTPAuthAPI: %w", err)
	}
	manager, err := session.NewManager(store, authAPI,
		session.WithLogger(logger),
		session.WithLookahead(c.GetTokenLookahead()),
		session.WithDefaultExpiry(c.GetDefaultTokenExpiry()),
	)
	if err != nil {
		return fmt.Errorf("session.NewManager: %w", err)
	}
	dispatcher, err := api.NewDispatcher(c.GetAPIBaseURL(), manager, api.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("api.NewDispatcher: %w", err)
	}

	app := &app{
		config:  c,
		log:     logger,
		manager: manager,
		crm:     crm.NewClient(dispatcher),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Validate any persisted session before running the command, the way
	// the web client does on startup.
	if args[0] != "login" {
		manager.CheckSession(ctx)
	}

	return app.dispatch(ctx, args[0], args[1:])
}

func newStore(c config.Config) credstore.Store {
	if key := c.GetCredentialsKey(); key != "" {
		return credstore.NewEncryptedStore(c.GetCredentialsFile(), key)
	}
	return credstore.NewFileStore(c.GetCredentialsFile())
}

func newLogger(c config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if c.GetEnv() == "DEV" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: wayhome <command> [flags]

Commands:
  login       -email <email> -password <password>
  logout
  whoami
  properties  [-status <status>] [-city <city>]
  leads       [-status <status>]`)
}
