package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/wayhome/wayhome-go/crm"
	"github.com/wayhome/wayhome-go/internal/config"
	"github.com/wayhome/wayhome-go/session"
)

type app struct {
	config  config.Config
	log     zerolog.Logger
	manager *session.Manager
	crm     *crm.Client
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.manager.Logout()
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return a.whoami()
	case "properties":
		return a.properties(ctx, args)
	case "leads":
		return a.leads(ctx, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login requires -email and -password")
	}

	displayAppname(a.config.GetAppName())
	if !a.manager.Login(ctx, *email, *password) {
		return errors.New("login failed")
	}

	user := a.manager.CurrentUser()
	fmt.Printf("Logged in as %s (%s)\n", user.DisplayName(), user.Role)
	return nil
}

func (a *app) whoami() error {
	user := a.manager.CurrentUser()
	if user == nil {
		return errors.New("not logged in")
	}
	fmt.Printf("%s <%s>\n", user.DisplayName(), user.Email)
	fmt.Printf("role: %s", user.Role)
	if user.OfficeID != "" {
		fmt.Printf("  office: %s", user.OfficeID)
	}
	fmt.Println()
	return nil
}

func (a *app) properties(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("properties", flag.ContinueOnError)
	status := flags.String("status", "", "filter by listing status")
	city := flags.String("city", "", "filter by city")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	page, err := a.crm.Properties.List(ctx, crm.PropertyFilter{
		Status: crm.PropertyStatus(*status),
		City:   *city,
	})
	if err != nil {
		return fmt.Errorf("listing properties: %w", err)
	}

	w := os.Stdout
	fmt.Fprintf(w, "%d properties (showing %d)\n", page.Total, len(page.Items))
	for _, p := range page.Items {
		fmt.Fprintf(w, "  %-12s %-10s %10.2f %s  %s\n", p.ID, p.Status, float64(p.Price)/100, p.Currency, p.Title)
	}
	return nil
}

func (a *app) leads(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("leads", flag.ContinueOnError)
	status := flags.String("status", "", "filter by lead status")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	page, err := a.crm.Leads.List(ctx, crm.LeadFilter{Status: crm.LeadStatus(*status)})
	if err != nil {
		return fmt.Errorf("listing leads: %w", err)
	}

	fmt.Printf("%d leads (showing %d)\n", page.Total, len(page.Items))
	for _, l := range page.Items {
		fmt.Printf("  %-12s %-12s %s %s <%s>\n", l.ID, l.Status, l.FirstName, l.LastName, l.Email)
	}
	return nil
}

func (a *app) requireSession(ctx context.Context) error {
	if a.manager.GetValidToken(ctx) == "" {
		return errors.New("not logged in - run `wayhome login` first")
	}

	// Keep the token fresh for the duration of long-running commands.
	go a.manager.RunKeeper(ctx, a.config.GetKeeperInterval())
	return nil
}
