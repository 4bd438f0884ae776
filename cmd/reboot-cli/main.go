package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marketingreboot/reboot-api/internal/access"
	"github.com/marketingreboot/reboot-api/internal/client"
	"github.com/marketingreboot/reboot-api/internal/config"
	"github.com/marketingreboot/reboot-api/internal/logging"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/marketingreboot/reboot-api/internal/session"
)

func main() {
	cfg := config.LoadClient()
	log := logging.NewWithOutput("development", cfg.LogLevel, os.Stderr)

	cachePath := cfg.CachePath
	if cachePath == "" {
		path, err := session.DefaultCachePath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to locate session file: %v\n", err)
			os.Exit(1)
		}
		cachePath = path
	}

	api, err := client.New(cfg.APIURL, cfg.FetchTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create api client: %v\n", err)
		os.Exit(1)
	}

	store := session.New(api, session.Options{
		Cache:   session.NewFileCache(cachePath),
		Timeout: cfg.FetchTimeout,
		Logger:  log,
	})

	seeds := roles.NewSeeds(cfg.Access.SeedAdminEmails...)
	tracker := roles.NewTracker(client.NewProfileFetcher(api, store, log), seeds, cfg.FetchTimeout)
	defer tracker.Close()

	unsubscribe := store.OnChange(tracker.HandleIdentity)
	defer unsubscribe()

	a := &app{
		store:   store,
		tracker: tracker,
		policy:  access.Policy{AdminBypassesVerification: cfg.Access.AdminBypassesVerification},
		routes: access.Routes{
			Authenticated: cfg.Access.AuthenticatedPaths,
			Contributor:   cfg.Access.ContributorPaths,
		},
		loginPath: cfg.Access.LoginPath,
		homePath:  cfg.Access.HomePath,
		out:       os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
