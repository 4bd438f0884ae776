package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/marketingreboot/reboot-api/internal/config"
	"github.com/marketingreboot/reboot-api/internal/database"
	"github.com/marketingreboot/reboot-api/internal/logging"
	"github.com/marketingreboot/reboot-api/internal/services"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: promote-admin <email>")
		os.Exit(1)
	}

	email := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	profiles := services.NewProfileService(db, log, nil, cfg.FetchTimeout)

	profile, err := profiles.PromoteAdminByEmail(ctx, email)
	if errors.Is(err, services.ErrNotFound) {
		log.WithField("email", email).Fatal("No profile found with email; sign in once first")
	}
	if err != nil {
		log.WithError(err).Fatal("Failed to promote profile")
	}

	fmt.Printf("Successfully promoted %s (%s) to verified admin contributor\n", profile.Email, profile.ID)
}
