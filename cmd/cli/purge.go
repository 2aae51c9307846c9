package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/carbiooai/carbioo-api/config"
	"github.com/carbiooai/carbioo-api/domain/waitlist"
	"github.com/carbiooai/carbioo-api/internal/log"
)

const defaultPurgeRetention = 30 * 24 * time.Hour

// purgeExpired clears token/expiry pairs of unverified entries whose token
// expired before now minus the retention window. Cleared tokens then report
// "invalid" instead of "expired".
func purgeExpired(logger *log.Logger, args []string) error {
	flags := flag.NewFlagSet("purge-expired", flag.ContinueOnError)
	olderThan := flags.Duration("older-than", defaultPurgeRetention, "only clear tokens expired longer ago than this")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *olderThan < 0 {
		return fmt.Errorf("--older-than must not be negative, got %s", *olderThan)
	}

	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db, logger)

	// purge never sends mail, so the service gets no notifier.
	service := waitlist.NewWaitlistServiceFactory(db, logger, nil, waitlist.ControllerConfig{}, nil).CreateService()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cleared, err := service.PurgeExpiredTokens(ctx, time.Now().Add(-*olderThan))
	if err != nil {
		return err
	}

	fmt.Printf("cleared %d expired verification tokens\n", cleared)
	return nil
}
