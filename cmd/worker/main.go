package main

import (
	"context"
	"os"
	"os/signal"
	"roamstay/config"
	"roamstay/di"
	"roamstay/shared/logger"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	worker := di.InitializeWorker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx)

	sweepInterval := time.Duration(cfg.Notification.SweepIntervalMin) * time.Minute
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	log.Info().Dur("sweep_interval", sweepInterval).Msg("Notification worker started.")

	for {
		select {
		case <-ticker.C:
			if err := worker.ExpireStaleBookings(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to expire stale bookings")
			}

			if err := worker.SendCheckInReminders(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to send check-in reminders")
			}
		case <-done:
			log.Info().Msg("Received SIGTERM. Shutting down worker.")

			return
		}
	}
}
