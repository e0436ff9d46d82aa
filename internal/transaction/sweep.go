package transaction

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sudo-init-do/campusmarket/internal/market"
)

// StartExpirySweep runs the reservation expiry sweep on a cron schedule.
// Overdue Reserved transactions become Expired and their listings return to
// the catalogue. The schedule defaults to every 5 minutes and can be
// overridden with EXPIRY_SWEEP_SCHEDULE.
func StartExpirySweep(e *market.Engine) *cron.Cron {
	schedule := os.Getenv("EXPIRY_SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = "@every 5m"
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		expired, err := e.ExpireOverdue(ctx)
		if err != nil {
			log.Printf("expiry sweep failed: %v", err)
		}
		for _, t := range expired {
			notifyExpired(t)
		}
		if len(expired) > 0 {
			log.Printf("expiry sweep: expired %d overdue reservations", len(expired))
		}
	})
	if err != nil {
		log.Fatalf("invalid expiry sweep schedule %q: %v", schedule, err)
	}
	c.Start()
	log.Printf("expiry sweep scheduled (%s)", schedule)
	return c
}
