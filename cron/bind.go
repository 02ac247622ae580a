package cron

import (
	"context"
	"log"

	"gorm.io/gorm"

	"remanerp/core/alerts"
	"remanerp/cron/jobs"
	purchaseService "remanerp/service/purchase"
	reservationService "remanerp/service/reservation"
	stockService "remanerp/service/stock"
)

// BindDefaultJobs wires the built-in scheduled jobs to live service
// instances. Call once at startup, before StartCron.
func BindDefaultJobs(db *gorm.DB) error {
	notifier := alerts.New()
	stockSvc, err := stockService.NewService(db, notifier)
	if err != nil {
		return err
	}
	purchaseSvc := purchaseService.NewService(db)
	reservationSvc := reservationService.NewService(db, stockSvc, purchaseSvc, notifier)

	jobs.Bind("reservationexpiry", func(...string) {
		n, err := reservationSvc.ExpireOverdue(context.Background())
		if err != nil {
			log.Printf("reservation expiry sweep: %v", err)
			return
		}
		if n > 0 {
			log.Printf("reservation expiry sweep: %d reservations flagged", n)
		}
	})
	jobs.Bind("lowstockscan", func(...string) {
		n, err := stockSvc.LowStockScan(context.Background())
		if err != nil {
			log.Printf("low stock scan: %v", err)
			return
		}
		log.Printf("low stock scan: %d parts at or below threshold", n)
	})
	return nil
}
