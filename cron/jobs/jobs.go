// Package jobs declares the scheduled job entry points referenced by
// config.CronJobs. The real work is bound at startup with Bind: config
// imports this package, so the implementations (which need config, database
// and services) are injected from main instead of imported here.
package jobs

import (
	"log"
	"sync"
)

var (
	mu       sync.RWMutex
	handlers = map[string]func(...string){}
)

// Bind attaches the implementation for a named job. Call from main before
// the scheduler starts.
func Bind(name string, fn func(...string)) {
	mu.Lock()
	defer mu.Unlock()
	handlers[name] = fn
}

func run(name string, args ...string) {
	mu.RLock()
	fn := handlers[name]
	mu.RUnlock()
	if fn == nil {
		log.Printf("cron job %s: no handler bound, skipping", name)
		return
	}
	fn(args...)
}

// ReservationExpiryJob sweeps overdue reservations.
func ReservationExpiryJob(args ...string) {
	run("reservationexpiry", args...)
}

// LowStockScanJob re-evaluates low stock across all tenants.
func LowStockScanJob(args ...string) {
	run("lowstockscan", args...)
}
