/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Pay Engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Build the public-holiday calendar
  4. Create API handler with dependencies
  5. Start the month-end scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: pay.db)
             Use ":memory:" for in-memory database
  -company   Company id used by the month-end scheduler (default: c-demo)
  -scheduler Enable the automated month-end runs (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Stop the scheduler
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/pay.db"

  # Run with in-memory database, no scheduler
  ./server -db=":memory:" -scheduler=false

ENVIRONMENT:
  No environment variables currently. All config via flags.
  Future: DATABASE_URL, PORT, LOG_LEVEL

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/pay-engine/api"
	"github.com/warp/pay-engine/pay"
	"github.com/warp/pay-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "pay.db", "SQLite database path")
	companyID := flag.String("company", "c-demo", "Company id for scheduled month-end runs")
	schedulerEnabled := flag.Bool("scheduler", true, "Enable automated month-end runs")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, frenchHolidayCalendar())

	// Start scheduler
	scheduler := api.NewMonthEndScheduler(store, handler, *companyID)
	scheduler.Enabled = *schedulerEnabled
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// frenchHolidayCalendar builds the fixed-date French public holidays for
// last year through next year. Movable feasts (Easter Monday, Ascension,
// Whit Monday) are not included yet.
// TODO: compute the Easter-derived holidays instead of hardcoding dates.
func frenchHolidayCalendar() pay.Calendar {
	type monthDay struct {
		month time.Month
		day   int
	}
	fixed := []monthDay{
		{time.January, 1},   // New Year's Day
		{time.May, 1},       // Labour Day
		{time.May, 8},       // Victory in Europe Day
		{time.July, 14},     // Bastille Day
		{time.August, 15},   // Assumption
		{time.November, 1},  // All Saints' Day
		{time.November, 11}, // Armistice Day
		{time.December, 25}, // Christmas
	}

	currentYear := time.Now().Year()
	var holidays []time.Time
	for year := currentYear - 1; year <= currentYear+1; year++ {
		for _, md := range fixed {
			holidays = append(holidays, time.Date(year, md.month, md.day, 0, 0, 0, 0, time.UTC))
		}
	}
	return pay.NewFixedCalendar(holidays...)
}
