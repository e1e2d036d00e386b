package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clog "cosmossdk.io/log"
	"github.com/openalpha/lbp-dex/api"
)

func main() {
	// Command line flags
	host := flag.String("host", "0.0.0.0", "Server host")
	port := flag.Int("port", 8080, "Server port")
	mockMode := flag.Bool("mock", false, "Enable mock data mode")
	benchMode := flag.Bool("bench", false, "Enable benchmark mode (no rate limiting)")
	flag.Parse()

	if *benchMode {
		log.Println("Benchmark mode: Rate limiting disabled")
	}

	// Create configuration
	config := &api.Config{
		Host:             *host,
		Port:             *port,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     30 * time.Second,
		MockMode:         *mockMode,
		DisableRateLimit: *benchMode,
	}

	// Create server
	var server *api.Server
	var keeperService *api.KeeperService
	if *mockMode {
		server = api.NewServer(config)
		log.Println("Using MockService (linear prices, no swap invariant)")
	} else {
		var err error
		keeperService, err = api.NewKeeperService(clog.NewLogger(os.Stderr))
		if err != nil {
			log.Fatalf("Failed to create keeper service: %v", err)
		}
		server = api.NewServerWithServices(config, keeperService, keeperService, keeperService)
		log.Println("Using KeeperService (real lbp pricing engine)")
	}

	// Add raw pool state endpoint if in keeper mode
	if keeperService != nil {
		go func() {
			time.Sleep(100 * time.Millisecond) // Wait for main server to start
			mux := http.NewServeMux()
			mux.HandleFunc("/pools/", func(w http.ResponseWriter, r *http.Request) {
				poolID := r.URL.Path[len("/pools/"):]
				if poolID == "" {
					poolID = "genesis-launch"
				}
				pool, err := keeperService.GetPool(context.Background(), poolID)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Access-Control-Allow-Origin", "*")
				if err != nil {
					w.WriteHeader(http.StatusNotFound)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"error": err.Error(),
					})
					return
				}
				json.NewEncoder(w).Encode(map[string]interface{}{
					"pool":      pool,
					"timestamp": time.Now().UnixMilli(),
				})
			})
			log.Println("Raw pool state endpoint: http://localhost:8081/pools/genesis-launch")
			http.ListenAndServe(":8081", mux)
		}()
	}

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("LBP API Server started on %s:%d", *host, *port)
	log.Printf("Mock mode: %v", *mockMode)
	log.Printf("WebSocket endpoint: ws://%s:%d/ws", *host, *port)
	log.Printf("Health check: http://%s:%d/health", *host, *port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server exited")
}
