package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/math"
	"github.com/openalpha/lbp-dex/offchain/watcher"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// Config holds the application configuration
type Config struct {
	TickInterval   time.Duration `json:"tick_interval"`
	BatchSize      int           `json:"batch_size"`
	BatchInterval  time.Duration `json:"batch_interval"`
	DriftTolerance string        `json:"drift_tolerance"`
	WebSocketURL   string        `json:"websocket_url"`
	ChainRPCURL    string        `json:"chain_rpc_url"`
	SubmitterType  string        `json:"submitter_type"` // "mock" or "batch"
	Demo           bool          `json:"demo"`           // run demo mode
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TickInterval:   time.Second,
		BatchSize:      50,
		BatchInterval:  500 * time.Millisecond,
		DriftTolerance: "0.01",
		WebSocketURL:   "ws://localhost:26657/websocket",
		ChainRPCURL:    "http://localhost:26657",
		SubmitterType:  "mock",
		Demo:           false,
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	tickInterval := flag.Duration("tick-interval", 0, "Boundary check interval")
	batchSize := flag.Int("batch-size", 0, "Maximum alerts per batch")
	batchInterval := flag.Duration("batch-interval", 0, "Time interval for batch submission")
	driftTolerance := flag.String("drift-tolerance", "", "Max normalized weight deviation before a drift alert")
	rpcURL := flag.String("rpc", "", "Chain RPC URL")
	wsURL := flag.String("ws", "", "WebSocket URL")
	submitterType := flag.String("submitter", "", "Submitter type (mock or batch)")
	demo := flag.Bool("demo", false, "Run demo mode with a sample launch pool")
	flag.Parse()

	// Load configuration
	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Override with command line flags
	if *tickInterval > 0 {
		config.TickInterval = *tickInterval
	}
	if *batchSize > 0 {
		config.BatchSize = *batchSize
	}
	if *batchInterval > 0 {
		config.BatchInterval = *batchInterval
	}
	if *driftTolerance != "" {
		config.DriftTolerance = *driftTolerance
	}
	if *rpcURL != "" {
		config.ChainRPCURL = *rpcURL
	}
	if *wsURL != "" {
		config.WebSocketURL = *wsURL
	}
	if *submitterType != "" {
		config.SubmitterType = *submitterType
	}
	if *demo {
		config.Demo = true
	}

	tolerance, err := math.LegacyNewDecFromStr(config.DriftTolerance)
	if err != nil {
		log.Fatalf("Invalid drift tolerance %q: %v", config.DriftTolerance, err)
	}

	// Print configuration
	log.Println("=== LBP Glide Watcher ===")
	log.Printf("Tick Interval: %v", config.TickInterval)
	log.Printf("Batch Size: %d", config.BatchSize)
	log.Printf("Batch Interval: %v", config.BatchInterval)
	log.Printf("Drift Tolerance: %s", tolerance.String())
	log.Printf("Chain RPC: %s", config.ChainRPCURL)
	log.Printf("WebSocket: %s", config.WebSocketURL)
	log.Printf("Submitter: %s", config.SubmitterType)
	log.Println("=========================")

	// Create submitter
	factory := watcher.NewSubmitterFactory()
	submitter := factory.Create(config.SubmitterType, &watcher.BatchSubmitterConfig{
		RPCURL:        config.ChainRPCURL,
		BatchSize:     config.BatchSize,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	})

	// Create watcher
	watcherConfig := &watcher.Config{
		TickInterval:   config.TickInterval,
		BatchSize:      config.BatchSize,
		BatchInterval:  config.BatchInterval,
		DriftTolerance: tolerance,
		WebSocketURL:   config.WebSocketURL,
		ChainRPCURL:    config.ChainRPCURL,
	}
	w := watcher.NewGlideWatcher(watcherConfig, submitter)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the watcher
	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start watcher: %v", err)
	}

	// Run demo if requested
	if config.Demo {
		go runDemo(w)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Periodic stats logging
	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	log.Println("Watcher is running. Press Ctrl+C to stop.")

	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal: %v", sig)
			cancel()
			if err := w.Stop(); err != nil {
				log.Printf("Error stopping watcher: %v", err)
			}
			log.Println("Watcher stopped")
			return
		case <-statsTicker.C:
			stats := w.GetStats()
			log.Printf("Stats: Pools=%d, ActiveGlides=%d, PendingBoundaries=%d, PendingAlerts=%d",
				stats.TrackedPools, stats.ActiveGlides, stats.PendingBoundaries, stats.PendingAlerts)
		}
	}
}

// runDemo runs a demonstration with a sample launch pool
func runDemo(w *watcher.GlideWatcher) {
	log.Println("Starting demo mode...")
	time.Sleep(time.Second)

	w.RegisterDenom(&watcher.DenomInfo{Denom: "ualpha", Symbol: "ALPHA", Exponent: 6})
	w.RegisterDenom(&watcher.DenomInfo{Denom: "uusdc", Symbol: "USDC", Exponent: 6})

	// Launch pool gliding 96/4 -> 50/50 over ten seconds
	now := time.Now().Unix()
	startWeight, _ := math.LegacyNewDecFromStr("0.96")
	endWeight, _ := math.LegacyNewDecFromStr("0.5")
	fee, _ := math.LegacyNewDecFromStr("0.01")
	pool := &types.Pool{
		PoolID:  "demo-launch",
		Profile: types.ProfileBootstrap,
		Tokens: []types.PoolToken{
			{Denom: "ualpha", Balance: math.NewInt(96_000_000_000), Weight: startWeight},
			{Denom: "uusdc", Balance: math.NewInt(4_000_000_000), Weight: math.LegacyOneDec().Sub(startWeight)},
		},
		SwapFee:     fee,
		SwapEnabled: true,
		Owner:       "demo-owner",
		Schedule: types.WeightSchedule{
			StartTime:    now + 2,
			EndTime:      now + 10,
			StartWeights: []math.LegacyDec{startWeight, math.LegacyOneDec().Sub(startWeight)},
			EndWeights:   []math.LegacyDec{endWeight, endWeight},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	log.Printf("Tracking pool: %s (%s glide in %ds)", pool.PoolID, pool.Profile, pool.Schedule.StartTime-now)
	w.TrackPool(pool)
	time.Sleep(500 * time.Millisecond)
	printSchedule(w, pool.PoolID)

	// Report weights that match the schedule; no alert expected
	log.Println("\n=== Reporting On-Schedule Weights ===")
	w.ReportWeights(pool.PoolID, pool.NormalizedWeights(time.Now().Unix()))
	time.Sleep(500 * time.Millisecond)

	// Wait past the glide start boundary
	time.Sleep(3 * time.Second)
	log.Println("\n=== Schedule After Glide Start ===")
	printSchedule(w, pool.PoolID)

	// Report weights far off schedule; drift alert expected
	log.Println("\n=== Reporting Drifted Weights ===")
	drifted, _ := math.LegacyNewDecFromStr("0.8")
	w.ReportWeights(pool.PoolID, []math.LegacyDec{drifted, math.LegacyOneDec().Sub(drifted)})
	time.Sleep(500 * time.Millisecond)

	// Wait past the glide end boundary
	time.Sleep(8 * time.Second)
	log.Println("\n=== Final Schedule ===")
	printSchedule(w, pool.PoolID)

	log.Println("\nDemo completed!")
}

// printSchedule prints the current weights and upcoming boundaries
func printSchedule(w *watcher.GlideWatcher, poolID string) {
	pool, exists := w.GetPool(poolID)
	if !exists {
		log.Println("Pool not tracked")
		return
	}

	now := time.Now().Unix()
	weights := pool.NormalizedWeights(now)
	log.Printf("Schedule for %s (glide active: %v):", poolID, pool.GlideActive(now))
	log.Println("  Weights:")
	for i, token := range pool.Tokens {
		log.Printf("    %s = %s", token.Denom, weights[i].String())
	}
	log.Println("  Upcoming boundaries:")
	upcoming := w.UpcomingBoundaries(5)
	if len(upcoming) == 0 {
		log.Println("    (none)")
	}
	for _, b := range upcoming {
		log.Printf("    %s %s at %s", b.PoolID, b.Kind.String(), time.Unix(b.Time, 0).Format(time.RFC3339))
	}
}
