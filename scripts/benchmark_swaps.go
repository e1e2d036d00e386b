package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SwapRequest represents the request to execute a swap
type SwapRequest struct {
	Trader   string `json:"trader"`
	PoolID   string `json:"pool_id"`
	TokenIn  string `json:"token_in"`
	TokenOut string `json:"token_out"`
	AmountIn string `json:"amount_in"`
}

// SwapResponse represents the response
type SwapResponse struct {
	Swap struct {
		AmountOut      string `json:"amount_out"`
		FeeAmount      string `json:"fee_amount"`
		SpotPriceAfter string `json:"spot_price_after"`
	} `json:"swap"`
}

// LatencyRecord records latency for each swap
type LatencyRecord struct {
	Side      string
	Latency   time.Duration
	Timestamp time.Time
}

// BenchmarkResults holds all test results
type BenchmarkResults struct {
	BuySwaps      int64
	SellSwaps     int64
	BuySuccess    int64
	SellSuccess   int64
	BuyFailed     int64
	SellFailed    int64
	BuyLatencies  []time.Duration
	SellLatencies []time.Duration
	SpotStart     string
	SpotEnd       string
	mu            sync.Mutex
}

func (r *BenchmarkResults) AddBuy(latency time.Duration, success bool, spotAfter string) {
	atomic.AddInt64(&r.BuySwaps, 1)
	if success {
		atomic.AddInt64(&r.BuySuccess, 1)
	} else {
		atomic.AddInt64(&r.BuyFailed, 1)
	}
	r.mu.Lock()
	r.BuyLatencies = append(r.BuyLatencies, latency)
	r.recordSpot(success, spotAfter)
	r.mu.Unlock()
}

func (r *BenchmarkResults) AddSell(latency time.Duration, success bool, spotAfter string) {
	atomic.AddInt64(&r.SellSwaps, 1)
	if success {
		atomic.AddInt64(&r.SellSuccess, 1)
	} else {
		atomic.AddInt64(&r.SellFailed, 1)
	}
	r.mu.Lock()
	r.SellLatencies = append(r.SellLatencies, latency)
	r.recordSpot(success, spotAfter)
	r.mu.Unlock()
}

// recordSpot is called with r.mu held
func (r *BenchmarkResults) recordSpot(success bool, spotAfter string) {
	if !success || spotAfter == "" {
		return
	}
	if r.SpotStart == "" {
		r.SpotStart = spotAfter
	}
	r.SpotEnd = spotAfter
}

func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func avg(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	return total / time.Duration(len(latencies))
}

func min(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	m := latencies[0]
	for _, l := range latencies {
		if l < m {
			m = l
		}
	}
	return m
}

func max(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	m := latencies[0]
	for _, l := range latencies {
		if l > m {
			m = l
		}
	}
	return m
}

func executeSwap(client *http.Client, baseURL string, req *SwapRequest) (time.Duration, bool, string) {
	body, _ := json.Marshal(req)
	start := time.Now()

	httpReq, err := http.NewRequest("POST", baseURL+"/v1/swap", bytes.NewReader(body))
	if err != nil {
		return time.Since(start), false, ""
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	latency := time.Since(start)

	if err != nil {
		return latency, false, ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return latency, false, ""
	}

	var swapResp SwapResponse
	if err := json.NewDecoder(resp.Body).Decode(&swapResp); err != nil {
		return latency, true, ""
	}

	return latency, true, swapResp.Swap.SpotPriceAfter
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	swapCount := flag.Int("n", 10000, "Number of swaps per side (buy and sell)")
	concurrency := flag.Int("c", 100, "Concurrency level")
	poolID := flag.String("pool", "demo-launch", "Pool ID")
	launchDenom := flag.String("base", "ualpha", "Launch token denom")
	quoteDenom := flag.String("quote", "uusdc", "Quote token denom")
	amount := flag.String("amount", "1000000", "Amount in per swap")
	outputFile := flag.String("o", "", "Output JSON report file")
	flag.Parse()

	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║        LBP Swap Engine Benchmark - Buy/Sell Stress Test          ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Configuration:\n")
	fmt.Printf("  API URL:      %s\n", *baseURL)
	fmt.Printf("  Pool:         %s\n", *poolID)
	fmt.Printf("  Pair:         %s / %s\n", *launchDenom, *quoteDenom)
	fmt.Printf("  Swaps/Side:   %d (total: %d)\n", *swapCount, *swapCount*2)
	fmt.Printf("  Concurrency:  %d\n", *concurrency)
	fmt.Printf("  Amount In:    %s\n", *amount)
	fmt.Println()

	// Check health
	fmt.Print("Checking API health... ")
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        1000,
			MaxIdleConnsPerHost: 200,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("FAILED: status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("OK")
	fmt.Println()

	results := &BenchmarkResults{
		BuyLatencies:  make([]time.Duration, 0, *swapCount),
		SellLatencies: make([]time.Duration, 0, *swapCount),
	}

	// Semaphore for concurrency control
	sem := make(chan struct{}, *concurrency)
	var wg sync.WaitGroup

	// Progress tracking
	var processed int64
	total := int64(*swapCount * 2)
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := atomic.LoadInt64(&processed)
				pct := float64(p) / float64(total) * 100
				fmt.Printf("\r  Progress: %d/%d (%.1f%%) | Buys OK: %d | Sells OK: %d    ",
					p, total, pct,
					atomic.LoadInt64(&results.BuySuccess),
					atomic.LoadInt64(&results.SellSuccess))
			}
		}
	}()

	fmt.Println("Starting benchmark...")
	startTime := time.Now()

	// Launch buys and sells concurrently so the pool price holds steady
	for i := 0; i < *swapCount; i++ {
		// Buy the launch token with quote
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			req := &SwapRequest{
				Trader:   fmt.Sprintf("buyer_%d", idx),
				PoolID:   *poolID,
				TokenIn:  *quoteDenom,
				TokenOut: *launchDenom,
				AmountIn: *amount,
			}

			latency, success, spotAfter := executeSwap(client, *baseURL, req)
			results.AddBuy(latency, success, spotAfter)
			atomic.AddInt64(&processed, 1)
		}(i)

		// Sell the launch token back into quote
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			req := &SwapRequest{
				Trader:   fmt.Sprintf("seller_%d", idx),
				PoolID:   *poolID,
				TokenIn:  *launchDenom,
				TokenOut: *quoteDenom,
				AmountIn: *amount,
			}

			latency, success, spotAfter := executeSwap(client, *baseURL, req)
			results.AddSell(latency, success, spotAfter)
			atomic.AddInt64(&processed, 1)
		}(i)
	}

	wg.Wait()
	close(done)
	elapsed := time.Since(startTime)

	fmt.Printf("\r                                                                              \r")
	fmt.Println()
	fmt.Println()

	// Calculate statistics
	allLatencies := append(results.BuyLatencies, results.SellLatencies...)
	totalSwaps := results.BuySwaps + results.SellSwaps
	totalSuccess := results.BuySuccess + results.SellSuccess
	totalFailed := results.BuyFailed + results.SellFailed
	successRate := float64(totalSuccess) / float64(totalSwaps) * 100
	throughput := float64(totalSwaps) / elapsed.Seconds()

	// Print results
	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                       BENCHMARK RESULTS                          ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	fmt.Printf("Test Duration:        %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Throughput:           %.2f swaps/sec\n", throughput)
	fmt.Println()

	fmt.Println("── Swap Statistics ────────────────────────────────────────────────")
	fmt.Printf("  Total Swaps:        %d\n", totalSwaps)
	fmt.Printf("  Buys:               %d (success: %d, failed: %d)\n", results.BuySwaps, results.BuySuccess, results.BuyFailed)
	fmt.Printf("  Sells:              %d (success: %d, failed: %d)\n", results.SellSwaps, results.SellSuccess, results.SellFailed)
	fmt.Printf("  Success Rate:       %.2f%%\n", successRate)
	fmt.Println()

	if results.SpotStart != "" {
		fmt.Println("── Price Impact ───────────────────────────────────────────────────")
		fmt.Printf("  Spot at Start:      %s\n", results.SpotStart)
		fmt.Printf("  Spot at End:        %s\n", results.SpotEnd)
		fmt.Println()
	}

	fmt.Println("── Overall Latency (all swaps) ────────────────────────────────────")
	fmt.Printf("  Min:                %v\n", min(allLatencies))
	fmt.Printf("  Max:                %v\n", max(allLatencies))
	fmt.Printf("  Average:            %v\n", avg(allLatencies))
	fmt.Printf("  P50 (Median):       %v\n", percentile(allLatencies, 0.50))
	fmt.Printf("  P90:                %v\n", percentile(allLatencies, 0.90))
	fmt.Printf("  P95:                %v\n", percentile(allLatencies, 0.95))
	fmt.Printf("  P99:                %v\n", percentile(allLatencies, 0.99))
	fmt.Println()

	fmt.Println("── Buy Latency ────────────────────────────────────────────────────")
	fmt.Printf("  Min:                %v\n", min(results.BuyLatencies))
	fmt.Printf("  Max:                %v\n", max(results.BuyLatencies))
	fmt.Printf("  Average:            %v\n", avg(results.BuyLatencies))
	fmt.Printf("  P99:                %v\n", percentile(results.BuyLatencies, 0.99))
	fmt.Println()

	fmt.Println("── Sell Latency ───────────────────────────────────────────────────")
	fmt.Printf("  Min:                %v\n", min(results.SellLatencies))
	fmt.Printf("  Max:                %v\n", max(results.SellLatencies))
	fmt.Printf("  Average:            %v\n", avg(results.SellLatencies))
	fmt.Printf("  P99:                %v\n", percentile(results.SellLatencies, 0.99))
	fmt.Println()

	fmt.Println("── Assessment ─────────────────────────────────────────────────────")
	if successRate >= 99.9 {
		fmt.Println("  ✅ Success Rate:    Excellent (>99.9%)")
	} else if successRate >= 99 {
		fmt.Println("  ✅ Success Rate:    Good (>99%)")
	} else if successRate >= 95 {
		fmt.Println("  ⚠️  Success Rate:    Acceptable (>95%)")
	} else {
		fmt.Println("  ❌ Success Rate:    Poor (<95%)")
	}

	avgLat := avg(allLatencies)
	if avgLat < 1*time.Millisecond {
		fmt.Println("  ✅ Latency:         Excellent (<1ms avg)")
	} else if avgLat < 10*time.Millisecond {
		fmt.Println("  ✅ Latency:         Good (<10ms avg)")
	} else if avgLat < 100*time.Millisecond {
		fmt.Println("  ⚠️  Latency:         Acceptable (<100ms avg)")
	} else {
		fmt.Println("  ❌ Latency:         High (>100ms avg)")
	}

	if throughput > 10000 {
		fmt.Println("  ✅ Throughput:      Excellent (>10K/s)")
	} else if throughput > 1000 {
		fmt.Println("  ✅ Throughput:      Good (>1K/s)")
	} else if throughput > 100 {
		fmt.Println("  ⚠️  Throughput:      Acceptable (>100/s)")
	} else {
		fmt.Println("  ❌ Throughput:      Low (<100/s)")
	}

	fmt.Println()
	fmt.Println("══════════════════════════════════════════════════════════════════")

	// Save report if requested
	if *outputFile != "" {
		report := map[string]interface{}{
			"config": map[string]interface{}{
				"api_url":        *baseURL,
				"pool":           *poolID,
				"base_denom":     *launchDenom,
				"quote_denom":    *quoteDenom,
				"swaps_per_side": *swapCount,
				"concurrency":    *concurrency,
				"amount_in":      *amount,
			},
			"summary": map[string]interface{}{
				"duration_ms":        elapsed.Milliseconds(),
				"throughput_per_sec": throughput,
				"total_swaps":        totalSwaps,
				"success_swaps":      totalSuccess,
				"failed_swaps":       totalFailed,
				"success_rate":       successRate,
				"spot_at_start":      results.SpotStart,
				"spot_at_end":        results.SpotEnd,
			},
			"latency_all": map[string]interface{}{
				"min_us": min(allLatencies).Microseconds(),
				"max_us": max(allLatencies).Microseconds(),
				"avg_us": avg(allLatencies).Microseconds(),
				"p50_us": percentile(allLatencies, 0.50).Microseconds(),
				"p90_us": percentile(allLatencies, 0.90).Microseconds(),
				"p95_us": percentile(allLatencies, 0.95).Microseconds(),
				"p99_us": percentile(allLatencies, 0.99).Microseconds(),
			},
			"latency_buy": map[string]interface{}{
				"min_us": min(results.BuyLatencies).Microseconds(),
				"max_us": max(results.BuyLatencies).Microseconds(),
				"avg_us": avg(results.BuyLatencies).Microseconds(),
				"p99_us": percentile(results.BuyLatencies, 0.99).Microseconds(),
			},
			"latency_sell": map[string]interface{}{
				"min_us": min(results.SellLatencies).Microseconds(),
				"max_us": max(results.SellLatencies).Microseconds(),
				"avg_us": avg(results.SellLatencies).Microseconds(),
				"p99_us": percentile(results.SellLatencies, 0.99).Microseconds(),
			},
			"timestamp": time.Now().Format(time.RFC3339),
		}

		file, err := os.Create(*outputFile)
		if err != nil {
			fmt.Printf("Failed to create report file: %v\n", err)
		} else {
			defer file.Close()
			encoder := json.NewEncoder(file)
			encoder.SetIndent("", "  ")
			encoder.Encode(report)
			fmt.Printf("\nReport saved to: %s\n", *outputFile)
		}
	}
}
