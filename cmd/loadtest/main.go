// Command loadtest drives a running searcher with concurrent queries,
// rotating through the three ranking modes, and reports latency per mode.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
	Modes       []string
}

type modeStats struct {
	mu        sync.Mutex
	latencies []time.Duration
	errors    int64
}

type Stats struct {
	totalRequests atomic.Int64
	errorCount    atomic.Int64
	modes         map[string]*modeStats
	statusCodes   sync.Map
}

func NewStats(modes []string) *Stats {
	s := &Stats{modes: make(map[string]*modeStats, len(modes))}
	for _, m := range modes {
		s.modes[m] = &modeStats{latencies: make([]time.Duration, 0, 10000)}
	}
	return s
}

func (s *Stats) RecordRequest(mode string, duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)
	ms := s.modes[mode]
	if err != nil || statusCode < 200 || statusCode >= 300 {
		s.errorCount.Add(1)
		ms.mu.Lock()
		ms.errors++
		ms.mu.Unlock()
		if err != nil {
			return
		}
	} else {
		ms.mu.Lock()
		ms.latencies = append(ms.latencies, duration)
		ms.mu.Unlock()
	}
	counter, _ := s.statusCodes.LoadOrStore(statusCode, &atomic.Int64{})
	counter.(*atomic.Int64).Add(1)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	modes := flag.String("modes", "tfidf,pagerank,hits", "comma-separated ranking modes to rotate through")
	flag.Parse()

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Queries: []string{
			"deep learning",
			"natural language processing",
			"computer vision",
			"reinforcement learning",
			"neural networks",
			"machine learning algorithms",
			"artificial intelligence",
			"data science",
			"graph theory",
			"search engine ranking",
		},
		Modes: strings.Split(*modes, ","),
	}

	fmt.Println("=== Search Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique x %d modes\n", len(cfg.Queries), len(cfg.Modes))
	fmt.Println()

	stats := runLoadTest(cfg)
	printReport(stats, cfg)
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats(cfg.Modes)
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := workerID; ctx.Err() == nil; i++ {
				query := cfg.Queries[i%len(cfg.Queries)]
				mode := cfg.Modes[(i/len(cfg.Queries))%len(cfg.Modes)]
				target := fmt.Sprintf("%s/api/v1/search?q=%s&mode=%s&limit=10",
					cfg.BaseURL, url.QueryEscape(query), url.QueryEscape(mode))

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					stats.RecordRequest(mode, 0, 0, err)
					continue
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.RecordRequest(mode, elapsed, 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.RecordRequest(mode, elapsed, resp.StatusCode, nil)
			}
		}(w)
	}
	wg.Wait()
	return stats
}

func printReport(stats *Stats, cfg Config) {
	total := stats.totalRequests.Load()
	errs := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Errors:          %d\n", errs)
	if total > 0 {
		fmt.Printf("Error Rate:      %.2f%%\n", float64(errs)/float64(total)*100)
		fmt.Printf("Requests/sec:    %.2f\n", float64(total)/cfg.Duration.Seconds())
	}

	for _, mode := range cfg.Modes {
		ms := stats.modes[mode]
		ms.mu.Lock()
		latencies := append([]time.Duration(nil), ms.latencies...)
		modeErrs := ms.errors
		ms.mu.Unlock()

		fmt.Println()
		fmt.Printf("=== Latency: %s (%d ok, %d errors) ===\n", mode, len(latencies), modeErrs)
		if len(latencies) == 0 {
			continue
		}
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		var sumSquared float64
		for _, l := range latencies {
			diff := float64(l - avg)
			sumSquared += diff * diff
		}
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
		fmt.Printf("StdDev: %s\n", time.Duration(math.Sqrt(sumSquared/float64(len(latencies)))))
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	var codes []int
	stats.statusCodes.Range(func(k, _ any) bool {
		codes = append(codes, k.(int))
		return true
	})
	sort.Ints(codes)
	for _, code := range codes {
		v, _ := stats.statusCodes.Load(code)
		fmt.Printf("  %d: %d\n", code, v.(*atomic.Int64).Load())
	}

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
