// Command latency_check measures response times of a running driftwatch server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// endpoints are the read-only routes; reload and the misalignment sweep are
// left out because they hit upstream APIs.
var endpoints = []string{
	"/health",
	"/api/version",
	"/api/stats",
	"/api/fleet",
	"/api/balloons",
	"/api/balloons/0",
	"/api/balloons/0/path",
	"/api/balloons/0/path?view=globe",
	"/api/balloons/0/quality",
	"/api/quality?limit=20",
	"/api/statistics",
}

type sample struct {
	Total      time.Duration
	FirstByte  time.Duration
	StatusCode int
	Err        error
}

type summary struct {
	Requests int
	Errors   int
	Min      time.Duration
	P50      time.Duration
	P95      time.Duration
	Max      time.Duration
	TTFB     time.Duration // median
}

func main() {
	baseURL := flag.String("url", "http://localhost:1930", "Base URL of the API")
	n := flag.Int("n", 20, "Number of requests per endpoint")
	concurrency := flag.Int("c", 1, "Concurrency level (1 = sequential)")
	extra := flag.String("extra", "", "Comma-separated additional paths, e.g. /api/balloons/3/prediction")
	flag.Parse()

	paths := endpoints
	if *extra != "" {
		paths = append(paths, strings.Split(*extra, ",")...)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	fmt.Printf("Benchmarking %s with N=%d, C=%d\n\n", *baseURL, *n, *concurrency)

	for _, p := range paths {
		start := time.Now()
		samples := bench(context.Background(), client, *baseURL+p, *n, *concurrency)
		report(p, summarize(samples), time.Since(start))
	}
}

func bench(ctx context.Context, client *http.Client, url string, n, concurrency int) []sample {
	samples := make([]sample, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i := range n {
		g.Go(func() error {
			samples[i] = measure(ctx, client, url)
			return nil
		})
	}
	_ = g.Wait()
	return samples
}

func measure(ctx context.Context, client *http.Client, url string) sample {
	var s sample
	var wrote time.Time
	trace := &httptrace.ClientTrace{
		WroteRequest:         func(httptrace.WroteRequestInfo) { wrote = time.Now() },
		GotFirstResponseByte: func() { s.FirstByte = time.Since(wrote) },
	}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, url, http.NoBody)
	if err != nil {
		s.Err = err
		return s
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		s.Err = err
		return s
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		s.Err = err
		return s
	}
	s.Total = time.Since(start)
	s.StatusCode = resp.StatusCode
	if resp.StatusCode >= 400 {
		s.Err = fmt.Errorf("status %d", resp.StatusCode)
	}
	return s
}

func summarize(samples []sample) summary {
	sum := summary{Requests: len(samples)}
	var totals, ttfb []float64
	for _, s := range samples {
		if s.Err != nil {
			sum.Errors++
			continue
		}
		totals = append(totals, float64(s.Total))
		ttfb = append(ttfb, float64(s.FirstByte))
	}
	if len(totals) == 0 {
		return sum
	}
	slices.Sort(totals)
	slices.Sort(ttfb)

	sum.Min = time.Duration(totals[0])
	sum.Max = time.Duration(totals[len(totals)-1])
	sum.P50 = time.Duration(stat.Quantile(0.5, stat.Empirical, totals, nil))
	sum.P95 = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	sum.TTFB = time.Duration(stat.Quantile(0.5, stat.Empirical, ttfb, nil))
	return sum
}

func report(path string, s summary, elapsed time.Duration) {
	fmt.Printf("Endpoint: %s\n", path)
	if s.Errors > 0 {
		fmt.Printf("  Errors: %d/%d\n", s.Errors, s.Requests)
	}
	if s.Errors == s.Requests {
		fmt.Println("  No successful requests.")
		fmt.Println()
		return
	}
	fmt.Printf("  Requests: %d | Time: %v | RPS: %.2f\n", s.Requests, elapsed.Round(time.Millisecond), float64(s.Requests)/elapsed.Seconds())
	fmt.Printf("  Latency : Min %v | P50 %v | P95 %v | Max %v\n", s.Min, s.P50, s.P95, s.Max)
	fmt.Printf("  TTFB    : P50 %v\n", s.TTFB)
	fmt.Println()
}
