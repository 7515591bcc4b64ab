// Command smoke probes a running API instance and reports per-endpoint
// status, for post-deploy checks.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

type target struct {
	method   string
	path     string
	expect   int
	critical bool
}

var targets = []target{
	{http.MethodGet, "/health", http.StatusOK, true},
	{http.MethodGet, "/ready", http.StatusOK, true},
	{http.MethodGet, "/metrics", http.StatusOK, false},
	{http.MethodGet, "/api/v1/campaigns", http.StatusOK, true},
	{http.MethodGet, "/api/v1/campaigns/mine", http.StatusUnauthorized, false},
	{http.MethodGet, "/api/v1/admin/verification-requests", http.StatusUnauthorized, false},
	{http.MethodGet, "/api/v1/notifications", http.StatusUnauthorized, false},
}

func main() {
	var (
		base    string
		timeout time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	criticalFailures := 0

	for _, t := range targets {
		req, err := http.NewRequest(t.method, base+t.path, nil)
		if err != nil {
			log.Fatalf("build request %s %s: %v", t.method, t.path, err)
		}
		start := time.Now()
		resp, err := client.Do(req)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("FAIL %-6s %-45s error=%v\n", t.method, t.path, err)
			if t.critical {
				criticalFailures++
			}
			continue
		}
		resp.Body.Close()

		status := "ok"
		if resp.StatusCode != t.expect {
			status = fmt.Sprintf("want %d got %d", t.expect, resp.StatusCode)
			if t.critical {
				criticalFailures++
			}
		}
		fmt.Printf("%-4s %-6s %-45s %s (%s)\n", verdict(resp.StatusCode == t.expect), t.method, t.path, status, elapsed.Round(time.Millisecond))
	}

	if criticalFailures > 0 {
		fmt.Printf("\n%d critical endpoint(s) failing\n", criticalFailures)
		os.Exit(1)
	}
	fmt.Println("\nall critical endpoints healthy")
}

func verdict(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
