package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gadconnect/gadconnect-api/pkg/apiclient"
)

type probe struct {
	Name string
	Path string
}

// defaultProbes covers the surfaces a migration depends on.
var defaultProbes = []probe{
	{Name: "active period", Path: "/academic-periods/active"},
	{Name: "students", Path: "/students?limit=1"},
	{Name: "staff-faculty", Path: "/staff-faculty?limit=1"},
	{Name: "community-members", Path: "/community-members?limit=1"},
	{Name: "events", Path: "/events?limit=1"},
}

func main() {
	var (
		baseURL string
		token   string
		rps     float64
		timeout time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api", "API base URL")
	flag.StringVar(&token, "token", os.Getenv("GADCONNECT_TOKEN"), "Bearer token (defaults to GADCONNECT_TOKEN)")
	flag.Float64Var(&rps, "rps", 2, "Sustained requests per second")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if token == "" {
		log.Fatal("missing -token: set GADCONNECT_TOKEN or pass -token")
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:           baseURL,
		Token:             token,
		RequestsPerSecond: rps,
		Timeout:           timeout,
	})

	ctx := context.Background()
	failures := 0

	for _, p := range defaultProbes {
		res, err := client.Get(ctx, p.Path, nil)
		if err != nil {
			failures++
			fmt.Printf("FAIL  %-20s %v\n", p.Name, err)
			continue
		}

		switch res.Status {
		case http.StatusOK:
			fmt.Printf("OK    %-20s\n", p.Name)
		case http.StatusUnauthorized:
			failures++
			fmt.Printf("FAIL  %-20s 401: token rejected, refresh it via POST /auth/login\n", p.Name)
		case http.StatusNotFound:
			failures++
			fmt.Printf("FAIL  %-20s 404: resource missing, run the period transition or seed data first\n", p.Name)
		case http.StatusTooManyRequests:
			failures++
			fmt.Printf("FAIL  %-20s 429: still rate limited after retries, lower -rps\n", p.Name)
		default:
			failures++
			fmt.Printf("FAIL  %-20s unexpected status %d\n", p.Name, res.Status)
		}
	}

	if failures > 0 {
		fmt.Printf("\n%d of %d probes failed\n", failures, len(defaultProbes))
		os.Exit(1)
	}
	fmt.Printf("\nall %d probes passed\n", len(defaultProbes))
}
