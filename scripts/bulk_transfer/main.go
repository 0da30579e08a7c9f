package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gadconnect/gadconnect-api/pkg/apiclient"
)

// record is one row of the input file. Extra fields are forwarded untouched
// so the file can carry any participant shape the endpoint accepts.
type record map[string]interface{}

type summary struct {
	Total     int
	Created   int
	Conflicts int
	Failed    int
}

func main() {
	var (
		baseURL  string
		token    string
		input    string
		endpoint string
		rps      float64
		burst    int
		retries  int
		delay    time.Duration
		dryRun   bool
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api", "API base URL")
	flag.StringVar(&token, "token", os.Getenv("GADCONNECT_TOKEN"), "Bearer token (defaults to GADCONNECT_TOKEN)")
	flag.StringVar(&input, "input", "", "Path to a JSON array of records")
	flag.StringVar(&endpoint, "endpoint", "/students", "Target collection endpoint")
	flag.Float64Var(&rps, "rps", 5, "Sustained requests per second")
	flag.IntVar(&burst, "burst", 1, "Token bucket burst size")
	flag.IntVar(&retries, "retries", 3, "Max retries after a 429 response")
	flag.DurationVar(&delay, "retry-delay", 2*time.Second, "Wait between retry attempts")
	flag.BoolVar(&dryRun, "dry-run", false, "Parse and report without sending requests")
	flag.Parse()

	if input == "" {
		log.Fatal("missing -input: provide a JSON array of records")
	}
	if token == "" && !dryRun {
		log.Fatal("missing -token: set GADCONNECT_TOKEN or pass -token")
	}

	records, err := loadRecords(input)
	if err != nil {
		log.Fatalf("failed to load records: %v", err)
	}
	if dryRun {
		log.Printf("dry run: %d records parsed from %s, nothing sent", len(records), input)
		return
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:           baseURL,
		Token:             token,
		RequestsPerSecond: rps,
		Burst:             burst,
		MaxRetries:        retries,
		RetryDelay:        delay,
	})

	ctx := context.Background()
	var s summary
	s.Total = len(records)

	start := time.Now()
	for i, rec := range records {
		res, err := client.Post(ctx, endpoint, rec)
		if err != nil {
			s.Failed++
			log.Printf("record %d/%d: %v", i+1, s.Total, err)
			continue
		}
		switch res.Status {
		case http.StatusCreated:
			s.Created++
		case http.StatusConflict:
			s.Conflicts++
			log.Printf("record %d/%d: already exists, skipped", i+1, s.Total)
		default:
			s.Failed++
			log.Printf("record %d/%d: unexpected status %d: %s", i+1, s.Total, res.Status, truncate(res.Body, 200))
		}
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	fmt.Printf("\nBulk transfer to %s finished in %s\n", endpoint, elapsed)
	fmt.Printf("  total:     %d\n", s.Total)
	fmt.Printf("  created:   %d\n", s.Created)
	fmt.Printf("  conflicts: %d\n", s.Conflicts)
	fmt.Printf("  failed:    %d\n", s.Failed)

	if s.Failed > 0 {
		os.Exit(1)
	}
}

func loadRecords(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

func truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
