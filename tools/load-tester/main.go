package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type pageResponse struct {
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

func signIn(ctx context.Context, base, email, password string) (string, error) {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/auth/signin", strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign-in returned %s", resp.Status)
	}
	var s struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return "", err
	}
	return s.Token, nil
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the dashboard API")
	email := flag.String("email", "admin@example.com", "Admin email to sign in with")
	password := flag.String("password", "", "Admin password")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 100, "Requests per second limit")
	depth := flag.Int("pages", 5, "Pages each worker walks before starting over")
	flag.Parse()

	token, err := signIn(context.Background(), *baseURL, *email, *password)
	if err != nil {
		log.Fatalf("Sign-in failed: %v", err)
	}

	log.Printf("Starting load test on %s/api/logs", *baseURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d, Pages: %d", *concurrency, *duration, *rps, *depth)

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 10)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			cursor, page := "", 0
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				target := *baseURL + "/api/logs"
				if cursor != "" {
					target += "?cursor=" + url.QueryEscape(cursor)
				}
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					continue // Should not happen
				}
				req.Header.Set("Authorization", "Bearer "+token)

				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					errorCount.Add(1)
					continue
				}

				var body pageResponse
				if resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&body) == nil {
					successCount.Add(1)
				} else {
					errorCount.Add(1)
				}
				resp.Body.Close()

				page++
				cursor = body.NextCursor
				if !body.HasMore || page >= *depth {
					cursor, page = "", 0
				}
			}
		}()
	}

	wg.Wait()

	totalRequests := successCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Successful (200 OK): %d", successCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}
