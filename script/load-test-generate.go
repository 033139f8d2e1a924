package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

// GenerateRequest is the body of POST /api/videos/generate
type GenerateRequest struct {
	Prompt    string `json:"prompt"`
	Service   string `json:"service"`
	Model     string `json:"model"`
	VideoType string `json:"videoType"`
}

// GenerateResponse is the part of the generate reply the test reads
type GenerateResponse struct {
	Video struct {
		ID      string `json:"id"`
		Credits int64  `json:"creditsCharged"`
	} `json:"video"`
}

// CallbackRequest is the body of POST /api/videos/callback
type CallbackRequest struct {
	VideoID      string `json:"video_id"`
	Status       string `json:"status"`
	VideoURL     string `json:"video_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// TestResult contains metrics for a single generate request
type TestResult struct {
	Accepted     bool
	Rejected     bool // 400 insufficient credits
	Charged      int64
	Refunded     int64
	ResponseTime time.Duration
	Err          error
}

// TestStats aggregates results
type TestStats struct {
	mu            sync.Mutex
	Total         int
	Accepted      int
	Rejected      int
	Failed        int
	Charged       int64
	Refunded      int64
	ResponseTimes []time.Duration
	ErrorCounts   map[string]int
}

type config struct {
	baseURL        string
	token          string
	callbackSecret string
	service        string
	model          string
	delay          time.Duration
	failRatio      float64
}

func main() {
	concurrency := flag.Int("c", 5, "Number of concurrent goroutines")
	totalRequests := flag.Int("n", 100, "Total number of generate requests")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	token := flag.String("token", "", "Bearer token of the user to charge")
	callbackSecret := flag.String("callback-secret", "", "X-Callback-Secret value, if the server requires one")
	service := flag.String("service", "sora", "sora or veo3")
	model := flag.String("model", "standard", "standard or pro")
	failRatio := flag.Float64("fail", 0.5, "Share of accepted jobs reported back as failed, which refunds them")
	delayMs := flag.Int("delay", 50, "Delay between requests in milliseconds")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "-token is required")
		os.Exit(2)
	}

	cfg := config{
		baseURL:        *baseURL,
		token:          *token,
		callbackSecret: *callbackSecret,
		service:        *service,
		model:          *model,
		delay:          time.Duration(*delayMs) * time.Millisecond,
		failRatio:      *failRatio,
	}
	client := &http.Client{Timeout: 15 * time.Second}

	before, err := balance(client, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not read starting balance:", err)
		os.Exit(1)
	}

	fmt.Printf("Starting balance:    %d credits\n", before)
	fmt.Printf("Concurrency:         %d goroutines\n", *concurrency)
	fmt.Printf("Total requests:      %d (%s/%s)\n", *totalRequests, cfg.service, cfg.model)
	fmt.Printf("Failed-callback rate: %.0f%%\n", cfg.failRatio*100)

	stats := &TestStats{
		Total:       *totalRequests,
		ErrorCounts: make(map[string]int),
	}
	jobs := make(chan int, *totalRequests)
	for i := 0; i < *totalRequests; i++ {
		jobs <- i
	}
	close(jobs)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				if cfg.delay > 0 {
					time.Sleep(cfg.delay)
				}
				stats.add(generate(client, cfg))
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	after, err := balance(client, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not read final balance:", err)
		os.Exit(1)
	}

	if !printResults(stats, elapsed, before, after) {
		os.Exit(1)
	}
}

func (s *TestStats) add(r TestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResponseTimes = append(s.ResponseTimes, r.ResponseTime)
	switch {
	case r.Accepted:
		s.Accepted++
		s.Charged += r.Charged
		s.Refunded += r.Refunded
	case r.Rejected:
		s.Rejected++
	default:
		s.Failed++
	}
	if r.Err != nil {
		s.ErrorCounts[r.Err.Error()]++
	}
}

func generate(client *http.Client, cfg config) TestResult {
	body, _ := json.Marshal(GenerateRequest{
		Prompt:    fmt.Sprintf("load test clip %d", rand.Intn(1_000_000)),
		Service:   cfg.service,
		Model:     cfg.model,
		VideoType: "text-to-video",
	})
	req, err := http.NewRequest(http.MethodPost, cfg.baseURL+"/api/videos/generate", bytes.NewReader(body))
	if err != nil {
		return TestResult{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.token)

	started := time.Now()
	resp, err := client.Do(req)
	result := TestResult{ResponseTime: time.Since(started)}
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusBadRequest:
		result.Rejected = true
		return result
	default:
		result.Err = fmt.Errorf("HTTP status code %d", resp.StatusCode)
		return result
	}

	var created GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		result.Err = err
		return result
	}
	result.Accepted = true
	result.Charged = created.Video.Credits

	if rand.Float64() < cfg.failRatio {
		if err := callback(client, cfg, CallbackRequest{VideoID: created.Video.ID, Status: "failed", ErrorMessage: "load test"}); err != nil {
			result.Err = err
			return result
		}
		result.Refunded = created.Video.Credits
		return result
	}
	if err := callback(client, cfg, CallbackRequest{VideoID: created.Video.ID, Status: "completed", VideoURL: "https://cdn.example.com/load-test.mp4"}); err != nil {
		result.Err = err
	}
	return result
}

func callback(client *http.Client, cfg config, cb CallbackRequest) error {
	body, _ := json.Marshal(cb)
	req, err := http.NewRequest(http.MethodPost, cfg.baseURL+"/api/videos/callback", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.callbackSecret != "" {
		req.Header.Set("X-Callback-Secret", cfg.callbackSecret)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("callback status code %d", resp.StatusCode)
	}
	return nil
}

func balance(client *http.Client, cfg config) (int64, error) {
	req, err := http.NewRequest(http.MethodGet, cfg.baseURL+"/api/auth/profile", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.token)
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("profile status code %d", resp.StatusCode)
	}
	var profile struct {
		User struct {
			Credits int64 `json:"creditsBalance"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return 0, err
	}
	return profile.User.Credits, nil
}

// printResults reports latency and checks that the balance moved by exactly
// the charges minus the refunds
func printResults(stats *TestStats, elapsed time.Duration, before, after int64) bool {
	times := append([]time.Duration(nil), stats.ResponseTimes...)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	pct := func(p int) time.Duration {
		if len(times) == 0 {
			return 0
		}
		return times[len(times)*p/100]
	}

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Accepted:            %d\n", stats.Accepted)
	fmt.Printf("Rejected (credits):  %d\n", stats.Rejected)
	fmt.Printf("Errors:              %d\n", stats.Failed)
	fmt.Printf("Total Test Time:     %.2f seconds\n", elapsed.Seconds())
	fmt.Printf("Throughput:          %.2f req/s\n", float64(stats.Total)/elapsed.Seconds())

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	if len(times) > 0 {
		fmt.Printf("Minimum Response:    %v\n", times[0])
		fmt.Printf("Maximum Response:    %v\n", times[len(times)-1])
	}
	fmt.Printf("P50 Response:        %v\n", pct(50))
	fmt.Printf("P90 Response:        %v\n", pct(90))
	fmt.Printf("P99 Response:        %v\n", pct(99))

	if len(stats.ErrorCounts) > 0 {
		fmt.Println("\n----------------- ERROR DISTRIBUTION -----------------")
		for msg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d\n", msg, count)
		}
	}

	expected := before - stats.Charged + stats.Refunded
	fmt.Println("\n================= LEDGER CHECK =================")
	fmt.Printf("Charged:  %d   Refunded: %d\n", stats.Charged, stats.Refunded)
	fmt.Printf("Balance:  %d -> %d (expected %d)\n", before, after, expected)
	if after < 0 || after != expected {
		fmt.Println("FAIL: balance does not match charges and refunds")
		return false
	}
	fmt.Println("OK: every charge and refund is accounted for")
	return true
}
