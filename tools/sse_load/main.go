// Command sse_load opens many concurrent connections to the dashboard's value
// stream and reports how many value events arrive.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	var (
		targetURL    string
		connections  int
		testDuration time.Duration
		rampUp       time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8080/values/stream", "value stream URL")
	flag.IntVar(&connections, "conns", 500, "number of concurrent connections to open")
	flag.DurationVar(&testDuration, "dur", time.Minute, "test duration (0 for until interrupted)")
	flag.DurationVar(&rampUp, "ramp", 0, "spread connection starts across this window")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if connections <= 0 {
		logger.Fatal("invalid conns", zap.Int("conns", connections))
	}
	if rampUp == 0 && connections > 100 {
		// 1s per 500 connections, at least 1s
		rampUp = max(time.Duration(connections/500)*time.Second, time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if testDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, testDuration)
		defer cancel()
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     connections + 100,
			MaxIdleConns:        connections + 100,
			MaxIdleConnsPerHost: connections + 100,
			DisableCompression:  true,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	logger.Info("starting value stream load",
		zap.String("url", targetURL),
		zap.Int("conns", connections),
		zap.Duration("duration", testDuration),
		zap.Duration("ramp", rampUp))

	stats := &loadStats{}
	start := time.Now()
	done := make(chan struct{})
	go report(ctx, done, logger, stats, start)

	var wg sync.WaitGroup
	interval := rampUp / time.Duration(connections)
	for i := 0; i < connections && ctx.Err() == nil; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			subscribe(ctx, client, targetURL, stats)
		}()
	}

	wg.Wait()
	close(done)

	elapsed := max(time.Since(start), time.Millisecond)
	fmt.Fprintf(os.Stdout, "done: %s elapsed=%s events/s=%.2f\n",
		stats, elapsed.Truncate(time.Millisecond), float64(stats.events.Load())/elapsed.Seconds())
}

func report(ctx context.Context, done <-chan struct{}, logger *zap.Logger, stats *loadStats, start time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			logger.Info("status",
				zap.Stringer("stats", stats),
				zap.Duration("elapsed", time.Since(start).Truncate(time.Second)))
		}
	}
}

func subscribe(ctx context.Context, client *http.Client, url string, stats *loadStats) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		stats.connectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		stats.connectErrs.Add(1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		stats.connectErrs.Add(1)
		return
	}

	stats.connected.Add(1)
	if err := readStream(resp.Body, stats); err != nil && ctx.Err() == nil {
		stats.streamErrs.Add(1)
	}
}
