// main.go - Traffic simulator for pageflow
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goflags "github.com/jessevdk/go-flags"
)

type options struct {
	URL       string        `long:"url" default:"http://localhost:5055" description:"Base URL of the pageflow server"`
	Users     int           `long:"users" short:"u" default:"500" description:"Number of simulated visitors"`
	BatchSize int           `long:"batch" short:"b" default:"20" description:"Visitors simulated concurrently"`
	Delay     time.Duration `long:"delay" default:"30ms" description:"Pause between page views of one visitor"`
	Jitter    time.Duration `long:"jitter" default:"50ms" description:"Random extra pause added to delay"`
	Timeout   time.Duration `long:"timeout" default:"5s" description:"Request timeout"`
	Scenario  string        `long:"scenario" description:"YAML scenario file overriding the built-in site"`
	Seed      uint64        `long:"seed" description:"Random seed (0 picks one)"`
	Verbose   bool          `long:"verbose" short:"v" description:"Log failed requests"`
}

func main() {
	var opts options
	if _, err := goflags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	scenario := DefaultScenario()
	if opts.Scenario != "" {
		var err error
		if scenario, err = LoadScenario(opts.Scenario); err != nil {
			logger.Error("Failed to load scenario", slog.Any("error", err))
			os.Exit(1)
		}
	}

	sim, err := NewSimulator(SimConfig{
		BaseURL:   opts.URL,
		Users:     opts.Users,
		BatchSize: opts.BatchSize,
		Delay:     opts.Delay,
		Jitter:    opts.Jitter,
		Timeout:   opts.Timeout,
		Seed:      opts.Seed,
	}, scenario, logger)
	if err != nil {
		logger.Error("Invalid simulation settings", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("\n=== pageflow Traffic Simulator ===")
	fmt.Printf("  Target:      %s/collect\n", opts.URL)
	fmt.Printf("  Users:       %d (batches of %d)\n", opts.Users, opts.BatchSize)
	for _, ut := range scenario.UserTypes {
		fmt.Printf("  - %-10s %d-%d pages, weight %d\n", ut.Name, ut.MinPages, ut.MaxPages, ut.Weight)
	}
	fmt.Println("==================================")

	start := time.Now()
	results := sim.Run(ctx, func(done, total int) {
		fmt.Printf("\rProgress: %d/%d users (%d%%)", done, total, done*100/total)
	})
	fmt.Println()

	stats := Summarize(results, opts.Users, time.Since(start))
	stats.SentRequests = sim.Sent()
	printReport(os.Stdout, stats, scenario, opts.URL)
}
