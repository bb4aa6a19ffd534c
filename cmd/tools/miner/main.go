// cmd/tools/miner/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"demand-radar/internal/common/config"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/miner"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: standard search locations)")
	feedList := flag.String("feeds", "", "Comma-separated feed URLs (default: configured feeds)")
	limit := flag.Int("limit", 0, "Maximum suggested queries (default: configured max)")
	asJSON := flag.Bool("json", false, "Print the full result as JSON")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall run timeout")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	var feeds []string
	for _, f := range strings.Split(*feedList, ",") {
		if f = strings.TrimSpace(f); f != "" {
			feeds = append(feeds, f)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := miner.New(cfg.Miner, log).Run(ctx, feeds, *limit)
	if err != nil {
		fmt.Printf("Mining failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Printf("Error encoding result: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Mined %d feeds, scanned %d entries, matched %d pain points", result.Feeds, result.Scanned, len(result.Posts))
	if result.Mock {
		fmt.Print(" (mock data)")
	}
	fmt.Println(".")

	for _, post := range result.Posts {
		fmt.Printf("  %s\n    %s [%s]\n", post.Title, post.URL, strings.Join(post.Phrases, ", "))
	}

	if len(result.Queries) > 0 {
		fmt.Println("\nSuggested queries:")
		for _, q := range result.Queries {
			fmt.Printf("  %s\n", q)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
