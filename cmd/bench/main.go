// README: Smoke and load runner against a live zonetaxi deployment; prints PASS/FAIL/SKIP per case.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case "PASS":
			pass++
		case "FAIL":
			fail++
		case "SKIP":
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL        string
	DSN            string
	RedisAddr      string
	MigrationDir   string
	ApplyMigration bool
	Strict         bool
	Timeout        time.Duration
	Concurrency    int
	Duration       time.Duration
	Community      string
	Pickup         string
	Destination    string
	Vehicle        string
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("ZT_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", envOrDefault("ZT_DB__DSN", ""), "Postgres DSN; empty skips the DB checks")
	flag.StringVar(&cfg.RedisAddr, "redis", envOrDefault("ZT_REDIS__ADDR", ""), "Redis address; empty skips the Redis check")
	flag.StringVar(&cfg.MigrationDir, "migrations", envOrDefault("ZT_BENCH_MIGRATIONS", "migrations"), "Migration directory")
	flag.BoolVar(&cfg.ApplyMigration, "apply-migration", envOrDefaultBool("ZT_BENCH_APPLY_MIGRATION", false), "Apply migrations before the checks")
	flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("ZT_BENCH_STRICT", false), "Fail on skipped cases")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("ZT_BENCH_TIMEOUT", 60*time.Second), "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("ZT_BENCH_CONCURRENCY", 20), "Concurrent drivers and load workers")
	flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("ZT_BENCH_DURATION", 10*time.Second), "Duration of each load case")
	flag.StringVar(&cfg.Community, "community", envOrDefault("ZT_BENCH_COMMUNITY", "bench"), "Community used by the run")
	flag.StringVar(&cfg.Pickup, "pickup", envOrDefault("ZT_BENCH_PICKUP", "central_city"), "Pickup zone id")
	flag.StringVar(&cfg.Destination, "destination", envOrDefault("ZT_BENCH_DESTINATION", "east_port"), "Destination zone id")
	flag.StringVar(&cfg.Vehicle, "vehicle", envOrDefault("ZT_BENCH_VEHICLE", "auto"), "Vehicle type id")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
