// README: Bench cases: environment checks, the request lifecycle, concurrent accepts and load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"zonetaxi/internal/infra"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
	run   string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
		run:   fmt.Sprintf("%d", time.Now().UnixNano()),
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := infra.NewDB(ctx, r.cfg.DSN); err == nil {
			r.db = db
		} else {
			fmt.Printf("db: %v\n", err)
		}
	}
	if r.cfg.RedisAddr != "" {
		if rc, err := infra.NewRedis(ctx, r.cfg.RedisAddr, "", 0); err == nil {
			r.redis = rc
		} else {
			fmt.Printf("redis: %v\n", err)
		}
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

// Tokens follow the dev verifier format; the target must run with auth.mode dev.
func (r *Runner) passenger(n int) string { return fmt.Sprintf("bench-%s-p%d", r.run, n) }
func (r *Runner) driver(n int) string    { return fmt.Sprintf("bench-%s-d%d:driver", r.run, n) }

func (r *Runner) cases() []TestCase {
	var rideID string
	return []TestCase{
		{Name: "Env: Postgres ping", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: "SKIP", Note: "db not configured"}
			}
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Env: Redis ping", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: "SKIP", Note: "redis not configured"}
			}
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Migration: apply", Run: func(ctx context.Context, r *Runner) Result {
			if !r.cfg.ApplyMigration || r.db == nil {
				return Result{Status: "SKIP", Note: "apply-migration=false or no db"}
			}
			applied, err := infra.Migrate(ctx, r.db, r.cfg.MigrationDir)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS", Note: fmt.Sprintf("%d files", len(applied))}
		}},
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/health", "", nil, http.StatusOK, nil)
		}},
		{Name: "API: unauthenticated -> 401", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/zones", "", nil, http.StatusUnauthorized, nil)
		}},
		{Name: "Zones: list", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/zones", r.passenger(0), nil, http.StatusOK, nil)
		}},
		{Name: "Fare: estimate", Run: func(ctx context.Context, r *Runner) Result {
			path := fmt.Sprintf("/api/fares/estimate?vehicle_type=%s&from=%s&to=%s", r.cfg.Vehicle, r.cfg.Pickup, r.cfg.Destination)
			return r.expect(ctx, http.MethodGet, path, r.passenger(0), nil, http.StatusOK, nil)
		}},
		{Name: "Ride: restricted pickup -> 422", Run: func(ctx context.Context, r *Runner) Result {
			body := r.rideBody()
			body["pickup_zone_id"] = "military_base"
			return r.expect(ctx, http.MethodPost, "/api/rides", r.passenger(0), body, http.StatusUnprocessableEntity, nil)
		}},
		{Name: "Ride: driver setup", Run: func(ctx context.Context, r *Runner) Result {
			return r.setupDrivers(ctx, 1)
		}},
		{Name: "Ride: request", Run: func(ctx context.Context, r *Runner) Result {
			var out struct {
				ID string `json:"id"`
			}
			res := r.expect(ctx, http.MethodPost, "/api/rides", r.passenger(0), r.rideBody(), http.StatusCreated, &out)
			rideID = out.ID
			return res
		}},
		{Name: "Ride: duplicate active -> 409", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/rides", r.passenger(0), r.rideBody(), http.StatusConflict, nil)
		}},
		{Name: "Ride: accept", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/rides/"+rideID+"/accept", r.driver(0), nil, http.StatusOK, nil)
		}},
		{Name: "Ride: start", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/rides/"+rideID+"/start", r.driver(0), nil, http.StatusOK, nil)
		}},
		{Name: "Ride: complete", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/rides/"+rideID+"/complete", r.driver(0), nil, http.StatusOK, nil)
		}},
		{Name: "Ride: completed cannot cancel", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/rides/"+rideID+"/cancel", r.passenger(0), nil, http.StatusConflict, nil)
		}},
		{Name: "Consistency: events match the lifecycle", Run: func(ctx context.Context, r *Runner) Result {
			var out struct {
				Events []struct {
					ToStatus string `json:"to_status"`
				} `json:"events"`
			}
			res := r.expect(ctx, http.MethodGet, "/api/rides/"+rideID+"/events", r.passenger(0), nil, http.StatusOK, &out)
			if res.Status != "PASS" {
				return res
			}
			want := []string{"pending", "accepted", "in_progress", "completed"}
			if len(out.Events) != len(want) {
				return Result{Status: "FAIL", Note: fmt.Sprintf("events=%d", len(out.Events))}
			}
			for i, e := range out.Events {
				if e.ToStatus != want[i] {
					return Result{Status: "FAIL", Note: fmt.Sprintf("event %d is %s", i, e.ToStatus)}
				}
			}
			return res
		}},
		{Name: "Concurrency: N drivers accept one request", Run: concurrentAccept},
		{Name: "Perf: position update throughput", Run: func(ctx context.Context, r *Runner) Result {
			return r.load(ctx, http.MethodPut, "/api/positions", map[string]any{"x": 5000, "y": 5000})
		}},
		{Name: "Perf: fare estimate throughput", Run: func(ctx context.Context, r *Runner) Result {
			path := fmt.Sprintf("/api/fares/estimate?vehicle_type=%s&from=%s&to=%s", r.cfg.Vehicle, r.cfg.Pickup, r.cfg.Destination)
			return r.load(ctx, http.MethodGet, path, nil)
		}},
	}
}

func (r *Runner) rideBody() map[string]any {
	return map[string]any{
		"community_id":        r.cfg.Community,
		"pickup_zone_id":      r.cfg.Pickup,
		"destination_zone_id": r.cfg.Destination,
		"vehicle_type":        r.cfg.Vehicle,
	}
}

func (r *Runner) setupDrivers(ctx context.Context, n int) Result {
	for i := 0; i < n; i++ {
		tok := r.driver(i)
		body := map[string]any{"community_id": r.cfg.Community, "vehicles": []string{r.cfg.Vehicle}}
		code, err := r.do(ctx, http.MethodPost, "/api/drivers", tok, body, nil)
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if code != http.StatusCreated && code != http.StatusConflict {
			return Result{Status: "FAIL", Note: fmt.Sprintf("register status=%d", code)}
		}
		code, err = r.do(ctx, http.MethodPut, "/api/drivers/me/status", tok, map[string]any{"status": "available"}, nil)
		if err != nil || code != http.StatusOK {
			return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d err=%v", code, err)}
		}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("drivers=%d", n)}
}

// concurrentAccept races every driver on one fresh request; exactly one may win.
func concurrentAccept(ctx context.Context, r *Runner) Result {
	n := r.cfg.Concurrency
	if res := r.setupDrivers(ctx, n); res.Status != "PASS" {
		return res
	}
	var out struct {
		ID string `json:"id"`
	}
	if code, err := r.do(ctx, http.MethodPost, "/api/rides", r.passenger(1), r.rideBody(), &out); err != nil || code != http.StatusCreated {
		return Result{Status: "FAIL", Note: fmt.Sprintf("create status=%d err=%v", code, err)}
	}

	var succ, conflict atomic.Int32
	var g errgroup.Group
	start := time.Now()
	for i := 0; i < n; i++ {
		g.Go(func() error {
			code, err := r.do(ctx, http.MethodPost, "/api/rides/"+out.ID+"/accept", r.driver(i), nil, nil)
			if err != nil {
				return err
			}
			switch code {
			case http.StatusOK:
				succ.Add(1)
			case http.StatusConflict:
				conflict.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	note := fmt.Sprintf("success=%d conflict=%d of %d", succ.Load(), conflict.Load(), n)
	if succ.Load() != 1 {
		return Result{Status: "FAIL", Latency: time.Since(start), Note: note}
	}
	return Result{Status: "PASS", Latency: time.Since(start), Note: note}
}

func (r *Runner) load(ctx context.Context, method, path string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := fmt.Sprintf("bench-%s-load%d", r.run, i)
			for time.Now().Before(end) && ctx.Err() == nil {
				code, err := r.do(ctx, method, path, tok, payload, nil)
				mu.Lock()
				if err != nil || code >= 400 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("no requests succeeded, errors=%d", errCount)}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func (r *Runner) expect(ctx context.Context, method, path, token string, body any, want int, out any) Result {
	start := time.Now()
	code, err := r.do(ctx, method, path, token, body, out)
	latency := time.Since(start)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if code != want {
		return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d want=%d", code, want)}
	}
	return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", code)}
}

func (r *Runner) do(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
