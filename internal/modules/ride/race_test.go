// README: Concurrency tests for ride state transitions (run with -race).
package ride

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"zonetaxi/internal/types"
)

func TestConcurrentAcceptSameRequest(t *testing.T) {
	for name, repo := range testRepos(t) {
		t.Run(name, func(t *testing.T) {
			runConcurrentAccept(t, newFixtureWithRepo(t, repo))
		})
	}
}

func TestConcurrentAcceptVsCancel(t *testing.T) {
	for name, repo := range testRepos(t) {
		t.Run(name, func(t *testing.T) {
			runAcceptVsCancel(t, newFixtureWithRepo(t, repo))
		})
	}
}

func TestConcurrentCreateSamePassenger(t *testing.T) {
	for name, repo := range testRepos(t) {
		t.Run(name, func(t *testing.T) {
			runConcurrentCreate(t, newFixtureWithRepo(t, repo))
		})
	}
}

func runConcurrentAccept(t *testing.T, f *fixture) {
	ctx := context.Background()
	const attempts = 8
	for i := 0; i < attempts; i++ {
		f.addDriver(t, types.ID(fmt.Sprintf("d%d", i)), "auto")
	}
	r := f.create(t, "p_multi_accept", "central_city", "east_town", "auto")

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(did types.ID) {
			defer wg.Done()
			_, err := f.svc.Accept(ctx, AcceptCommand{RequestID: r.ID, DriverID: did})
			errs <- err
		}(types.ID(fmt.Sprintf("d%d", i)))
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrNotPending) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	got, err := f.svc.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Fatalf("unexpected final status: %s", got.Status)
	}
	if got.DriverID == nil || *got.DriverID == "" {
		t.Fatalf("expected driver_id to be set")
	}
}

func runAcceptVsCancel(t *testing.T, f *fixture) {
	ctx := context.Background()
	f.addDriver(t, "d1", "auto")
	r := f.create(t, "p_accept_cancel", "central_city", "east_town", "auto")

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.svc.Accept(ctx, AcceptCommand{RequestID: r.ID, DriverID: "d1"})
		errs <- err
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.svc.Cancel(ctx, CancelCommand{RequestID: r.ID, ActorType: ActorPassenger, ActorID: "p_accept_cancel"})
		errs <- err
	}()

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrNotPending) && !errors.Is(err, ErrNotActive) && !errors.Is(err, ErrConflictingState) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success < 1 || success > 2 {
		t.Fatalf("expected 1 or 2 successes, got %d", success)
	}

	got, err := f.svc.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if success == 2 && got.Status != StatusCancelled {
		t.Fatalf("expected cancelled after accept+cancel, got %s", got.Status)
	}
	if success == 1 && got.Status != StatusAccepted && got.Status != StatusCancelled {
		t.Fatalf("unexpected final status: %s", got.Status)
	}
}

func runConcurrentCreate(t *testing.T, f *fixture) {
	ctx := context.Background()
	const attempts = 6

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, CreateCommand{
				CommunityID:       community,
				PassengerID:       "p_double",
				PickupZoneID:      "central_city",
				DestinationZoneID: "east_town",
				VehicleType:       "auto",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrActiveRequestExists) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}
}

// testRepos always includes the in-memory store and adds Postgres when
// ZT_TEST_DSN is set.
func testRepos(t *testing.T) map[string]Repository {
	t.Helper()
	repos := map[string]Repository{"memory": NewMemoryStore()}
	if os.Getenv("ZT_TEST_DSN") != "" {
		repos["postgres"] = setupTestStore(t)
	}
	return repos
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("ZT_TEST_DSN")
	if dsn == "" {
		t.Skip("ZT_TEST_DSN not set; skipping DB-backed race tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE ratings, ride_request_events, ride_requests"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
