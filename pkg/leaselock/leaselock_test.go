package leaselock

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	key string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.key
	return nil
}

// fakeDB grants the lock when free, reports busy otherwise, and records
// releases.
type fakeDB struct {
	heldBy   string
	releases int
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	key := args[0].(string)
	token := args[1].(string)
	if strings.Contains(sql, "INSERT INTO app_locks") {
		if db.heldBy == "" || db.heldBy == token {
			db.heldBy = token
			return fakeRow{key: key}
		}
		return fakeRow{err: pgx.ErrNoRows}
	}
	// renew
	if db.heldBy == token {
		return fakeRow{key: key}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.Contains(sql, "DELETE FROM app_locks") {
		db.releases++
		db.heldBy = ""
	}
	return pgconn.CommandTag{}, nil
}

func TestCorpusKey(t *testing.T) {
	if got := CorpusKey("lehman-2008"); got != "corpus:lehman-2008" {
		t.Fatalf("CorpusKey = %q", got)
	}
}

func TestRunOptions(t *testing.T) {
	opts := RunOptions("run_abc")
	if opts.TTL != 10*time.Minute {
		t.Fatalf("TTL = %v, want 10m", opts.TTL)
	}
	if opts.TokenPrefix != "run_abc:" {
		t.Fatalf("TokenPrefix = %q", opts.TokenPrefix)
	}
	if opts.Wait {
		t.Fatal("runs must not wait on a busy corpus")
	}
}

func TestMaintenanceOptions(t *testing.T) {
	opts := MaintenanceOptions()
	if !opts.Wait {
		t.Fatal("maintenance must wait out in-flight runs")
	}
	if opts.TTL != 5*time.Minute {
		t.Fatalf("TTL = %v, want 5m", opts.TTL)
	}
}

func TestWithLeaseAcquiresAndReleases(t *testing.T) {
	db := &fakeDB{}
	c := &Client{db: db}
	ctx := context.Background()

	called := false
	err := c.WithLease(ctx, CorpusKey("c1"), RunOptions("run_1"), func(ctx context.Context) error {
		called = true
		if db.heldBy == "" {
			t.Fatal("lock not held inside the lease")
		}
		if !strings.HasPrefix(db.heldBy, "run_1:") {
			t.Fatalf("lease token missing run prefix: %q", db.heldBy)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLease failed: %v", err)
	}
	if !called {
		t.Fatal("lease body never ran")
	}
	if db.releases != 1 {
		t.Fatalf("expected 1 release, got %d", db.releases)
	}
}

func TestAcquireBusy(t *testing.T) {
	db := &fakeDB{heldBy: "other-worker"}
	c := &Client{db: db}

	_, err := c.Acquire(context.Background(), CorpusKey("c1"), RunOptions("run_1"))
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestAcquireEmptyKey(t *testing.T) {
	c := &Client{db: &fakeDB{}}
	if _, err := c.Acquire(context.Background(), "", Options{}); err == nil {
		t.Fatal("expected error for empty key")
	}
}
