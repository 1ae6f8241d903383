// Package limiter throttles repeated failed logins per login id and client.
package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Limiter interface {
	// Allow reports whether a login attempt may proceed and, if not, for how long it stays blocked.
	Allow(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error)
	// Success clears the failure counter.
	Success(ctx context.Context, login string, ipHash []byte) error
	// Failure records a failed attempt and reports whether the pair is now blocked.
	Failure(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps counters in the auth_limiter table.
type PG struct {
	db          querier
	window      time.Duration
	maxFailures int
	blockFor    time.Duration
	now         func() time.Time
}

func NewPG(pool *pgxpool.Pool, window time.Duration, maxFailures int, blockFor time.Duration) *PG {
	return newPG(pool, window, maxFailures, blockFor)
}

func newPG(db querier, window time.Duration, maxFailures int, blockFor time.Duration) *PG {
	return &PG{db: db, window: window, maxFailures: maxFailures, blockFor: blockFor, now: time.Now}
}

// HashIP avoids storing raw client addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

const selectBlocked = `SELECT blocked_until FROM auth_limiter WHERE login = $1 AND ip_hash = $2`

func (l *PG) Allow(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error) {
	var blockedUntil time.Time
	err := l.db.QueryRow(ctx, selectBlocked, login, ipHash).Scan(&blockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}

	if now := l.now(); blockedUntil.After(now) {
		return false, blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

const resetFailures = `
INSERT INTO auth_limiter (login, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 0, 'epoch', now())
ON CONFLICT (login, ip_hash)
DO UPDATE SET fail_count = 0, blocked_until = 'epoch', updated_at = now()`

func (l *PG) Success(ctx context.Context, login string, ipHash []byte) error {
	_, err := l.db.Exec(ctx, resetFailures, login, ipHash)
	return err
}

// Counters older than the window restart from one.
const recordFailure = `
INSERT INTO auth_limiter (login, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', now())
ON CONFLICT (login, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN now() - auth_limiter.updated_at > $3::interval THEN 1 ELSE auth_limiter.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`

// The counter restarts so an expired block needs a full new run of failures.
const setBlocked = `UPDATE auth_limiter SET blocked_until = $3, fail_count = 0 WHERE login = $1 AND ip_hash = $2`

func (l *PG) Failure(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error) {
	var fails int
	if err := l.db.QueryRow(ctx, recordFailure, login, ipHash, l.window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.maxFailures {
		return false, 0, nil
	}

	until := l.now().Add(l.blockFor)
	if _, err := l.db.Exec(ctx, setBlocked, login, ipHash, until); err != nil {
		return false, 0, err
	}
	return true, l.blockFor, nil
}
