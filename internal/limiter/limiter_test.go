package limiter

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLimiter(t *testing.T, maxFailures int) (*PG, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	l := newPG(mock, 15*time.Minute, maxFailures, 10*time.Minute)
	return l, mock
}

func TestPG_Allow(t *testing.T) {
	ctx := context.Background()
	ip := HashIP("127.0.0.1")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setup     func(mock pgxmock.PgxPoolIface)
		wantAllow bool
		wantWait  time.Duration
		wantErr   bool
	}{
		{
			name: "no row",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectBlocked)).
					WithArgs("alice", ip).
					WillReturnError(pgx.ErrNoRows)
			},
			wantAllow: true,
		},
		{
			name: "block expired",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectBlocked)).
					WithArgs("alice", ip).
					WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(-time.Minute)))
			},
			wantAllow: true,
		},
		{
			name: "currently blocked",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectBlocked)).
					WithArgs("alice", ip).
					WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(5 * time.Minute)))
			},
			wantAllow: false,
			wantWait:  5 * time.Minute,
		},
		{
			name: "query error",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectBlocked)).
					WithArgs("alice", ip).
					WillReturnError(errors.New("boom"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, mock := newMockLimiter(t, 3)
			l.now = func() time.Time { return now }
			tt.setup(mock)

			ok, wait, err := l.Allow(ctx, "alice", ip)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAllow, ok)
				assert.Equal(t, tt.wantWait, wait)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPG_Failure_BelowThreshold(t *testing.T) {
	l, mock := newMockLimiter(t, 3)
	ip := HashIP("10.0.0.1")

	mock.ExpectQuery(regexp.QuoteMeta(recordFailure)).
		WithArgs("alice", ip, 15*time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(2))

	blocked, wait, err := l.Failure(context.Background(), "alice", ip)
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.Zero(t, wait)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_Failure_ReachesThreshold(t *testing.T) {
	l, mock := newMockLimiter(t, 3)
	ip := HashIP("10.0.0.1")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	mock.ExpectQuery(regexp.QuoteMeta(recordFailure)).
		WithArgs("alice", ip, 15*time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(setBlocked)).
		WithArgs("alice", ip, now.Add(10*time.Minute)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	blocked, wait, err := l.Failure(context.Background(), "alice", ip)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, 10*time.Minute, wait)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_Success(t *testing.T) {
	l, mock := newMockLimiter(t, 3)
	ip := HashIP("10.0.0.1")

	mock.ExpectExec(regexp.QuoteMeta(resetFailures)).
		WithArgs("alice", ip).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, l.Success(context.Background(), "alice", ip))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHashIP_Stable(t *testing.T) {
	assert.Equal(t, HashIP("1.2.3.4"), HashIP("1.2.3.4"))
	assert.NotEqual(t, HashIP("1.2.3.4"), HashIP("4.3.2.1"))
	assert.Len(t, HashIP("1.2.3.4"), 32)
}
