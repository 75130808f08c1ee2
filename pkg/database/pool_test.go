package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		lo := time.Duration(float64(base) * (1 - retryJitterFraction))
		hi := time.Duration(float64(base) * (1 + retryJitterFraction))
		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	sqlErr := errors.New("syntax error at or near \"SELEC\"")

	err := withRetry(context.Background(), nil, "op", isConnectionError, func() error {
		calls++
		return sqlErr
	})

	assert.ErrorIs(t, err, sqlErr)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), nil, "op", always, func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_CanceledContextAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, nil, "postgres connect", always, func() error {
		return errors.New("dial tcp: connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "postgres connect")
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"dial tcp 127.0.0.1:5432: connection refused", true},
		{"connection reset by peer", true},
		{"i/o timeout", true},
		{"unexpected EOF", true},
		{"could not connect to server", true},
		{"syntax error at or near", false},
		{"relation \"products\" does not exist", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isConnectionError(errors.New(tt.msg)), tt.msg)
	}
	assert.False(t, isConnectionError(nil))
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "search", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5433/search?sslmode=disable", cfg.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off \\ sale`, EscapeLike(`50%_off \ sale`))
	assert.Equal(t, `%t-shirt%`, ContainsPattern("t-shirt"))
	assert.Equal(t, `hemp\_%`, PrefixPattern("hemp_"))
}
