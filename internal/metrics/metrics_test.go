package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type proberFunc func(ctx context.Context) error

func (f proberFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestObserveDB(t *testing.T) {
	m := New()

	m.ObserveDB(context.Background(), proberFunc(func(ctx context.Context) error { return nil }))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBUp))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.DBErrorsTotal))

	m.ObserveDB(context.Background(), proberFunc(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.DBUp))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBErrorsTotal))

	// recovery flips db_up back without resetting the error counter
	m.ObserveDB(context.Background(), proberFunc(func(ctx context.Context) error { return nil }))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBUp))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBErrorsTotal))
}
