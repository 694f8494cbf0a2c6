package daily

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDates(t *testing.T) {
	dates, err := Dates("2024-02-27", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, dates)

	_, err = Dates("2024-03-02", "2024-03-01")
	assert.Error(t, err)
	_, err = Dates("yesterday", "2024-03-01")
	assert.Error(t, err)
}

func TestCheckRange(t *testing.T) {
	g := New(newRegistry(t))
	dates, err := Dates("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	failed, err := g.CheckRange(context.Background(), dates, "", 3, 4)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestCheckRangeCancelled(t *testing.T) {
	g := New(newRegistry(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.CheckRange(ctx, []string{"2024-01-01", "2024-01-02"}, "classic", 2, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
