package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esim-pricing/core/discount"
	"esim-pricing/core/engine"
	"esim-pricing/core/types"
	perrors "esim-pricing/internal/errors"
)

var gib = int64(1024 * 1024 * 1024)

func run(t *testing.T, globalPct int64, codes ...string) *engine.Result {
	t.Helper()
	plans := make([]types.Plan, 0, len(codes))
	for i, code := range codes {
		plans = append(plans, types.Plan{
			PackageCode: code, Name: code, VolumeBytes: int64(i+3) * gib, Duration: 7,
			DurationUnit: types.DurationDay, PriceUSD: decimal.NewFromInt(10), Location: "FR",
		})
	}
	cfg := &discount.Config{Global: map[string]decimal.Decimal{"3": decimal.NewFromInt(globalPct)}}
	return engine.NewEngine(engine.DefaultEngineConfig()).Resolve(engine.Request{Plans: plans, Discounts: cfg})
}

func stores(t *testing.T) map[string]Store {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{"memory": NewMemoryStore(0), "file": fs}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			r := run(t, 20, "A", "B")
			require.NoError(t, s.Save(ctx, r))

			got, err := s.Get(ctx, r.RunID)
			require.NoError(t, err)
			assert.Equal(t, r.ConfigHash, got.ConfigHash)
			require.Len(t, got.Quotes, 2)
			assert.Equal(t, "8", got.Quotes[0].FinalUSD.String())

			list, err := s.List(ctx, 0)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, 2, list[0].Quotes)

			require.NoError(t, s.Delete(ctx, r.RunID))
			_, err = s.Get(ctx, r.RunID)
			assert.True(t, perrors.IsType(err, perrors.TypeNotFound))
			assert.True(t, perrors.IsType(s.Delete(ctx, r.RunID), perrors.TypeNotFound))
			require.NoError(t, s.Close())
		})
	}
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	before := run(t, 20, "A", "B")
	after := run(t, 50, "A", "C")
	require.NoError(t, s.Save(ctx, before))
	require.NoError(t, s.Save(ctx, after))

	diff, err := Compare(ctx, s, before.RunID, after.RunID)
	require.NoError(t, err)
	assert.True(t, diff.ConfigChanged)
	require.Len(t, diff.Changed, 1)
	assert.Equal(t, "A", diff.Changed[0].PackageCode)
	assert.Equal(t, "-3", diff.Changed[0].Delta.String())
	assert.Equal(t, []string{"C"}, diff.Added)
	assert.Equal(t, []string{"B"}, diff.Removed)

	_, err = Compare(ctx, s, before.RunID, uuid.New())
	assert.Error(t, err)
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	runs := []*engine.Result{run(t, 0, "A"), run(t, 0, "B"), run(t, 0, "C")}
	for i, r := range runs {
		r.ResolvedAt = time.Date(2026, 1, i+1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.Save(ctx, r))
	}

	_, err := s.Get(ctx, runs[0].RunID)
	assert.Error(t, err)

	list, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, runs[2].RunID, list[0].RunID)
}

func TestStoreFactory(t *testing.T) {
	s, err := StoreFactory(BackendFile, t.TempDir(), 0)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = StoreFactory("", "", 10)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = StoreFactory("s3", "", 0)
	assert.True(t, perrors.IsType(err, perrors.TypeConfig))
}
