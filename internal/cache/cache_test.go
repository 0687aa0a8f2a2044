package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoData = errors.New("insufficient data")

func TestMemoryInvalidator_ClearAdvancesGeneration(t *testing.T) {
	ctx := context.Background()
	inv := NewMemoryInvalidator()

	gen, err := inv.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)

	var cleared []int64
	inv.OnClear(func(userID int64) { cleared = append(cleared, userID) })

	require.NoError(t, inv.Clear(ctx, 7))
	require.NoError(t, inv.Clear(ctx, 7))

	gen, _ = inv.Generation(ctx, 7)
	assert.Equal(t, uint64(2), gen)
	other, _ := inv.Generation(ctx, 8)
	assert.Equal(t, uint64(0), other)
	assert.Equal(t, []int64{7, 7}, cleared)
}

func TestProfileCache_HitMissAndClear(t *testing.T) {
	ctx := context.Background()
	inv := NewMemoryInvalidator()
	c := NewProfileCache[string](inv, time.Minute)

	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, _ := inv.Generation(ctx, 1)
	c.Put(1, gen, "saver", nil)

	entry, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "saver", entry.Value)

	require.NoError(t, inv.Clear(ctx, 1))
	assert.Equal(t, 0, c.Len())
	_, ok, _ = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestProfileCache_NegativeEntryAndStaleGeneration(t *testing.T) {
	ctx := context.Background()
	inv := NewMemoryInvalidator()
	c := NewProfileCache[string](inv, time.Minute)

	c.Put(3, 0, "", errNoData)
	entry, ok, _ := c.Get(ctx, 3)
	require.True(t, ok)
	assert.ErrorIs(t, entry.Err, errNoData)

	// a result computed before a clear must not be served afterwards
	require.NoError(t, inv.Clear(ctx, 3))
	c.Put(3, 0, "late", nil)
	_, ok, _ = c.Get(ctx, 3)
	assert.False(t, ok)
}

func TestProfileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewProfileCache[int](NewMemoryInvalidator(), time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Put(5, 0, 42, nil)
	now = now.Add(2 * time.Minute)

	_, ok, _ := c.Get(ctx, 5)
	assert.False(t, ok)
}

func TestProfileCache_ZeroTTLDisablesCaching(t *testing.T) {
	c := NewProfileCache[int](NewMemoryInvalidator(), 0)
	c.Put(5, 0, 42, nil)
	assert.Equal(t, 0, c.Len())
}

type fakeCounter struct {
	values map[string]int64
	err    error
}

func (f *fakeCounter) Incr(_ context.Context, key string) *goredis.IntCmd {
	if f.err != nil {
		return goredis.NewIntResult(0, f.err)
	}
	f.values[key]++
	return goredis.NewIntResult(f.values[key], nil)
}

func (f *fakeCounter) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(strconv.FormatInt(v, 10), nil)
}

func TestRedisInvalidator(t *testing.T) {
	ctx := context.Background()
	counter := &fakeCounter{values: map[string]int64{}}
	inv := NewRedisInvalidator(counter, "recs:cache-gen:")

	gen, err := inv.Generation(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)

	hooked := false
	inv.OnClear(func(int64) { hooked = true })
	require.NoError(t, inv.Clear(ctx, 11))

	assert.Equal(t, int64(1), counter.values["recs:cache-gen:11"])
	gen, err = inv.Generation(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	assert.True(t, hooked)
}

func TestRedisInvalidator_Errors(t *testing.T) {
	ctx := context.Background()
	inv := NewRedisInvalidator(&fakeCounter{err: errors.New("connection refused")}, "p:")

	_, err := inv.Generation(ctx, 1)
	assert.Error(t, err)

	hooked := false
	inv.OnClear(func(int64) { hooked = true })
	assert.Error(t, inv.Clear(ctx, 1))
	assert.False(t, hooked)
}
