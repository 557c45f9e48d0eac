package querycache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type media struct {
	ID    string `json:"id"`
	Order int    `json:"displayOrder"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "specialist-media:s1", Key(KeySpecialistMedia, "s1"))
	assert.Equal(t, "specialists", Key(KeySpecialists))
}

func TestMemory_InvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	require.NoError(t, c.Set(ctx, Key(KeySpecialistMedia, "s1"), []media{{ID: "m1"}}))
	require.NoError(t, c.Set(ctx, Key(KeySpecialistMedia, "s2"), []media{{ID: "m2"}}))
	require.NoError(t, c.Set(ctx, KeySpecialists, []string{"s1"}))

	require.NoError(t, c.Invalidate(ctx, Key(KeySpecialistMedia, "s1")))
	var got []media
	ok, _ := c.Get(ctx, Key(KeySpecialistMedia, "s1"), &got)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, Key(KeySpecialistMedia, "s2"), &got)
	assert.True(t, ok)

	require.NoError(t, c.Invalidate(ctx, KeySpecialistMedia))
	ok, _ = c.Get(ctx, Key(KeySpecialistMedia, "s2"), &got)
	assert.False(t, ok)

	// sibling roots sharing a textual prefix are untouched
	var ids []string
	ok, _ = c.Get(ctx, KeySpecialists, &ids)
	assert.True(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1))
	c.now = func() time.Time { return now.Add(2 * time.Minute) }

	var v int
	ok, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestFetch_ReadThrough(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	calls := 0
	load := func(context.Context) ([]media, error) {
		calls++
		return []media{{ID: "m1", Order: 0}}, nil
	}

	first, err := Fetch(ctx, c, Key(KeySpecialistMedia, "s1"), load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, Key(KeySpecialistMedia, "s1"), load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx, Key(KeySpecialistMedia, "s1")))
	_, err = Fetch(ctx, c, Key(KeySpecialistMedia, "s1"), load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetch_LoaderErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	boom := errors.New("boom")

	_, err := Fetch(ctx, c, "k", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
}

func TestFetch_InvalidateDuringLoadIsNotStored(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	key := Key(KeySpecialistMedia, "s1")

	loads := 0
	got, err := Fetch(ctx, c, key, func(ctx context.Context) ([]media, error) {
		loads++
		// a mutation lands while the read is still in flight
		require.NoError(t, c.Invalidate(ctx, KeySpecialistMedia))
		return []media{{ID: "stale"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", got[0].ID)
	assert.Zero(t, c.Len())

	got, err = Fetch(ctx, c, key, func(context.Context) ([]media, error) {
		loads++
		return []media{{ID: "fresh"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got[0].ID)
	assert.Equal(t, 2, loads)

	var cached []media
	ok, err := c.Get(ctx, key, &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", cached[0].ID)
}

func TestMemory_SetAtRejectsOldGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, KeyUsers))

	stored, err := c.SetAt(ctx, KeyUsers, []media{{ID: "u"}}, gen)
	require.NoError(t, err)
	assert.False(t, stored)

	gen, _ = c.Generation(ctx)
	stored, err = c.SetAt(ctx, KeyUsers, []media{{ID: "u"}}, gen)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestRedis_InvalidatePrefix(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedis(ctx, url, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, Key(KeySpecialistMedia, "s1"), []media{{ID: "m1"}}))
	require.NoError(t, c.Set(ctx, Key(KeySpecialistMedia, "s2"), []media{{ID: "m2"}}))
	require.NoError(t, c.Invalidate(ctx, KeySpecialistMedia))

	var got []media
	ok, err := c.Get(ctx, Key(KeySpecialistMedia, "s1"), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
