package persist

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nasdf/nosqldb/codec"
	"github.com/nasdf/nosqldb/core"
	"github.com/nasdf/nosqldb/payload"
	"github.com/nasdf/nosqldb/storage"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *core.Store[int, *core.Record[int, *payload.String]] {
	store := core.NewRecordStore[int, *payload.String]()
	rec := core.NewNamedRecord[int, *payload.String]("Luke", "hero")
	rec.Payload = payload.NewString("pilot")
	store.Insert(1, rec)
	return store
}

func TestPersistAndLoad(t *testing.T) {
	ctx := context.Background()
	store := testStore()
	mem := storage.NewMemory()

	scheduler := NewScheduler(store, mem, WithKey("db"))
	key, err := scheduler.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, "db.1", key)
	assert.Equal(t, key, scheduler.LastKey())

	leia := core.NewNamedRecord[int, *payload.String]("Leia", "princess")
	leia.Payload = payload.NewString("diplomat")
	store.Insert(2, leia)

	key, err = scheduler.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, "db.2", key)
	assert.Equal(t, 2, scheduler.Runs())

	dec := codec.NewDecoder(codec.IntKeys, payload.DecodeString)

	first := core.NewRecordStore[int, *payload.String]()
	_, err = Load(ctx, mem, RunKey("db", 1), dec, first)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1}, first.Keys())

	second := core.NewRecordStore[int, *payload.String]()
	report, err := Load(ctx, mem, RunKey("db", 2), dec, second)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, report.Inserted)
}

func TestPersistSkipUnchanged(t *testing.T) {
	ctx := context.Background()
	store := testStore()
	mem := storage.NewMemory()

	scheduler := NewScheduler(store, mem, WithSkipUnchanged())
	first, err := scheduler.Persist(ctx)
	require.NoError(t, err)
	digest := scheduler.LastDigest()
	require.False(t, digest.IsZero())

	again, err := scheduler.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, scheduler.Runs())

	ok, err := mem.Has(ctx, RunKey(DefaultKey, 2))
	require.NoError(t, err)
	assert.False(t, ok)

	rec, _ := store.Lookup(1)
	rec.Name = "Luke Skywalker"

	changed, err := scheduler.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunKey(DefaultKey, 2), changed)
	assert.NotEqual(t, digest, scheduler.LastDigest())
}

func TestPersistSkipUnchangedManyRecords(t *testing.T) {
	ctx := context.Background()
	store := core.NewRecordStore[int, *payload.String]()
	for i := 0; i < 20; i++ {
		rec := core.NewNamedRecord[int, *payload.String](fmt.Sprintf("record %d", i), "unchanged")
		rec.Payload = payload.NewString(fmt.Sprint(i))
		store.Insert(i, rec)
	}

	scheduler := NewScheduler(store, storage.NewMemory(), WithSkipUnchanged())
	for i := 0; i < 10; i++ {
		key, err := scheduler.Persist(ctx)
		require.NoError(t, err)
		assert.Equal(t, RunKey(DefaultKey, 1), key)
	}
	assert.Equal(t, 1, scheduler.Runs())
}

func TestPersistResumesNumbering(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	first := NewScheduler(testStore(), mem, WithKey("db"))
	for i := 0; i < 2; i++ {
		_, err := first.Persist(ctx)
		require.NoError(t, err)
	}
	earlier, err := mem.Get(ctx, "db.1")
	require.NoError(t, err)

	store := testStore()
	leia := core.NewNamedRecord[int, *payload.String]("Leia", "princess")
	leia.Payload = payload.NewString("diplomat")
	store.Insert(2, leia)

	second := NewScheduler(store, mem, WithKey("db"))
	key, err := second.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, "db.3", key)
	assert.Equal(t, 1, second.Runs())

	key, err = second.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, "db.4", key)

	data, err := mem.Get(ctx, "db.1")
	require.NoError(t, err)
	assert.Equal(t, earlier, data)
}

func TestDigest(t *testing.T) {
	store := testStore()

	_, a, err := encode(store)
	require.NoError(t, err)
	_, b, err := encode(store)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
	assert.Len(t, a.String(), 64)

	rec, _ := store.Lookup(1)
	rec.Payload = payload.NewString("farmer")
	_, c, err := encode(store)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	assert.True(t, Digest{}.IsZero())
}

func TestLoadMissing(t *testing.T) {
	dec := codec.NewDecoder(codec.IntKeys, payload.DecodeString)
	target := core.NewRecordStore[int, *payload.String]()

	_, err := Load(context.Background(), storage.NewMemory(), "absent", dec, target)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunMaxRuns(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mem := storage.NewMemory()
	scheduler := NewScheduler(testStore(), mem, WithInterval(time.Millisecond), WithMaxRuns(3))
	require.NoError(t, scheduler.Run(ctx))
	assert.Equal(t, 3, scheduler.Runs())

	for run := 1; run <= 3; run++ {
		ok, err := mem.Has(ctx, RunKey(DefaultKey, run))
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := mem.Has(ctx, RunKey(DefaultKey, 4))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scheduler := NewScheduler(testStore(), storage.NewMemory(), WithInterval(time.Hour))
	err := scheduler.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, scheduler.Runs())
}

type failingSource struct{}

var errEncode = errors.New("encode failed")

func (failingSource) Document() (*etree.Document, error) {
	return nil, errEncode
}

func TestRunStopsOnError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	scheduler := NewScheduler(failingSource{}, storage.NewMemory(), WithInterval(time.Millisecond))
	err := scheduler.Run(ctx)
	assert.ErrorIs(t, err, errEncode)
	assert.Equal(t, 0, scheduler.Runs())
	assert.Equal(t, "", scheduler.LastKey())
}

func TestRunRejectsInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		scheduler := NewScheduler(testStore(), storage.NewMemory(), WithInterval(interval))
		err := scheduler.Run(context.Background())
		assert.ErrorIs(t, err, ErrInterval)
		assert.Equal(t, 0, scheduler.Runs())
	}
}

func TestPersistInconsistentStore(t *testing.T) {
	store := testStore()
	store.Insert(2, nil)

	_, err := NewScheduler(store, storage.NewMemory()).Persist(context.Background())
	assert.ErrorIs(t, err, core.ErrInconsistent)
}
