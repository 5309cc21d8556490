package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/nasdf/nosqldb/core"
	"github.com/nasdf/nosqldb/payload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord = core.Record[int, *payload.List]

// numberedStore returns a store of records named elem0..elemN-1 where every
// odd key has the previous key as child.
func numberedStore(n int) *core.Store[int, *testRecord] {
	store := core.NewRecordStore[int, *payload.List]()
	for i := 0; i < n; i++ {
		rec := core.NewNamedRecord[int, *payload.List](fmt.Sprintf("elem%d", i), "numbered")
		if i%2 == 1 {
			rec.Children = append(rec.Children, i-1)
		}
		rec.Payload = payload.NewList(fmt.Sprintf("item%d", i))
		store.Insert(i, rec)
	}
	return store
}

func starWarsStore() *core.Store[string, *core.Record[string, *payload.String]] {
	store := core.NewRecordStore[string, *payload.String]()
	store.Insert("1", core.NewBuilder[string, *payload.String]().
		Name("Luke").
		Payload(payload.NewString("pilot")).
		Build())
	store.Insert("2", core.NewBuilder[string, *payload.String]().
		Name("Leia").
		Children("1").
		Payload(payload.NewString("diplomat")).
		Build())
	return store
}

func TestQueryScenario(t *testing.T) {
	store := starWarsStore()
	engine := NewEngine(store)

	view := engine.Query(HasChildren(store.Lookup))
	assert.Equal(t, []string{"2"}, view.Keys())

	leia, ok := view.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, leia.Children)

	_, ok = view.Lookup("1")
	assert.False(t, ok, "key outside the view must not resolve")
}

func TestQueryKeepsPredicates(t *testing.T) {
	store := numberedStore(6)
	engine := NewEngine(store)
	engine.Add(HasChildren(store.Lookup))

	all := engine.Query(func(int) bool { return true })
	assert.Equal(t, 6, all.Len())
	assert.Equal(t, 1, engine.Predicates())

	assert.ElementsMatch(t, []int{1, 3, 5}, engine.RunAll().Keys())
}

func TestRunAllComposition(t *testing.T) {
	store := numberedStore(40)
	p1 := HasChildren(store.Lookup)
	p2 := NameContains(store.Lookup, "3")

	var expect []int
	for _, k := range store.Keys() {
		if p1(k) && p2(k) {
			expect = append(expect, k)
		}
	}
	require.NotEmpty(t, expect)

	forward := NewEngine(store)
	forward.Add(p1, p2)

	backward := NewEngine(store)
	backward.Add(p2)
	backward.Add(p1)

	assert.ElementsMatch(t, expect, forward.RunAll().Keys())
	assert.ElementsMatch(t, expect, backward.RunAll().Keys())
}

func TestRunAllNarrowsSequentially(t *testing.T) {
	store := numberedStore(10)

	var scanned []int
	counting := func(key int) bool {
		scanned = append(scanned, key)
		return true
	}

	engine := NewEngine(store)
	engine.Add(KeyContains[int]("1"), counting)
	view := engine.RunAll()

	assert.ElementsMatch(t, []int{1}, view.Keys())
	assert.Equal(t, []int{1}, scanned, "later predicates only see surviving keys")
}

func TestRunAllWithoutPredicates(t *testing.T) {
	store := numberedStore(4)
	engine := NewEngine(store)

	assert.ElementsMatch(t, []int{0, 1, 2, 3}, engine.RunAll().Keys())

	engine.Add(NoChildren(store.Lookup))
	engine.Reset()
	assert.Equal(t, 4, engine.RunAll().Len())
}

func TestEngineReadSurface(t *testing.T) {
	store := numberedStore(3)
	var reader core.Queryable[int, *testRecord] = NewEngine(store)

	assert.ElementsMatch(t, []int{0, 1, 2}, reader.Keys())
	assert.Len(t, reader.Values(), 3)
	assert.True(t, reader.ContainsKey(2))

	rec, ok := reader.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "elem1", rec.Name)
}

func TestViewBeforeFreezeSharesRecords(t *testing.T) {
	store := numberedStore(4)
	view := NewEngine(store).Query(KeyContains[int]("1"))

	rec, ok := view.Lookup(1)
	require.True(t, ok)
	rec.Name = "changed through view"
	rec.Payload.Items[0] = "changed"

	original, ok := store.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "changed through view", original.Name)
	assert.Equal(t, "changed", original.Payload.Items[0])
	assert.False(t, view.Frozen())
}

func TestViewFreezeIsolates(t *testing.T) {
	store := numberedStore(4)
	view := NewEngine(store).Query(func(k int) bool { return k < 2 })
	view.Freeze()
	require.True(t, view.Frozen())

	rec, ok := view.Lookup(1)
	require.True(t, ok)
	rec.Name = "changed through view"
	rec.Children = append(rec.Children, 99)
	rec.Payload.Items[0] = "changed"

	original, ok := store.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "elem1", original.Name)
	assert.Equal(t, []int{0}, original.Children)
	assert.Equal(t, "item1", original.Payload.Items[0])

	original.Description = "changed in store"
	require.True(t, store.Remove(0))

	again, ok := view.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "numbered", again.Description)
	assert.True(t, view.ContainsKey(0))
	assert.Len(t, view.Values(), 2)
}

func TestViewMissingKeys(t *testing.T) {
	store := numberedStore(2)
	view := NewView[int, *testRecord](store, []int{0, 7})

	_, ok := view.Lookup(7)
	assert.False(t, ok)
	assert.False(t, view.ContainsKey(7))
	assert.True(t, view.ContainsKey(0))
	assert.Len(t, view.Values(), 1)
	assert.Equal(t, 2, view.Len())

	view.Freeze()
	_, ok = view.Lookup(7)
	assert.False(t, ok)
	assert.Len(t, view.Values(), 1)
}

func TestViewValuesOf(t *testing.T) {
	store := numberedStore(4)
	view := NewView[int, *testRecord](store, []int{2, 0, 7})

	values, err := view.ValuesOf(2, 0)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "elem2", values[0].Name)
	assert.Equal(t, "elem0", values[1].Name)

	_, err = view.ValuesOf(0, 1)
	assert.ErrorIs(t, err, core.ErrKeyNotFound)
	_, err = view.ValuesOf(7)
	assert.ErrorIs(t, err, core.ErrKeyNotFound)

	view.Freeze()
	values, err = view.ValuesOf(0)
	require.NoError(t, err)
	assert.Equal(t, "elem0", values[0].Name)

	var reader core.Queryable[int, *testRecord] = NewEngine(store)
	values, err = reader.ValuesOf(3)
	require.NoError(t, err)
	assert.Equal(t, "elem3", values[0].Name)
}

func TestViewKeysAreCopies(t *testing.T) {
	store := numberedStore(3)
	view := NewEngine(store).Query(func(int) bool { return true })

	keys := view.Keys()
	keys[0] = 42
	assert.NotContains(t, view.Keys(), 42)
}

func TestViewAddClear(t *testing.T) {
	store := numberedStore(5)
	view := NewEngine(store).Query(KeyContains[int]("4"))
	assert.Equal(t, []int{4}, view.Keys())

	view.Add(1, 2)
	assert.Equal(t, []int{4, 1, 2}, view.Keys())

	view.Clear()
	assert.Empty(t, view.Keys())
	assert.Equal(t, 5, store.Len())
}

func TestViewRestrictTo(t *testing.T) {
	store := numberedStore(8)
	view := NewEngine(store).Query(HasChildren(store.Lookup))

	restricted := view.RestrictTo(func(k int) bool { return k > 4 })
	assert.ElementsMatch(t, []int{5, 7}, restricted)
	assert.ElementsMatch(t, []int{1, 3, 5, 7}, view.Keys())
}

func TestViewNestedQuery(t *testing.T) {
	store := numberedStore(20)
	view := NewEngine(store).Query(HasChildren(store.Lookup))

	nested := view.Engine()
	nested.Add(NameContains(view.Lookup, "1"))
	result := nested.RunAll()

	assert.ElementsMatch(t, []int{1, 11, 13, 15, 17, 19}, result.Keys())

	outside := view.Engine().Query(KeyContains[int]("2"))
	assert.Empty(t, outside.Keys(), "nested queries only see the view keys")
}

func TestPredicates(t *testing.T) {
	store := core.NewRecordStore[string, *payload.String]()
	base := time.Date(2015, 10, 13, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"alpha", "beta", "gamma"} {
		rec := core.NewNamedRecord[string, *payload.String](name, "descr "+name)
		rec.Timestamp = base.Add(time.Duration(i) * time.Hour)
		if i > 0 {
			rec.Children = []string{fmt.Sprintf("child-%d", i)}
		}
		rec.Payload = payload.NewString(name)
		store.Insert(fmt.Sprintf("key%d", i), rec)
	}
	engine := NewEngine(store)

	keys := func(p Predicate[string]) []string {
		return engine.Query(p).Keys()
	}

	assert.ElementsMatch(t, []string{"key1", "key2"}, keys(HasChildren(store.Lookup)))
	assert.ElementsMatch(t, []string{"key0"}, keys(NoChildren(store.Lookup)))
	assert.ElementsMatch(t, []string{"key2"}, keys(NameContains(store.Lookup, "mm")))
	assert.ElementsMatch(t, []string{"key1"}, keys(MetadataContains(store.Lookup, "beta")))
	assert.ElementsMatch(t, []string{"key2"}, keys(MetadataContains(store.Lookup, "child-2")))
	assert.ElementsMatch(t, []string{"key1", "key2"}, keys(TimestampBetween(store.Lookup, base, base.Add(2*time.Hour))))
	assert.ElementsMatch(t, []string{"key0"}, keys(TimestampBetween(store.Lookup, base.Add(-time.Hour), base)))
	assert.ElementsMatch(t, []string{"key0", "key1", "key2"}, keys(KeyContains[string]("key")))
	assert.ElementsMatch(t, []string{"key1", "key2"}, keys(Not(NoChildren(store.Lookup))))

	missing := NameContains(store.Lookup, "")
	assert.False(t, missing("absent"))
}
