package pgstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/docstore/pgstore"
)

func testDoc(status string) map[string]any {
	return map[string]any{
		"status":   status,
		"senderId": "sender-1",
		"receiver": map[string]any{"email": "rana@example.com", "name": "Rana"},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()

	id, err := store.Create(ctx, "shipments_create", testDoc("Pending"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := store.Get(ctx, "shipments_create", id)
	require.NoError(t, err)
	require.Equal(t, id, rec.ID)
	require.Equal(t, "Pending", rec.Doc["status"])

	_, err = store.Get(ctx, "shipments_create", "missing")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_QueryFilters(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()
	coll := "shipments_query"

	pending, err := store.Create(ctx, coll, testDoc("Pending"))
	require.NoError(t, err)

	claimed := testDoc("InTransit")
	claimed["driver"] = map[string]any{"email": "dastagir@example.com"}
	claimedID, err := store.Create(ctx, coll, claimed)
	require.NoError(t, err)

	recs, err := store.Query(ctx, coll, docstore.Eq("status", "Pending"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, pending, recs[0].ID)

	// Missing matches both absent fields and explicit nulls.
	recs, err = store.Query(ctx, coll, docstore.Missing("driver"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, pending, recs[0].ID)

	recs, err = store.Query(ctx, coll, docstore.Eq("receiver.email", "rana@example.com"))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	recs, err = store.Query(ctx, coll, docstore.ByID(claimedID))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "InTransit", recs[0].Doc["status"])
}

func TestStore_UpdateNestedPath(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()
	coll := "shipments_update"

	id, err := store.Create(ctx, coll, testDoc("Pending"))
	require.NoError(t, err)

	err = store.Update(ctx, coll, id, map[string]any{"receiver.name": "Renamed"})
	require.NoError(t, err)

	rec, err := store.Get(ctx, coll, id)
	require.NoError(t, err)
	receiver := rec.Doc["receiver"].(map[string]any)
	require.Equal(t, "Renamed", receiver["name"])
	require.Equal(t, "rana@example.com", receiver["email"], "sibling field survives the nested write")
}

func TestStore_UpdateMissingParentWritesNothing(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()
	coll := "shipments_missing_parent"

	id, err := store.Create(ctx, coll, testDoc("Pending"))
	require.NoError(t, err)

	// jsonb_set only creates the leaf key; with no driver object the
	// write lands nowhere and the document stays as it was.
	err = store.Update(ctx, coll, id, map[string]any{"driver.email": "dastagir@example.com"})
	require.NoError(t, err)

	rec, err := store.Get(ctx, coll, id)
	require.NoError(t, err)
	_, ok := rec.Doc["driver"]
	require.False(t, ok)
	require.Equal(t, "Pending", rec.Doc["status"])
}

func TestStore_UpdatePreconditionIsCompareAndSet(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()
	coll := "shipments_cas"

	id, err := store.Create(ctx, coll, testDoc("Pending"))
	require.NoError(t, err)

	err = store.Update(ctx, coll, id,
		map[string]any{"status": "InTransit", "driver": map[string]any{"email": "dastagir@example.com"}},
		docstore.Eq("status", "Pending"), docstore.Missing("driver"))
	require.NoError(t, err)

	// The same conditional write must now lose.
	err = store.Update(ctx, coll, id,
		map[string]any{"status": "InTransit", "driver": map[string]any{"email": "late@example.com"}},
		docstore.Eq("status", "Pending"), docstore.Missing("driver"))
	require.ErrorIs(t, err, docstore.ErrPrecondition)

	rec, err := store.Get(ctx, coll, id)
	require.NoError(t, err)
	driver := rec.Doc["driver"].(map[string]any)
	require.Equal(t, "dastagir@example.com", driver["email"])

	err = store.Update(ctx, coll, "missing", map[string]any{"status": "InTransit"},
		docstore.Eq("status", "Pending"))
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_ConcurrentConditionalUpdates_OneWins(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()
	coll := "shipments_race"

	id, err := store.Create(ctx, coll, testDoc("Pending"))
	require.NoError(t, err)

	const contenders = 8
	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.Update(ctx, coll, id,
				map[string]any{"status": "InTransit"},
				docstore.Eq("status", "Pending"))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, docstore.ErrPrecondition)
		}
	}
	require.Equal(t, 1, wins)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()
	coll := "shipments_delete"

	id, err := store.Create(ctx, coll, testDoc("Pending"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, coll, id))
	_, err = store.Get(ctx, coll, id)
	require.ErrorIs(t, err, docstore.ErrNotFound)

	require.ErrorIs(t, store.Delete(ctx, coll, id), docstore.ErrNotFound)
}

func TestStore_SubscribeFiresImmediatelyAndOnChange(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()
	coll := "shipments_subscribe"

	id, err := store.Create(ctx, coll, testDoc("Pending"))
	require.NoError(t, err)

	var mu sync.Mutex
	var sets [][]docstore.Record
	cancel, err := store.Subscribe(ctx, coll, []docstore.Filter{docstore.ByID(id)},
		func(recs []docstore.Record) {
			mu.Lock()
			sets = append(sets, recs)
			mu.Unlock()
		})
	require.NoError(t, err)
	defer cancel()

	waitForSets(t, &mu, &sets, 1)

	require.NoError(t, store.Update(ctx, coll, id, map[string]any{"status": "InTransit"}))
	waitForSets(t, &mu, &sets, 2)

	mu.Lock()
	defer mu.Unlock()
	last := sets[len(sets)-1]
	require.Len(t, last, 1)
	require.Equal(t, "InTransit", last[0].Doc["status"])
}

func TestStore_SubscribeCancelStopsDeliveries(t *testing.T) {
	t.Parallel()

	store := pgstore.New(tcPool)
	ctx := context.Background()
	coll := "shipments_unsubscribe"

	id, err := store.Create(ctx, coll, testDoc("Pending"))
	require.NoError(t, err)

	var mu sync.Mutex
	var sets [][]docstore.Record
	cancel, err := store.Subscribe(ctx, coll, []docstore.Filter{docstore.ByID(id)},
		func(recs []docstore.Record) {
			mu.Lock()
			sets = append(sets, recs)
			mu.Unlock()
		})
	require.NoError(t, err)

	waitForSets(t, &mu, &sets, 1)
	cancel()
	cancel() // second cancel is a no-op

	mu.Lock()
	before := len(sets)
	mu.Unlock()

	require.NoError(t, store.Update(ctx, coll, id, map[string]any{"status": "InTransit"}))
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, before, len(sets))
}

func waitForSets(t *testing.T, mu *sync.Mutex, sets *[][]docstore.Record, n int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		got := len(*sets)
		mu.Unlock()
		if got >= n {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d deliveries, got %d", n, got)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
