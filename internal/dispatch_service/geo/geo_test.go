package geo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cox's bazar", Normalize("  Cox's   Bazar "))
	assert.Equal(t, "dhaka", Normalize("DHAKA"))
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(NewTable(map[string]int{"Dhaka": 1, "Sylhet": 5}), 0)

	id, err := r.Resolve(context.Background(), " dhaka ")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	_, err = r.Resolve(context.Background(), "Barishal")
	assert.ErrorIs(t, err, ErrLocationNotFound)

	withFallback := NewStaticResolver(NewTable(map[string]int{"Dhaka": 1}), 1)
	id, err = withFallback.Resolve(context.Background(), "Barishal")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestStaticZoneResolver(t *testing.T) {
	r := NewStaticZoneResolver(map[int]ZoneTable{
		1: {Zones: NewTable(map[string]int{"Dhanmondi": 11}), Fallback: 10},
		2: {Zones: NewTable(map[string]int{"Agrabad": 20})},
	})
	ctx := context.Background()

	id, err := r.ResolveZone(ctx, 1, "dhanmondi")
	require.NoError(t, err)
	assert.Equal(t, 11, id)

	id, err = r.ResolveZone(ctx, 1, "Nowhere")
	require.NoError(t, err)
	assert.Equal(t, 10, id)

	_, err = r.ResolveZone(ctx, 2, "Nowhere")
	assert.ErrorIs(t, err, ErrLocationNotFound)

	_, err = r.ResolveZone(ctx, 99, "Dhanmondi")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestDefaultTables(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)
	ctx := context.Background()

	cityID, err := tables.PathaoCities().Resolve(ctx, "Dhaka")
	require.NoError(t, err)
	assert.Equal(t, 1, cityID)

	zoneID, err := tables.PathaoZones().ResolveZone(ctx, cityID, "Dhanmondi")
	require.NoError(t, err)
	assert.Equal(t, 1, zoneID)

	areaID, err := tables.RedxAreas().Resolve(ctx, "Chattogram")
	require.NoError(t, err)
	assert.Equal(t, 2, areaID)
}

func TestLoadTables_MissingFile(t *testing.T) {
	_, err := LoadTables("/nonexistent/tables.yaml")
	assert.Error(t, err)
}

func TestMemoryTableStore_Expiry(t *testing.T) {
	s := NewMemoryTableStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", Table{"dhaka": 1}, time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Table{"dhaka": 1}, got)

	now = now.Add(2 * time.Minute)
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisTableStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewRedisTableStore(client)
	ctx := context.Background()

	got, err := s.Get(ctx, "redx:areas")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set(ctx, "redx:areas", Table{"dhaka": 1, "sylhet": 5}, time.Hour))
	got, err = s.Get(ctx, "redx:areas")
	require.NoError(t, err)
	assert.Equal(t, 5, got["sylhet"])
	assert.True(t, mr.Exists("logistics:geo:redx:areas"))

	mr.FastForward(2 * time.Hour)
	got, err = s.Get(ctx, "redx:areas")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLiveResolver_CachesFetchedTable(t *testing.T) {
	var calls int32
	fetch := func(ctx context.Context) (Table, error) {
		atomic.AddInt32(&calls, 1)
		return NewTable(map[string]int{"Dhaka": 42}), nil
	}
	r := NewLiveResolver("redx:areas", fetch, NewMemoryTableStore(), time.Hour, nil, discardLogger())

	for i := 0; i < 3; i++ {
		id, err := r.Resolve(context.Background(), "Dhaka")
		require.NoError(t, err)
		assert.Equal(t, 42, id)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLiveResolver_FallsBack(t *testing.T) {
	fallback := NewStaticResolver(NewTable(map[string]int{"Sylhet": 5}), 0)

	failing := NewLiveResolver("x", func(ctx context.Context) (Table, error) {
		return nil, errors.New("courier down")
	}, NewMemoryTableStore(), time.Hour, fallback, discardLogger())
	id, err := failing.Resolve(context.Background(), "Sylhet")
	require.NoError(t, err)
	assert.Equal(t, 5, id)

	partial := NewLiveResolver("y", func(ctx context.Context) (Table, error) {
		return Table{"dhaka": 1}, nil
	}, NewMemoryTableStore(), time.Hour, fallback, discardLogger())
	id, err = partial.Resolve(context.Background(), "Sylhet")
	require.NoError(t, err)
	assert.Equal(t, 5, id)

	noFallback := NewLiveResolver("z", func(ctx context.Context) (Table, error) {
		return Table{}, nil
	}, NewMemoryTableStore(), time.Hour, nil, discardLogger())
	_, err = noFallback.Resolve(context.Background(), "Sylhet")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestLiveResolver_ConcurrentMissFetchesOnce(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (Table, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return Table{"dhaka": 1}, nil
	}
	r := NewLiveResolver("k", fetch, NewMemoryTableStore(), time.Hour, nil, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Resolve(context.Background(), "Dhaka")
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLiveZoneResolver(t *testing.T) {
	var fetchedCities []int
	var mu sync.Mutex
	fetch := func(ctx context.Context, cityID int) (Table, error) {
		mu.Lock()
		fetchedCities = append(fetchedCities, cityID)
		mu.Unlock()
		if cityID == 1 {
			return Table{"dhanmondi": 101}, nil
		}
		return nil, errors.New("no such city")
	}
	fallback := NewStaticZoneResolver(map[int]ZoneTable{2: {Fallback: 200}})
	r := NewLiveZoneResolver("pathao:zones", fetch, NewMemoryTableStore(), time.Hour, fallback, discardLogger())
	ctx := context.Background()

	id, err := r.ResolveZone(ctx, 1, "Dhanmondi")
	require.NoError(t, err)
	assert.Equal(t, 101, id)

	id, err = r.ResolveZone(ctx, 1, "Dhanmondi")
	require.NoError(t, err)
	assert.Equal(t, 101, id)

	id, err = r.ResolveZone(ctx, 2, "Agrabad")
	require.NoError(t, err)
	assert.Equal(t, 200, id)

	assert.Equal(t, []int{1, 2}, fetchedCities)
}
