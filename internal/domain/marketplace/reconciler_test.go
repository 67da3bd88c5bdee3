package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"herd-marketplace/internal/domain/geo"
	"herd-marketplace/internal/domain/herd"
	"herd-marketplace/internal/platform/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func individual(id, animalID string, status ListingStatus, created time.Time) Listing {
	return Listing{ID: id, ProjectID: "p-1", Subject: IndividualSubject{AnimalID: animalID}, Status: status, CreatedAt: created}
}

func batch(id string, members []string, status ListingStatus, created time.Time) Listing {
	return Listing{ID: id, ProjectID: "p-1", Subject: BatchSubject{BatchID: "b-" + id, MemberIDs: members}, Status: status, CreatedAt: created}
}

func TestBuildIndex_BatchIsManyToOne(t *testing.T) {
	idx := BuildIndex([]Listing{batch("L1", []string{"x", "y", "z"}, ListingAvailable, t0)}, nil)

	animals := []herd.Animal{{ID: "x"}, {ID: "y"}, {ID: "z"}, {ID: "w"}}
	got := idx.Enrich(animals)

	want := []Enrichment{
		{AnimalID: "x", Status: EnrichAvailable, ListingID: "L1"},
		{AnimalID: "y", Status: EnrichAvailable, ListingID: "L1"},
		{AnimalID: "z", Status: EnrichAvailable, ListingID: "L1"},
		{AnimalID: "w", Status: EnrichNone},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("enrichment mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIndex_IgnoresInactiveListings(t *testing.T) {
	idx := BuildIndex([]Listing{
		individual("L1", "a", ListingSold, t0),
		individual("L2", "b", ListingWithdrawn, t0),
		individual("L3", "c", ListingReserved, t0),
	}, nil)

	assert.Equal(t, 1, idx.Len())
	l, ok := idx.Lookup("c")
	require.True(t, ok)
	assert.Equal(t, "L3", l.ID)
}

func TestBuildIndex_DuplicateClaimsMostRecentWins(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := logger.FromZap(zap.New(core))

	older := individual("L-old", "a", ListingAvailable, t0)
	newerBatch := batch("L-new", []string{"a", "b"}, ListingAvailable, t0.Add(time.Hour))

	for _, order := range [][]Listing{{older, newerBatch}, {newerBatch, older}} {
		idx := BuildIndex(order, log)
		l, ok := idx.Lookup("a")
		require.True(t, ok)
		assert.Equal(t, "L-new", l.ID)
		assert.Equal(t, 1, idx.Conflicts())
	}

	entries := logs.FilterMessage("duplicate listing claim").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "L-new", entries[0].ContextMap()["kept_listing"])
	assert.Equal(t, "L-old", entries[0].ContextMap()["dropped_listing"])
}

func TestBuildIndex_CreatedAtTieGreaterIDWins(t *testing.T) {
	idx := BuildIndex([]Listing{
		individual("L-b", "a", ListingAvailable, t0),
		individual("L-a", "a", ListingAvailable, t0),
	}, nil)
	l, _ := idx.Lookup("a")
	assert.Equal(t, "L-b", l.ID)
}

func TestBuildIndex_SameListingTwiceIsNotAConflict(t *testing.T) {
	idx := BuildIndex([]Listing{batch("L1", []string{"x", "x", ""}, ListingAvailable, t0)}, nil)
	assert.Equal(t, 0, idx.Conflicts())
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_EnrichReservedAndSold(t *testing.T) {
	idx := BuildIndex([]Listing{individual("L1", "a", ListingReserved, t0)}, nil)

	got := idx.Enrich([]herd.Animal{
		{ID: "a", Status: herd.StatusActive},
		{ID: "s", Status: herd.StatusSold},
	})
	assert.Equal(t, EnrichReserved, got[0].Status)
	assert.Equal(t, "L1", got[0].ListingID)
	assert.Equal(t, EnrichSold, got[1].Status)
	assert.Empty(t, got[1].ListingID)
}

func TestListing_JSONCarriesListingType(t *testing.T) {
	l := Listing{
		ID:         "L1",
		Subject:    BatchSubject{BatchID: "b1", MemberIDs: []string{"x", "y"}},
		Status:     ListingAvailable,
		PricePerKg: 2.5,
		WeightKg:   310,
		Location:   geo.Location{Point: geo.Point{Lat: 14.6, Lon: -90.5}, City: "Antigua"},
		CreatedAt:  t0,
	}
	raw, err := json.Marshal(l)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "batch", generic["listing_type"])
	assert.NotContains(t, generic, "subject_id")

	var back Listing
	require.NoError(t, json.Unmarshal(raw, &back))
	if diff := cmp.Diff(l, back); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}

	err = json.Unmarshal([]byte(`{"id":"L9","listing_type":"herd"}`), &back)
	assert.ErrorIs(t, err, ErrUnknownListingType)

	_, err = json.Marshal(Listing{ID: "L0"})
	assert.Error(t, err)
}

func TestReconciler_CurrentBuildsOnceAndRefreshRebuilds(t *testing.T) {
	var calls atomic.Int32
	listings := []Listing{individual("L1", "a", ListingAvailable, t0)}

	r := NewReconciler(func(ctx context.Context) ([]Listing, error) {
		calls.Add(1)
		return listings, nil
	}, nil)

	assert.Nil(t, r.Snapshot())

	s1, err := r.Current(context.Background())
	require.NoError(t, err)
	s2, err := r.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.EqualValues(t, 1, calls.Load())

	listings = []Listing{individual("L2", "b", ListingAvailable, t0)}
	s3, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
	_, ok := s3.Index.Lookup("a")
	assert.False(t, ok)
	_, ok = s3.Index.Lookup("b")
	assert.True(t, ok)
}

func TestReconciler_FailedRefreshKeepsLastSnapshot(t *testing.T) {
	fail := false
	r := NewReconciler(func(ctx context.Context) ([]Listing, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []Listing{individual("L1", "a", ListingAvailable, t0)}, nil
	}, nil)

	first, err := r.Refresh(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = r.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, first, r.Snapshot())
}

func TestReconciler_ConcurrentRefreshesAreCoalesced(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	r := NewReconciler(func(ctx context.Context) ([]Listing, error) {
		calls.Add(1)
		<-release
		return nil, nil
	}, nil)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Refresh(context.Background())
		}()
	}

	// dar tiempo a que todos entren al mismo vuelo
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	require.NotNil(t, r.Snapshot())
}

func TestReconciler_InvalidateDiscardsInFlightLoad(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	r := NewReconciler(func(ctx context.Context) ([]Listing, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return nil, nil
		}
		return []Listing{individual("L1", "a", ListingAvailable, t0)}, nil
	}, nil)

	done := make(chan *Snapshot, 1)
	go func() {
		s, _ := r.Refresh(context.Background())
		done <- s
	}()
	<-entered

	r.Invalidate()
	fresh, err := r.Refresh(context.Background())
	require.NoError(t, err)
	_, ok := fresh.Index.Lookup("a")
	require.True(t, ok)

	close(release)
	late := <-done
	require.NotNil(t, late)
	_, ok = late.Index.Lookup("a")
	assert.True(t, ok, "a load started before Invalidate must not be published")
	_, ok = r.Snapshot().Index.Lookup("a")
	assert.True(t, ok)
	assert.EqualValues(t, 3, calls.Load())
}

func TestPoller_RefreshesUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	var ticks atomic.Int32
	p := NewPoller(5*time.Millisecond, func(ctx context.Context) error {
		if ticks.Add(1) == 2 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestPoller_DisabledWithZeroInterval(t *testing.T) {
	p := NewPoller(0, func(ctx context.Context) error {
		t.Fatalf("refresh must not run")
		return nil
	}, nil)
	p.Start(context.Background())
	p.Stop()
}
