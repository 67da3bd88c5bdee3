package weights

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"herd-marketplace/internal/domain/herd"
)

func kg(v float64) *float64 { return &v }

func day(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

func TestResolve_Precedence(t *testing.T) {
	full := Input{
		ManualOverrideKg: kg(120.4),
		Weighings: []herd.Weighing{
			{ID: "w1", Date: day(1), WeightKg: 90},
			{ID: "w2", Date: day(5), WeightKg: 101.6},
		},
		EntryWeightKg: 25,
		Batch:         nil,
	}

	got, err := Resolve(full)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Source != SourceManualOverride || got.WeightKg != 120 {
		t.Fatalf("expected manual 120, got %+v", got)
	}

	full.ManualOverrideKg = nil
	got, _ = Resolve(full)
	if got.Source != SourceLatestWeighing || got.WeightKg != 102 {
		t.Fatalf("expected latest weighing 102, got %+v", got)
	}
	if got.LastWeightDate == nil || !got.LastWeightDate.Equal(day(5)) {
		t.Fatalf("expected last weight date %v, got %v", day(5), got.LastWeightDate)
	}

	full.Weighings = nil
	got, _ = Resolve(full)
	if got.Source != SourceEntryWeight || got.WeightKg != 25 {
		t.Fatalf("expected entry weight 25, got %+v", got)
	}

	full.EntryWeightKg = 0
	if _, err := Resolve(full); !errors.Is(err, ErrWeightUnavailable) {
		t.Fatalf("expected ErrWeightUnavailable, got %v", err)
	}
}

func TestResolve_BatchPrecedence(t *testing.T) {
	members := []Input{
		{Weighings: []herd.Weighing{{Date: day(4), WeightKg: 55}}, EntryWeightKg: 22},
		{Weighings: []herd.Weighing{{Date: day(3), WeightKg: 52}}, EntryWeightKg: 21},
	}
	in := Input{
		ManualOverrideKg: kg(200),
		Batch:            &BatchInput{AverageWeightKg: 40, Members: members},
	}

	got, _ := Resolve(in)
	if got.Source != SourceManualOverride || got.WeightKg != 200 {
		t.Fatalf("expected manual 200, got %+v", got)
	}

	// (55 + 52) / 2
	in.ManualOverrideKg = nil
	got, _ = Resolve(in)
	if got.Source != SourceLatestWeighing || got.WeightKg != 54 {
		t.Fatalf("expected per-head latest weighing 54, got %+v", got)
	}
	if got.LastWeightDate == nil || !got.LastWeightDate.Equal(day(4)) {
		t.Fatalf("expected newest member date, got %v", got.LastWeightDate)
	}

	// un miembro sin pesadas cae a su peso de entrada; el otro conserva la pesada
	in.Batch.Members[1].Weighings = nil
	got, _ = Resolve(in)
	if got.Source != SourceEntryWeight || got.WeightKg != 38 {
		t.Fatalf("expected per-head 38 from entry weight, got %+v", got)
	}

	// el miembro 0 ya no tiene datos propios y toma el promedio del lote
	in.Batch.Members[0].Weighings = nil
	in.Batch.Members[0].EntryWeightKg = 0
	got, _ = Resolve(in)
	if got.Source != SourceBatchAverage || got.WeightKg != 31 {
		t.Fatalf("expected per-head 31 using batch average, got %+v", got)
	}

	in.Batch.AverageWeightKg = 0
	if _, err := Resolve(in); !errors.Is(err, ErrWeightUnavailable) {
		t.Fatalf("expected ErrWeightUnavailable, got %v", err)
	}
}

func TestResolve_BatchAverageIsPerHead(t *testing.T) {
	unknown := Input{}

	got, err := Resolve(Input{Batch: &BatchInput{
		AverageWeightKg: 80,
		Members:         []Input{unknown, unknown, unknown},
	}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Source != SourceBatchAverage || got.WeightKg != 80 {
		t.Fatalf("expected recorded average 80, got %+v", got)
	}

	got, _ = Resolve(Input{Batch: &BatchInput{
		AverageWeightKg: 80,
		Members:         []Input{{EntryWeightKg: 100}, unknown},
	}})
	if got.Source != SourceBatchAverage || got.WeightKg != 90 {
		t.Fatalf("expected per-head 90, got %+v", got)
	}

	got, _ = Resolve(Input{Batch: &BatchInput{AverageWeightKg: 80}})
	if got.Source != SourceBatchAverage || got.WeightKg != 80 {
		t.Fatalf("expected recorded average 80 without members, got %+v", got)
	}
}

func TestResolve_BatchAverageOnlyInBatchMode(t *testing.T) {
	if _, err := Resolve(Input{}); !errors.Is(err, ErrWeightUnavailable) {
		t.Fatalf("expected ErrWeightUnavailable, got %v", err)
	}
}

func TestResolve_NonPositiveCandidatesFallThrough(t *testing.T) {
	in := Input{
		ManualOverrideKg: kg(-5),
		Weighings:        []herd.Weighing{{Date: day(1), WeightKg: 0.4}},
		EntryWeightKg:    30.5,
	}
	got, err := Resolve(in)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Source != SourceEntryWeight || got.WeightKg != 31 {
		t.Fatalf("expected entry weight 31, got %+v", got)
	}
}

func TestLatest_TiesLastSeenWins(t *testing.T) {
	ws := []herd.Weighing{
		{ID: "a", Date: day(3), WeightKg: 10},
		{ID: "b", Date: day(7), WeightKg: 20},
		{ID: "c", Date: day(7), WeightKg: 30},
		{ID: "d", Date: day(1), WeightKg: 40},
	}
	got, ok := Latest(ws)
	if !ok {
		t.Fatalf("expected a weighing")
	}
	if diff := cmp.Diff(ws[2], got); diff != "" {
		t.Fatalf("latest mismatch (-want +got):\n%s", diff)
	}

	if _, ok := Latest(nil); ok {
		t.Fatalf("expected no weighing for empty history")
	}
}

func TestResolver_CustomChain(t *testing.T) {
	r := NewResolver(Step{Source: SourceEntryWeight, Lookup: entryWeight})
	got, err := r.Resolve(Input{ManualOverrideKg: kg(99), EntryWeightKg: 12})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Source != SourceEntryWeight || got.WeightKg != 12 {
		t.Fatalf("expected entry weight 12 from custom chain, got %+v", got)
	}
}
