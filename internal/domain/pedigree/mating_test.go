package pedigree

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"herd-marketplace/internal/domain/herd"
)

func breeders() []herd.Animal {
	return []herd.Animal{
		{ID: "V1", Sex: herd.SexMale, IsBreeder: true, Status: herd.StatusActive},
		{ID: "M1", Sex: herd.SexFemale, IsBreeder: true, Status: herd.StatusActive},
		{ID: "S1", Sex: herd.SexFemale, IsBreeder: true, Status: herd.StatusActive, FatherID: ref("V1"), MotherID: ref("M1")},
		{ID: "V2", Sex: herd.SexMale, IsBreeder: false, Status: herd.StatusSold},
	}
}

func TestCheckMating_CleanPair(t *testing.T) {
	got := CheckMating("V2", "M1", breeders())
	if got.Blocked {
		t.Fatalf("expected not blocked")
	}
	if len(got.Warnings) != 2 {
		t.Fatalf("expected 2 warnings (not breeder, not active), got %v", got.Warnings)
	}
	if got.Warnings[0] != WarnMaleNotBreeder || got.Warnings[1] != WarnMaleNotActive {
		t.Fatalf("unexpected warnings %v", got.Warnings)
	}
}

func TestCheckMating_ParentDaughterIsBlocked(t *testing.T) {
	got := CheckMating("V1", "S1", breeders())
	if !got.Blocked {
		t.Fatalf("expected blocked, got %s", got)
	}
	if got.Risk.Relation != RelationParentChild {
		t.Fatalf("expected parentChild, got %s", got.Risk.Relation)
	}
	if len(got.Warnings) != 0 {
		t.Fatalf("expected no flag warnings, got %v", got.Warnings)
	}
}

func TestCheckMating_SwappedSexesWarn(t *testing.T) {
	got := CheckMating("M1", "V1", breeders())
	if got.Blocked {
		t.Fatalf("expected not blocked")
	}
	want := []Warning{WarnMaleNotMale, WarnFemaleNotFemale}
	if len(got.Warnings) != len(want) || got.Warnings[0] != want[0] || got.Warnings[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got.Warnings)
	}
}

func TestCheckMating_UnknownCandidate(t *testing.T) {
	got := CheckMating("ghost", "M1", breeders())
	if got.Blocked {
		t.Fatalf("insufficient data must not block")
	}
	if !got.Risk.InsufficientData || got.Warnings[0] != WarnInsufficientRecord {
		t.Fatalf("expected insufficient data warning, got %+v", got)
	}
}

type staticLister []herd.Animal

func (s staticLister) ListAnimals(ctx context.Context, projectID string) ([]herd.Animal, error) {
	return s, nil
}

func TestCheckMatingHandler(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, staticLister(breeders()))

	body, _ := json.Marshal(checkMatingRequest{MaleID: "V1", FemaleID: "S1"})
	req := httptest.NewRequest(http.MethodPost, "/projects/p-1/breeding/check", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var got MatingCheck
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Blocked || got.Risk.Severity != SeverityCritical {
		t.Fatalf("expected blocked critical, got %+v", got)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/projects/p-1/breeding/check", bytes.NewReader([]byte(`{"male_id":"V1"}`))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
