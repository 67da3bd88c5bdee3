package pedigree

import (
	"testing"

	"herd-marketplace/internal/domain/herd"
)

func ref(s string) *string { return &s }

func animal(id string, father, mother *string) herd.Animal {
	return herd.Animal{ID: id, FatherID: father, MotherID: mother, Status: herd.StatusActive}
}

// Cheptel de prueba:
//
//	V1 (verraco), M1, M2 (madres)
//	S  = V1 x ?
//	S1 = V1 x M1, S2 = V1 x M1, S3 = V1 x M2
//	N1 = S1 x ?  (nieta de V1 y M1)
func testHerd() []herd.Animal {
	return []herd.Animal{
		animal("V1", nil, nil),
		animal("M1", nil, nil),
		animal("M2", nil, nil),
		animal("S", ref("V1"), nil),
		animal("S1", ref("V1"), ref("M1")),
		animal("S2", ref("V1"), ref("M1")),
		animal("S3", ref("V1"), ref("M2")),
		animal("N1", nil, ref("S1")),
		animal("X1", nil, nil),
		animal("X2", nil, nil),
	}
}

func TestClassify_Scenarios(t *testing.T) {
	animals := testHerd()

	tests := []struct {
		name     string
		a, b     string
		relation Relation
		severity Severity
	}{
		{"sow and her sire", "S", "V1", RelationParentChild, SeverityCritical},
		{"full sisters", "S1", "S2", RelationSiblings, SeverityCritical},
		{"half sisters by sire", "S1", "S3", RelationHalfSiblings, SeverityModerate},
		{"grandsire", "V1", "N1", RelationGrandparentGrandchild, SeverityHigh},
		{"granddam", "N1", "M1", RelationGrandparentGrandchild, SeverityHigh},
		{"unknown parents never match", "X1", "X2", RelationNone, SeverityNone},
		{"unrelated", "M2", "N1", RelationNone, SeverityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.a, tt.b, animals)
			if got.Relation != tt.relation || got.Severity != tt.severity {
				t.Fatalf("expected %s/%s, got %s/%s", tt.relation, tt.severity, got.Relation, got.Severity)
			}
			if got.InsufficientData {
				t.Fatalf("expected sufficient data")
			}
		})
	}
}

func TestClassify_IsSymmetric(t *testing.T) {
	animals := testHerd()
	for _, a := range animals {
		for _, b := range animals {
			ab := Classify(a.ID, b.ID, animals)
			ba := Classify(b.ID, a.ID, animals)
			if ab != ba {
				t.Fatalf("classify(%s,%s)=%+v but classify(%s,%s)=%+v", a.ID, b.ID, ab, b.ID, a.ID, ba)
			}
		}
	}
}

func TestClassify_ParentChildIgnoresSex(t *testing.T) {
	// una hembra registrada en el slot de padre sigue siendo padre/madre
	animals := []herd.Animal{
		{ID: "F", Sex: herd.SexFemale},
		{ID: "C", FatherID: ref("F")},
	}
	got := Classify("C", "F", animals)
	if got.Relation != RelationParentChild || !got.Blocking() {
		t.Fatalf("expected blocking parentChild, got %+v", got)
	}
}

func TestClassify_ParentChildWinsOverSiblings(t *testing.T) {
	// datos degenerados: B es hijo de A y además comparten padres registrados
	animals := []herd.Animal{
		animal("P", nil, nil),
		animal("Q", nil, nil),
		animal("A", ref("P"), ref("Q")),
		animal("B", ref("A"), ref("Q")),
	}
	got := Classify("A", "B", animals)
	if got.Relation != RelationParentChild {
		t.Fatalf("expected parentChild to take precedence, got %s", got.Relation)
	}
}

func TestClassify_GrandparentRequiresResolvableParent(t *testing.T) {
	// el padre de N no está en el set: no se puede subir un nivel
	animals := []herd.Animal{
		animal("G", nil, nil),
		animal("N", ref("ghost"), nil),
	}
	got := Classify("G", "N", animals)
	if got.Relation != RelationNone {
		t.Fatalf("expected none, got %s", got.Relation)
	}
}

func TestClassify_UnknownIDIsInsufficientData(t *testing.T) {
	animals := testHerd()

	for _, pair := range [][2]string{{"S1", "nope"}, {"nope", "S1"}, {"S1", "S1"}} {
		got := Classify(pair[0], pair[1], animals)
		if !got.InsufficientData {
			t.Fatalf("%v: expected insufficient data", pair)
		}
		if got.Relation != RelationNone || got.Severity != SeverityNone {
			t.Fatalf("%v: expected none/none, got %+v", pair, got)
		}
		if got.Blocking() || got.Advisory() {
			t.Fatalf("%v: insufficient data must not block nor advise", pair)
		}
	}
}

func TestResult_BlockingAndAdvisory(t *testing.T) {
	cases := map[Severity][2]bool{
		SeverityCritical: {true, false},
		SeverityHigh:     {false, true},
		SeverityModerate: {false, true},
		SeverityNone:     {false, false},
	}
	for sev, want := range cases {
		r := Result{Severity: sev}
		if r.Blocking() != want[0] || r.Advisory() != want[1] {
			t.Fatalf("%s: expected blocking=%t advisory=%t", sev, want[0], want[1])
		}
	}
}
