// Package pedigree clasifica el riesgo de consanguinidad entre dos reproductores.
// Solo mira dos generaciones (padres y abuelos); más arriba no se adivina.
package pedigree

import "herd-marketplace/internal/domain/herd"

// Relation es el parentesco detectado entre los dos candidatos.
// @Enum parentChild, siblings, halfSiblings, grandparentGrandchild, none
type Relation string

const (
	RelationParentChild           Relation = "parentChild"
	RelationSiblings              Relation = "siblings"
	RelationHalfSiblings          Relation = "halfSiblings"
	RelationGrandparentGrandchild Relation = "grandparentGrandchild"
	RelationNone                  Relation = "none"
)

// Severity
// @Enum critical, high, moderate, none
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityNone     Severity = "none"
)

// Result es un valor puro; se recalcula en cada llamada.
// InsufficientData=true NO equivale a "cruce seguro": alguno de los ids no existe.
type Result struct {
	Relation         Relation `json:"relation"`
	Severity         Severity `json:"severity"`
	InsufficientData bool     `json:"insufficient_data"`
}

// Blocking: la UI debe rechazar el cruce.
func (r Result) Blocking() bool { return r.Severity == SeverityCritical }

// Advisory: la UI debe advertir pero puede seguir.
func (r Result) Advisory() bool {
	return r.Severity == SeverityHigh || r.Severity == SeverityModerate
}

type rule struct {
	relation Relation
	severity Severity
	match    func(a, b herd.Animal, idx map[string]herd.Animal) bool
}

// Orden fijo: gana la primera regla que aplica.
var rules = []rule{
	{RelationParentChild, SeverityCritical, isParentChild},
	{RelationSiblings, SeverityCritical, isFullSiblings},
	{RelationGrandparentGrandchild, SeverityHigh, isGrandparentGrandchild},
	{RelationHalfSiblings, SeverityModerate, isHalfSiblings},
}

// Classify es pura, determinística y simétrica en (aID, bID).
func Classify(aID, bID string, animals []herd.Animal) Result {
	return classify(aID, bID, herd.Index(animals))
}

func classify(aID, bID string, idx map[string]herd.Animal) Result {
	a, okA := idx[aID]
	b, okB := idx[bID]
	if !okA || !okB || aID == bID {
		return Result{Relation: RelationNone, Severity: SeverityNone, InsufficientData: true}
	}

	for _, r := range rules {
		if r.match(a, b, idx) {
			return Result{Relation: r.relation, Severity: r.severity}
		}
	}
	return Result{Relation: RelationNone, Severity: SeverityNone}
}

// Solo por igualdad de ids; el sexo no importa.
func isParentChild(a, b herd.Animal, _ map[string]herd.Animal) bool {
	return a.IsParentOf(b) || b.IsParentOf(a)
}

func isFullSiblings(a, b herd.Animal, _ map[string]herd.Animal) bool {
	return sameKnown(a.FatherID, b.FatherID) && sameKnown(a.MotherID, b.MotherID)
}

func isHalfSiblings(a, b herd.Animal, _ map[string]herd.Animal) bool {
	return sameKnown(a.FatherID, b.FatherID) != sameKnown(a.MotherID, b.MotherID)
}

func isGrandparentGrandchild(a, b herd.Animal, idx map[string]herd.Animal) bool {
	return isGrandparentOf(a, b, idx) || isGrandparentOf(b, a, idx)
}

// isGrandparentOf sube un nivel desde padre y madre de child.
func isGrandparentOf(gp, child herd.Animal, idx map[string]herd.Animal) bool {
	for _, ref := range []*string{child.FatherID, child.MotherID} {
		if ref == nil {
			continue
		}
		parent, ok := idx[*ref]
		if !ok {
			continue
		}
		if gp.IsParentOf(parent) {
			return true
		}
	}
	return false
}

// sameKnown: dos referencias nulas nunca cuentan como el mismo padre.
func sameKnown(x, y *string) bool {
	if x == nil || y == nil || *x == "" || *y == "" {
		return false
	}
	return *x == *y
}
