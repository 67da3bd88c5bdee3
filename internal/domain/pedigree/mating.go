package pedigree

import (
	"fmt"

	"herd-marketplace/internal/domain/herd"
)

// Warning es una advertencia no bloqueante sobre los flags de cría.
type Warning string

const (
	WarnMaleNotMale        Warning = "male_candidate_is_not_male"
	WarnFemaleNotFemale    Warning = "female_candidate_is_not_female"
	WarnMaleNotBreeder     Warning = "male_candidate_is_not_breeder"
	WarnFemaleNotBreeder   Warning = "female_candidate_is_not_breeder"
	WarnMaleNotActive      Warning = "male_candidate_is_not_active"
	WarnFemaleNotActive    Warning = "female_candidate_is_not_active"
	WarnInsufficientRecord Warning = "insufficient_pedigree_data"
)

// MatingCheck combina el riesgo de pedigrí con los flags de cría.
// Solo Risk.Blocking() bloquea; los warnings son informativos.
type MatingCheck struct {
	MaleID   string    `json:"male_id"`
	FemaleID string    `json:"female_id"`
	Risk     Result    `json:"risk"`
	Blocked  bool      `json:"blocked"`
	Warnings []Warning `json:"warnings"`
}

func (m MatingCheck) String() string {
	return fmt.Sprintf("%s x %s: %s/%s blocked=%t", m.MaleID, m.FemaleID, m.Risk.Relation, m.Risk.Severity, m.Blocked)
}

func CheckMating(maleID, femaleID string, animals []herd.Animal) MatingCheck {
	idx := herd.Index(animals)
	risk := classify(maleID, femaleID, idx)

	out := MatingCheck{
		MaleID:   maleID,
		FemaleID: femaleID,
		Risk:     risk,
		Blocked:  risk.Blocking(),
		Warnings: []Warning{},
	}

	if risk.InsufficientData {
		out.Warnings = append(out.Warnings, WarnInsufficientRecord)
	}

	if m, ok := idx[maleID]; ok {
		if m.Sex != herd.SexMale {
			out.Warnings = append(out.Warnings, WarnMaleNotMale)
		}
		if !m.IsBreeder {
			out.Warnings = append(out.Warnings, WarnMaleNotBreeder)
		}
		if m.Status != herd.StatusActive {
			out.Warnings = append(out.Warnings, WarnMaleNotActive)
		}
	}
	if f, ok := idx[femaleID]; ok {
		if f.Sex != herd.SexFemale {
			out.Warnings = append(out.Warnings, WarnFemaleNotFemale)
		}
		if !f.IsBreeder {
			out.Warnings = append(out.Warnings, WarnFemaleNotBreeder)
		}
		if f.Status != herd.StatusActive {
			out.Warnings = append(out.Warnings, WarnFemaleNotActive)
		}
	}

	return out
}
