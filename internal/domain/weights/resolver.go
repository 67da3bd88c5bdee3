// Package weights resuelve el peso con el que se publica un animal o un lote.
package weights

import (
	"math"
	"time"

	"go.trai.ch/zerr"

	"herd-marketplace/internal/domain/herd"
)

// ErrWeightUnavailable: ninguna fuente dio un peso positivo. Para crear un anuncio es
// una precondición dura, no un warning.
var ErrWeightUnavailable = zerr.New("weight unavailable")

// Source indica de dónde salió el peso resuelto.
// @Enum manual_override, latest_weighing, entry_weight, batch_average
type Source string

const (
	SourceManualOverride Source = "manual_override"
	SourceLatestWeighing Source = "latest_weighing"
	SourceEntryWeight    Source = "entry_weight"
	SourceBatchAverage   Source = "batch_average"
)

// Input describe al sujeto a publicar. BatchAverageKg es el promedio registrado del lote
// al que pertenece el sujeto; solo lo usa el último paso de la cadena.
// Batch != nil activa el modo lote: la cadena corre por miembro.
type Input struct {
	ManualOverrideKg *float64
	Weighings        []herd.Weighing
	EntryWeightKg    float64
	BatchAverageKg   float64

	Batch *BatchInput
}

type BatchInput struct {
	AverageWeightKg float64
	Members         []Input
}

// Resolution: el store remoto solo acepta pesos enteros.
type Resolution struct {
	WeightKg       int        `json:"weight_kg"`
	Source         Source     `json:"source"`
	LastWeightDate *time.Time `json:"last_weight_date,omitempty"`
}

// Step es un eslabón de la cadena. Lookup devuelve kg <= 0 cuando no aplica.
type Step struct {
	Source Source
	Lookup func(in Input) (kg float64, at *time.Time)
}

// DefaultChain en orden estricto; gana el primer valor positivo.
var DefaultChain = []Step{
	{SourceManualOverride, manualOverride},
	{SourceLatestWeighing, latestWeighing},
	{SourceEntryWeight, entryWeight},
	{SourceBatchAverage, batchAverage},
}

type Resolver struct {
	steps []Step
}

func NewResolver(steps ...Step) *Resolver {
	if len(steps) == 0 {
		steps = DefaultChain
	}
	return &Resolver{steps: steps}
}

// Resolve recorre la cadena. Un candidato que redondea a 0 kg no cuenta como positivo.
func (r *Resolver) Resolve(in Input) (Resolution, error) {
	if in.Batch != nil {
		return r.resolveBatch(in)
	}
	kg, src, at, ok := r.first(in)
	if !ok {
		return Resolution{}, ErrWeightUnavailable
	}
	return Resolution{WeightKg: int(math.Round(kg)), Source: src, LastWeightDate: at}, nil
}

func (r *Resolver) first(in Input) (float64, Source, *time.Time, bool) {
	for _, s := range r.steps {
		kg, at := s.Lookup(in)
		if !positive(kg) {
			continue
		}
		return kg, s.Source, at, true
	}
	return 0, "", nil, false
}

// resolveBatch: el override manual aplica al lote entero. Si no hay, cada miembro recorre
// la cadena con el promedio del lote como último paso y el peso del lote es el promedio
// por cabeza de los miembros. Source es el paso más débil usado por algún miembro.
func (r *Resolver) resolveBatch(in Input) (Resolution, error) {
	for _, s := range r.steps {
		if s.Source != SourceManualOverride {
			continue
		}
		if kg, _ := s.Lookup(in); positive(kg) {
			return Resolution{WeightKg: int(math.Round(kg)), Source: s.Source}, nil
		}
	}

	members := in.Batch.Members
	if len(members) == 0 {
		members = []Input{{}}
	}

	var (
		total   float64
		newest  *time.Time
		weakest = -1
	)
	for _, m := range members {
		m.ManualOverrideKg = nil
		m.Batch = nil
		m.BatchAverageKg = in.Batch.AverageWeightKg

		kg, src, at, ok := r.first(m)
		if !ok {
			return Resolution{}, ErrWeightUnavailable
		}
		total += kg
		if rank := r.rank(src); rank > weakest {
			weakest = rank
		}
		if at != nil && (newest == nil || at.After(*newest)) {
			newest = at
		}
	}

	avg := int(math.Round(total / float64(len(members))))
	if avg <= 0 {
		return Resolution{}, ErrWeightUnavailable
	}
	return Resolution{WeightKg: avg, Source: r.steps[weakest].Source, LastWeightDate: newest}, nil
}

func (r *Resolver) rank(src Source) int {
	for i, s := range r.steps {
		if s.Source == src {
			return i
		}
	}
	return len(r.steps) - 1
}

func positive(kg float64) bool {
	if math.IsNaN(kg) || math.IsInf(kg, 0) {
		return false
	}
	return math.Round(kg) > 0
}

// Resolve usa DefaultChain.
func Resolve(in Input) (Resolution, error) {
	return NewResolver().Resolve(in)
}

func manualOverride(in Input) (float64, *time.Time) {
	if in.ManualOverrideKg == nil {
		return 0, nil
	}
	return *in.ManualOverrideKg, nil
}

func latestWeighing(in Input) (float64, *time.Time) {
	w, ok := Latest(in.Weighings)
	if !ok {
		return 0, nil
	}
	at := w.Date
	return w.WeightKg, &at
}

func entryWeight(in Input) (float64, *time.Time) {
	return in.EntryWeightKg, nil
}

func batchAverage(in Input) (float64, *time.Time) {
	return in.BatchAverageKg, nil
}

// Latest devuelve la pesada más reciente por fecha; en empate gana la última vista.
func Latest(ws []herd.Weighing) (herd.Weighing, bool) {
	var (
		best  herd.Weighing
		found bool
	)
	for _, w := range ws {
		if !found || !w.Date.Before(best.Date) {
			best = w
			found = true
		}
	}
	return best, found
}
