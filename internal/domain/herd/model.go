package herd

import "time"

// Sex define el sexo del animal.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Status es el ciclo de vida del animal dentro del cheptel.
// @Enum active, dead, sold, given, other
type Status string

const (
	StatusActive Status = "active"
	StatusDead   Status = "dead"
	StatusSold   Status = "sold"
	StatusGiven  Status = "given"
	StatusOther  Status = "other"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDead, StatusSold, StatusGiven, StatusOther:
		return true
	}
	return false
}

// Animal representa un animal del cheptel de un proyecto (granja).
// FatherID/MotherID son referencias débiles: solo ids, se resuelven contra el set plano.
type Animal struct {
	ID        string
	ProjectID string

	Code      string // número de arete / identificación visible
	Breed     string
	Sex       Sex
	IsBreeder bool

	FatherID *string
	MotherID *string

	Status        Status
	EntryWeightKg float64 // peso de entrada (poids_initial)
	BatchID       *string

	BirthDate  *time.Time
	ArchivedAt *time.Time // borrado lógico (referenciado por descendencia)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Weighing es una pesada; append-only.
type Weighing struct {
	ID       string
	AnimalID string

	Date     time.Time
	WeightKg float64

	CreatedAt time.Time
}

// Batch agrupa animales que se manejan (y se venden) en conjunto.
type Batch struct {
	ID        string
	ProjectID string

	Name            string
	MemberIDs       []string
	AverageWeightKg float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Index arma un lookup id -> Animal sobre un set plano.
func Index(animals []Animal) map[string]Animal {
	out := make(map[string]Animal, len(animals))
	for _, a := range animals {
		out[a.ID] = a
	}
	return out
}

// IsParentOf indica si a figura como padre o madre de child (por id, no por sexo).
func (a Animal) IsParentOf(child Animal) bool {
	return sameRef(child.FatherID, a.ID) || sameRef(child.MotherID, a.ID)
}

func sameRef(ref *string, id string) bool {
	return ref != nil && *ref != "" && *ref == id
}
