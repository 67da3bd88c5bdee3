package marketplace

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"herd-marketplace/internal/domain/geo"
)

// ListingStatus
// @Enum available, reserved, sold, withdrawn
type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingReserved  ListingStatus = "reserved"
	ListingSold      ListingStatus = "sold"
	ListingWithdrawn ListingStatus = "withdrawn"
)

// Active: solo estos estados reclaman animales en el índice.
func (s ListingStatus) Active() bool {
	return s == ListingAvailable || s == ListingReserved
}

// ListingType es la etiqueta del formato de intercambio.
// @Enum individual, batch
type ListingType string

const (
	TypeIndividual ListingType = "individual"
	TypeBatch      ListingType = "batch"
)

// Subject es cerrado: solo IndividualSubject o BatchSubject.
type Subject interface {
	Type() ListingType
	// AnimalIDs son los animales que el anuncio reclama.
	AnimalIDs() []string
	sealed()
}

type IndividualSubject struct {
	AnimalID string
}

func (IndividualSubject) Type() ListingType     { return TypeIndividual }
func (s IndividualSubject) AnimalIDs() []string { return []string{s.AnimalID} }
func (IndividualSubject) sealed()               {}

type BatchSubject struct {
	BatchID   string
	MemberIDs []string
}

func (BatchSubject) Type() ListingType     { return TypeBatch }
func (s BatchSubject) AnimalIDs() []string { return slices.Clone(s.MemberIDs) }
func (BatchSubject) sealed()               {}

// Listing es la proyección local de un anuncio remoto; el dueño es el servicio remoto.
type Listing struct {
	ID             string
	ProjectID      string
	Subject        Subject
	Status         ListingStatus
	PricePerKg     float64
	WeightKg       int
	Location       geo.Location
	LastWeightDate *time.Time
	Photos         []string
	CreatedAt      time.Time
}

// listingWire es el formato JSON del marketplace remoto (y del cache).
type listingWire struct {
	ID             string        `json:"id"`
	ProjectID      string        `json:"project_id"`
	ListingType    ListingType   `json:"listing_type"`
	SubjectID      string        `json:"subject_id,omitempty"`
	BatchID        string        `json:"batch_id,omitempty"`
	MemberIDs      []string      `json:"member_ids,omitempty"`
	Status         ListingStatus `json:"status"`
	PricePerKg     float64       `json:"price_per_kg"`
	WeightKg       int           `json:"weight_kg"`
	Location       geo.Location  `json:"location"`
	LastWeightDate *time.Time    `json:"last_weight_date,omitempty"`
	Photos         []string      `json:"photos,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (l Listing) MarshalJSON() ([]byte, error) {
	w := listingWire{
		ID:             l.ID,
		ProjectID:      l.ProjectID,
		Status:         l.Status,
		PricePerKg:     l.PricePerKg,
		WeightKg:       l.WeightKg,
		Location:       l.Location,
		LastWeightDate: l.LastWeightDate,
		Photos:         l.Photos,
		CreatedAt:      l.CreatedAt,
	}

	switch s := l.Subject.(type) {
	case IndividualSubject:
		w.ListingType = TypeIndividual
		w.SubjectID = s.AnimalID
	case BatchSubject:
		w.ListingType = TypeBatch
		w.BatchID = s.BatchID
		w.MemberIDs = s.MemberIDs
	default:
		return nil, fmt.Errorf("listing %s: %w", l.ID, ErrUnknownListingType)
	}

	return json.Marshal(w)
}

func (l *Listing) UnmarshalJSON(data []byte) error {
	var w listingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var subject Subject
	switch ListingType(strings.ToLower(string(w.ListingType))) {
	case TypeIndividual:
		subject = IndividualSubject{AnimalID: w.SubjectID}
	case TypeBatch:
		subject = BatchSubject{BatchID: w.BatchID, MemberIDs: w.MemberIDs}
	default:
		return fmt.Errorf("listing %s type %q: %w", w.ID, w.ListingType, ErrUnknownListingType)
	}

	*l = Listing{
		ID:             w.ID,
		ProjectID:      w.ProjectID,
		Subject:        subject,
		Status:         w.Status,
		PricePerKg:     w.PricePerKg,
		WeightKg:       w.WeightKg,
		Location:       w.Location,
		LastWeightDate: w.LastWeightDate,
		Photos:         w.Photos,
		CreatedAt:      w.CreatedAt,
	}
	return nil
}

// EnrichmentStatus es lo que la UI muestra sobre cada animal local.
// @Enum available, reserved, sold, none
type EnrichmentStatus string

const (
	EnrichAvailable EnrichmentStatus = "available"
	EnrichReserved  EnrichmentStatus = "reserved"
	EnrichSold      EnrichmentStatus = "sold"
	EnrichNone      EnrichmentStatus = "none"
)

type Enrichment struct {
	AnimalID  string           `json:"animal_id"`
	Status    EnrichmentStatus `json:"status"`
	ListingID string           `json:"listing_id,omitempty"`
}

// NewListing es lo que se manda al crear un anuncio remoto.
type NewListing struct {
	ProjectID      string
	Subject        Subject
	PricePerKg     float64
	WeightKg       int
	Location       geo.Location
	LastWeightDate *time.Time
}

// PurchaseRequest es la solicitud de compra de un comprador sobre un anuncio.
type PurchaseRequest struct {
	ID         string    `json:"id,omitempty"`
	ListingID  string    `json:"listing_id"`
	BuyerName  string    `json:"buyer_name"`
	BuyerPhone string    `json:"buyer_phone,omitempty"`
	Message    string    `json:"message,omitempty"`
	OfferPerKg *float64  `json:"offer_per_kg,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
