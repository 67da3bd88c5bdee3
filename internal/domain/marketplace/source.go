package marketplace

import (
	"context"

	"go.trai.ch/zerr"
)

var (
	ErrInvalidInput       = zerr.New("invalid input")
	ErrUnknownListingType = zerr.New("unknown listing type")
	ErrUnknownSubject     = zerr.New("listing subject not found")
	ErrSubjectInactive    = zerr.New("listing subject is not active")
	ErrAlreadyListed      = zerr.New("animal already claimed by an active listing")
	ErrListingNotFound    = zerr.New("listing not found")
	// ErrRemote envuelve cualquier falla del marketplace remoto. Es terminal para la
	// operación; no se reintenta.
	ErrRemote = zerr.New("marketplace remote failure")
)

// ListingSource es la frontera request/response con el marketplace remoto.
// Las implementaciones devuelven ErrListingNotFound cuando el anuncio no existe.
type ListingSource interface {
	ListActive(ctx context.Context) ([]Listing, error)
	Create(ctx context.Context, in NewListing) (Listing, error)
	UpdateStatus(ctx context.Context, listingID string, status ListingStatus) (Listing, error)
	Withdraw(ctx context.Context, listingID string) error
	// UploadPhoto sube una foto local (file:// o ruta) y devuelve su URL remota.
	UploadPhoto(ctx context.Context, listingID, photoURI string) (string, error)
	CreatePurchaseRequest(ctx context.Context, in PurchaseRequest) (PurchaseRequest, error)
}
