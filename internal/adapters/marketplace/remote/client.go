// Package remote implementa marketplace.ListingSource contra el API HTTP del marketplace.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/zerr"

	"herd-marketplace/internal/domain/marketplace"
	"herd-marketplace/internal/platform/httpclient"
	"herd-marketplace/internal/platform/logger"
)

var (
	ErrNotConfigured = zerr.New("marketplace client not configured")
	ErrUnauthorized  = zerr.New("marketplace unauthorized")
	ErrUpstream      = zerr.New("marketplace upstream error")
	ErrPhotoRead     = zerr.New("failed to read local photo")
)

const (
	listingsPath        = "/v1/listings"
	purchaseRequestPath = "/v1/purchase-requests"
	photoField          = "photo"

	defaultPageSize = 200
	// corta el paginado si el remoto nunca devuelve una página corta
	maxPages = 500
)

// Config del cliente. BaseURL y APIKey vienen de config/env.
type Config struct {
	BaseURL string
	APIKey  string

	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration

	// PageSize es el limit por página de ListActive; <= 0 usa defaultPageSize.
	PageSize int
}

type Client struct {
	http     *httpclient.Client
	apiKey   string
	pageSize int
	log      logger.Logger
}

var _ marketplace.ListingSource = (*Client)(nil)

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.NewNop()
	}
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey != "" {
		hc.DefaultHeaders = map[string]string{h: apiKey}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		http:     hc,
		apiKey:   apiKey,
		pageSize: pageSize,
		log:      log.With(map[string]any{"component": "marketplace_remote"}),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type listResponse struct {
	Items []json.RawMessage `json:"items"`
}

// ListActive trae todos los anuncios available/reserved, página por página, hasta que el
// remoto devuelve una página corta. Un anuncio mal formado se descarta y se loguea; no
// invalida el resto.
func (c *Client) ListActive(ctx context.Context) ([]marketplace.Listing, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	out := []marketplace.Listing{}
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("status", string(marketplace.ListingAvailable)+","+string(marketplace.ListingReserved))
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("offset", strconv.Itoa(page*c.pageSize))

		var resp listResponse
		if err := c.http.DoJSON(ctx, http.MethodGet, listingsPath+"?"+q.Encode(), nil, nil, &resp); err != nil {
			return nil, mapErr(err)
		}

		for _, raw := range resp.Items {
			var l marketplace.Listing
			if err := json.Unmarshal(raw, &l); err != nil {
				c.log.Warn("skipping malformed listing", map[string]any{"error": err})
				continue
			}
			if !l.Status.Active() {
				continue
			}
			out = append(out, l)
		}
		if len(resp.Items) < c.pageSize {
			return out, nil
		}
	}

	c.log.Warn("listing pagination stopped early", map[string]any{"pages": maxPages, "listings": len(out)})
	return out, nil
}

func (c *Client) Create(ctx context.Context, in marketplace.NewListing) (marketplace.Listing, error) {
	if !c.IsConfigured() {
		return marketplace.Listing{}, ErrNotConfigured
	}

	draft := marketplace.Listing{
		ProjectID:      in.ProjectID,
		Subject:        in.Subject,
		Status:         marketplace.ListingAvailable,
		PricePerKg:     in.PricePerKg,
		WeightKg:       in.WeightKg,
		Location:       in.Location,
		LastWeightDate: in.LastWeightDate,
	}

	var out marketplace.Listing
	if err := c.http.DoJSON(ctx, http.MethodPost, listingsPath, nil, draft, &out); err != nil {
		return marketplace.Listing{}, mapErr(err)
	}
	return out, nil
}

type statusPatch struct {
	Status marketplace.ListingStatus `json:"status"`
}

func (c *Client) UpdateStatus(ctx context.Context, listingID string, status marketplace.ListingStatus) (marketplace.Listing, error) {
	if !c.IsConfigured() {
		return marketplace.Listing{}, ErrNotConfigured
	}

	var out marketplace.Listing
	if err := c.http.DoJSON(ctx, http.MethodPatch, listingPath(listingID), nil, statusPatch{Status: status}, &out); err != nil {
		return marketplace.Listing{}, mapErr(err)
	}
	return out, nil
}

func (c *Client) Withdraw(ctx context.Context, listingID string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.http.DoJSON(ctx, http.MethodDelete, listingPath(listingID), nil, nil, nil); err != nil {
		return mapErr(err)
	}
	return nil
}

type photoResponse struct {
	URL string `json:"url"`
}

// UploadPhoto acepta "file:///ruta" o una ruta local simple.
func (c *Client) UploadPhoto(ctx context.Context, listingID, photoURI string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	path := localPath(photoURI)
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPhotoRead, photoURI, err)
	}
	defer f.Close()

	var out photoResponse
	if err := c.http.DoMultipartFile(ctx, listingPath(listingID)+"/photos", nil, photoField, filepath.Base(path), f, &out); err != nil {
		return "", mapErr(err)
	}
	return out.URL, nil
}

func (c *Client) CreatePurchaseRequest(ctx context.Context, in marketplace.PurchaseRequest) (marketplace.PurchaseRequest, error) {
	if !c.IsConfigured() {
		return marketplace.PurchaseRequest{}, ErrNotConfigured
	}

	var out marketplace.PurchaseRequest
	if err := c.http.DoJSON(ctx, http.MethodPost, purchaseRequestPath, nil, in, &out); err != nil {
		return marketplace.PurchaseRequest{}, mapErr(err)
	}
	return out, nil
}

func listingPath(id string) string {
	return listingsPath + "/" + url.PathEscape(strings.TrimSpace(id))
}

func localPath(uri string) string {
	uri = strings.TrimSpace(uri)
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil && u.Path != "" {
			return u.Path
		}
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}

// mapErr traduce status HTTP a errores del dominio/adaptador.
func mapErr(err error) error {
	switch httpclient.StatusCode(err) {
	case http.StatusNotFound:
		return marketplace.ErrListingNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}
