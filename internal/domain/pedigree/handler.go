package pedigree

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"herd-marketplace/internal/domain/herd"
)

// AnimalLister es lo único que el handler necesita del cheptel.
type AnimalLister interface {
	ListAnimals(ctx context.Context, projectID string) ([]herd.Animal, error)
}

func RegisterRoutes(r chi.Router, animals AnimalLister) {
	r.Post("/projects/{projectID}/breeding/check", checkMatingHandler(animals))
}

type checkMatingRequest struct {
	MaleID   string `json:"male_id"`
	FemaleID string `json:"female_id"`
}

// checkMatingHandler godoc
// @Summary Verificar cruce
// @Description Clasifica el parentesco entre dos reproductores (2 generaciones). severity=critical bloquea el cruce.
// @Tags breeding
// @Accept json
// @Produce json
// @Param projectID path string true "ID del proyecto"
// @Param payload body checkMatingRequest true "Candidatos"
// @Success 200 {object} MatingCheck
// @Failure 400 {string} string "invalid json / male_id and female_id are required"
// @Router /projects/{projectID}/breeding/check [post]
func checkMatingHandler(animals AnimalLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkMatingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		req.MaleID = strings.TrimSpace(req.MaleID)
		req.FemaleID = strings.TrimSpace(req.FemaleID)
		if req.MaleID == "" || req.FemaleID == "" {
			http.Error(w, "male_id and female_id are required", http.StatusBadRequest)
			return
		}

		items, err := animals.ListAnimals(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(CheckMating(req.MaleID, req.FemaleID, items))
	}
}
