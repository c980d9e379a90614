package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/scan-console/internal/clients/backend"
	apierrors "github.com/pribylovaa/scan-console/internal/errors"
	"github.com/pribylovaa/scan-console/internal/models"
)

func (h *Handlers) ArchiveReport(w http.ResponseWriter, r *http.Request) {
	appID := backend.ID(chi.URLParam(r, "appID"))
	format := r.URL.Query().Get("format")

	obj, err := h.Svc.ArchiveReport(r.Context(), appID, format)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.ArchiveFromObject(obj, time.Now()))
}
