package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/scan-console/internal/errors"
	"github.com/pribylovaa/scan-console/internal/models"
)

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Svc.Dashboard(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.DashboardFromService(d))
}
