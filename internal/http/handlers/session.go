package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/scan-console/internal/errors"
	"github.com/pribylovaa/scan-console/internal/models"
	"github.com/pribylovaa/scan-console/internal/service"
)

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.SessionLoginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	res, err := h.Svc.Login(r.Context(), in.ToInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginFromService(res))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Logout(r.Context()); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StatusFromService(h.Svc.Status(r.Context())))
}

func (h *Handlers) AckNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.AckNotice(r.Context()); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
