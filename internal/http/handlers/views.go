package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/scan-console/internal/errors"
	"github.com/pribylovaa/scan-console/internal/service"
)

// maxViewBody — жёсткий предел чтения тела; точный лимит проверяет viewstate.
const maxViewBody = 1 << 20

func (h *Handlers) GetView(w http.ResponseWriter, r *http.Request) {
	state, err := h.Svc.View(r.Context(), chi.URLParam(r, "view"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(state)
}

func (h *Handlers) PutView(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxViewBody+1))
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.Svc.SaveView(r.Context(), chi.URLParam(r, "view"), body); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteView(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.ResetView(r.Context(), chi.URLParam(r, "view")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
