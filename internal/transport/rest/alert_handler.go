package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/alerting"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

type AlertHandler struct {
	evaluator *alerting.Evaluator
}

func NewAlertHandler(evaluator *alerting.Evaluator) *AlertHandler {
	return &AlertHandler{evaluator: evaluator}
}

func (h *AlertHandler) Index(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.evaluator.List()})
}

func (h *AlertHandler) Show(w http.ResponseWriter, r *http.Request) {
	alert, err := h.evaluator.Get(r.PathValue("id"))
	if err != nil {
		JSONError(w, http.StatusNotFound, "Alert not found")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: alert})
}

func (h *AlertHandler) Store(w http.ResponseWriter, r *http.Request) {
	var alert domain.Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.evaluator.Create(r.Context(), &alert); err != nil {
		respondAlertError(w, err)
		return
	}

	JSONSuccess(w, http.StatusCreated, APIResponse{Message: "Alert created successfully.", Data: alert})
}

func (h *AlertHandler) Update(w http.ResponseWriter, r *http.Request) {
	var alert domain.Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.evaluator.Update(r.Context(), r.PathValue("id"), &alert)
	if err != nil {
		respondAlertError(w, err)
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Message: "Alert updated successfully.", Data: updated})
}

func (h *AlertHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	if err := h.evaluator.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondAlertError(w, err)
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Message: "Alert deleted successfully."})
}

func (h *AlertHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

func (h *AlertHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *AlertHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	alert, err := h.evaluator.SetEnabled(r.Context(), r.PathValue("id"), enabled)
	if err != nil {
		respondAlertError(w, err)
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: alert})
}

func (h *AlertHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit := int(queryInt64(r, "limit"))
	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.evaluator.Events(limit)})
}

func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	event, err := h.evaluator.Acknowledge(r.Context(), r.PathValue("id"))
	if err != nil {
		JSONError(w, http.StatusNotFound, "Alert event not found")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: event})
}

func respondAlertError(w http.ResponseWriter, err error) {
	var validationErr *alerting.ValidationError
	switch {
	case errors.As(err, &validationErr):
		JSONValidationError(w, validationErr.Fields)
	case errors.Is(err, domain.ErrAlertNotFound):
		JSONError(w, http.StatusNotFound, "Alert not found")
	default:
		JSONError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
