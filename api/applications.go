package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/creostudios/backend/internal/lifecycle"
	"github.com/creostudios/backend/pkg/models"
	"github.com/gorilla/mux"
)

type ApplicationsHandler struct {
	authority *lifecycle.Authority
}

func NewApplicationsHandler(a *lifecycle.Authority) *ApplicationsHandler {
	return &ApplicationsHandler{authority: a}
}

type submitRequest struct {
	ClientName         string `json:"client_name"`
	City               string `json:"city"`
	ServiceType        string `json:"service_type"`
	ProjectDescription string `json:"project_description"`
	ReferenceImages    string `json:"reference_images,omitempty"`
	Days               int    `json:"days"`
}

func (h *ApplicationsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, "Invalid request", http.StatusBadRequest)
		return
	}

	app, err := h.authority.Submit(r.Context(), emailFromContext(r), lifecycle.SubmitInput{
		ClientName:         req.ClientName,
		City:               req.City,
		ServiceType:        models.ServiceType(req.ServiceType),
		ProjectDescription: req.ProjectDescription,
		ReferenceImages:    req.ReferenceImages,
		Days:               req.Days,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"message":     "Your request has been submitted successfully!",
		"application": app,
	}, http.StatusCreated)
}

func (h *ApplicationsHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	apps, err := h.authority.ListOwn(r.Context(), emailFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}

	writeJSON(w, map[string]any{"applications": apps, "total": len(apps)}, http.StatusOK)
}

func (h *ApplicationsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	apps, err := h.authority.ListAll(r.Context(), emailFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}

	writeJSON(w, map[string]any{"applications": apps, "total": len(apps)}, http.StatusOK)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *ApplicationsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, "Invalid request", http.StatusBadRequest)
		return
	}

	app, err := h.authority.SetStatus(r.Context(), emailFromContext(r), id, models.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"message":     "Application status updated",
		"application": app,
	}, http.StatusOK)
}

func (h *ApplicationsHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}

	var req models.Delivery
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, "Invalid request", http.StatusBadRequest)
		return
	}

	app, err := h.authority.Deliver(r.Context(), emailFromContext(r), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"message":     "Delivery recorded",
		"application": app,
	}, http.StatusOK)
}

func applicationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, "Invalid application id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
