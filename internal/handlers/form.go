package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/autosave"
	"github.com/ukydev/servicelog/internal/form"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/validation"
)

// FormHandler exposes the live entry form
type FormHandler struct {
	ctrl  *autosave.Controller
	entry *form.EntryForm
	log   logrus.FieldLogger
}

// NewFormHandler creates a new form handler
func NewFormHandler(entry *form.EntryForm, logger logrus.FieldLogger) *FormHandler {
	return &FormHandler{
		ctrl:  entry.Controller(),
		entry: entry,
		log:   logger,
	}
}

// Form handles GET, PUT and PATCH on /api/form
func (h *FormHandler) Form(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
	case http.MethodPut:
		var values models.FormData
		if err := readJSON(r, &values); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := values.CheckNumbers(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.ctrl.SetValues(values)
		writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
	case http.MethodPatch:
		fields, err := readFields(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := applyFields(h.ctrl, fields); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Submit handles POST /api/form/submit
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rec, err := h.entry.Submit()
	if err != nil {
		if fe, ok := validation.AsFieldErrors(err); ok {
			writeValidation(w, fe)
			return
		}
		h.log.WithError(err).Error("failed to submit service log")
		http.Error(w, "Failed to create service log", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}
