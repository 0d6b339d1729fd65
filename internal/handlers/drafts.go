package handlers

import (
	"errors"
	"net/http"

	"github.com/ukydev/servicelog/internal/autosave"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/store"
)

const currentDraft = "current"

// DraftList is the response of GET /api/drafts
type DraftList struct {
	Drafts         []models.ServiceLogDraft `json:"drafts"`
	CurrentDraftID string                   `json:"currentDraftId"`
}

// DraftHandler manages drafts through the autosave controller
type DraftHandler struct {
	ctrl  *autosave.Controller
	store *store.Store
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(ctrl *autosave.Controller, st *store.Store) *DraftHandler {
	return &DraftHandler{ctrl: ctrl, store: st}
}

// Drafts handles /api/drafts
func (h *DraftHandler) Drafts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, DraftList{
			Drafts:         h.store.Drafts(),
			CurrentDraftID: h.store.CurrentDraftID(),
		})
	case http.MethodPost:
		writeJSON(w, http.StatusCreated, h.ctrl.CreateDraft())
	case http.MethodDelete:
		h.ctrl.ClearAllDrafts()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Draft handles /api/drafts/{id}, /api/drafts/{id}/select and
// /api/drafts/{id}/use. The id "current" targets the bound draft on DELETE.
func (h *DraftHandler) Draft(w http.ResponseWriter, r *http.Request) {
	id, action := pathID(r.URL.Path, "/api/drafts/")
	if id == "" {
		http.Error(w, "Draft ID required", http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		d, ok := h.store.Draft(id)
		if !ok {
			http.Error(w, "Draft not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, d)
	case action == "" && r.Method == http.MethodDelete:
		var err error
		if id == currentDraft {
			err = h.ctrl.DeleteCurrentDraft()
		} else {
			err = h.ctrl.DeleteDraft(id)
		}
		if err != nil {
			h.draftError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case action == "select" && r.Method == http.MethodPost:
		if err := h.ctrl.SelectDraft(id); err != nil {
			h.draftError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case action == "use" && r.Method == http.MethodPost:
		values, err := h.ctrl.UseDraft(id)
		if err != nil {
			h.draftError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, values)
	case action == "" || action == "select" || action == "use":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func (h *DraftHandler) draftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, autosave.ErrDraftNotFound):
		http.Error(w, "Draft not found", http.StatusNotFound)
	case errors.Is(err, autosave.ErrNoCurrentDraft):
		http.Error(w, "No draft is bound to the form", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
