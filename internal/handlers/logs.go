package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ukydev/servicelog/internal/browser"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/validation"
)

// LogHandler exposes the records browser
type LogHandler struct {
	browser *browser.Browser
}

// NewLogHandler creates a new service log handler
func NewLogHandler(b *browser.Browser) *LogHandler {
	return &LogHandler{browser: b}
}

// Logs handles GET /api/logs?search=&type=&from=&to=
func (h *LogHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := browser.Filter{
		Search: q.Get("search"),
		Type:   q.Get("type"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	}
	if filter.Type != "" && filter.Type != browser.TypeAll && !models.IsValidServiceType(models.ServiceType(filter.Type)) {
		http.Error(w, "Invalid type filter", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.browser.List(filter))
}

// Log handles GET, PUT and DELETE on /api/logs/{id}
func (h *LogHandler) Log(w http.ResponseWriter, r *http.Request) {
	id, action := pathID(r.URL.Path, "/api/logs/")
	if id == "" || action != "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := h.browser.Get(id)
		if err != nil {
			http.Error(w, "Service log not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *LogHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	fields, err := readFields(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	overlay, err := h.browser.Edit(id)
	if err != nil {
		http.Error(w, "Service log not found", http.StatusNotFound)
		return
	}
	defer overlay.Cancel()

	if err := applyFields(overlay, fields); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := overlay.Save()
	if err != nil {
		if fe, ok := validation.AsFieldErrors(err); ok {
			writeValidation(w, fe)
			return
		}
		if errors.Is(err, browser.ErrNotFound) {
			http.Error(w, "Service log not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *LogHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	deleted, err := h.browser.Delete(id, browser.ConfirmFunc(func(string) bool { return confirmed }))
	if err != nil {
		http.Error(w, "Service log not found", http.StatusNotFound)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusConflict, map[string]string{
			"prompt": browser.DeletePrompt,
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
