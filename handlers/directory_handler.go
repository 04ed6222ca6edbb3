package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"Turing/services"
)

// DirectoryHandler exposes read-only views of the Postgres mirror: who
// signed up, what they created, who they shared with. The mirror is
// optional; without it every endpoint answers 503.
type DirectoryHandler struct {
	db *services.DatabaseService
}

// NewDirectoryHandler creates the handler for the mirror read
// endpoints.
func NewDirectoryHandler(db *services.DatabaseService) *DirectoryHandler {
	return &DirectoryHandler{db: db}
}

// GetUsers handles GET /v1/users
func (h *DirectoryHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "Postgres mirror not configured", http.StatusServiceUnavailable)
		return
	}

	users, err := h.db.ListUsers()
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// GetUserDocuments handles GET /v1/documents/{creator}
func (h *DirectoryHandler) GetUserDocuments(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "Postgres mirror not configured", http.StatusServiceUnavailable)
		return
	}

	docs, err := h.db.ListDocuments(mux.Vars(r)["creator"])
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

// GetDocumentPermissions handles GET /v1/documents/{creator}/{name}/permissions
func (h *DirectoryHandler) GetDocumentPermissions(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "Postgres mirror not configured", http.StatusServiceUnavailable)
		return
	}

	vars := mux.Vars(r)
	perms, err := h.db.ListPermissions(vars["creator"], vars["name"])
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(perms)
}
