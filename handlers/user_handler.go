package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"Turing/models"
	"Turing/services"
)

// UserHandler exposes the User Directory Service over HTTP. Sign-up is
// the only remote call; login and session state stay on the socket
// session.
type UserHandler struct {
	users *services.UserDirectory
}

// NewUserHandler creates the handler for the sign-up endpoint.
func NewUserHandler(users *services.UserDirectory) *UserHandler {
	return &UserHandler{users: users}
}

// SignUp handles POST /v1/users
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input models.SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	created, err := h.users.SignUp(input.Username, input.Password)
	if err != nil {
		http.Error(w, "Username and password are required and must not contain path separators", http.StatusBadRequest)
		return
	}
	if !created {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}

	log.Printf("New user registered: %s", input.Username)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"username": input.Username})
}

// HealthCheck provides a simple health check endpoint
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "turing-server"}`))
}
